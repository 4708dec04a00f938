// Package extraction finds medical entities in consultation transcripts by
// combining pattern rules, an optional biomedical tagger and symptom keywords.
package extraction

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
	"github.com/johnquangdev/medical-scribe/pkg/ai"
)

// TaggerProvider resolves the NER engine; *ai.Registry implements it
type TaggerProvider interface {
	Tagger(ctx context.Context) (ai.NEREngine, error)
}

// Extractor builds a ClinicalEntities bundle from free text
type Extractor struct {
	taggers TaggerProvider
	logger  *zap.Logger
}

// NewExtractor creates an extractor. taggers may be nil for rules only.
func NewExtractor(taggers TaggerProvider, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{taggers: taggers, logger: logger}
}

// Extract never fails: missing matches or an unavailable tagger only yield
// fewer entities.
func (e *Extractor) Extract(ctx context.Context, text string) entities.ClinicalEntities {
	result := entities.NewClinicalEntities()
	if strings.TrimSpace(text) == "" {
		return result
	}

	lower := strings.ToLower(text)

	result.Allergies = append(result.Allergies, extractAllergies(lower)...)
	result.VitalSigns = extractVitalSigns(lower)
	result.Medications = append(result.Medications, extractMedications(text, lower)...)

	for _, tag := range e.tag(ctx, text) {
		switch tag.Type {
		case ai.TagDisease:
			result.Diagnoses = append(result.Diagnoses, tag.Text)
		case ai.TagChemical:
			result.Medications = append(result.Medications, tag.Text)
		}
	}

	result.Symptoms = append(result.Symptoms, extractSymptoms(text)...)

	result.Normalize()

	e.logger.Debug("entities extracted",
		zap.Int("symptoms", len(result.Symptoms)),
		zap.Int("diagnoses", len(result.Diagnoses)),
		zap.Int("medications", len(result.Medications)),
		zap.Int("allergies", len(result.Allergies)),
		zap.Int("vital_signs", len(result.VitalSigns)),
	)
	return result
}

func (e *Extractor) tag(ctx context.Context, text string) []ai.Tag {
	if e.taggers == nil {
		return nil
	}
	engine, err := e.taggers.Tagger(ctx)
	if err != nil {
		e.logger.Debug("NER engine not available, using rules only", zap.Error(err))
		return nil
	}
	tags, err := engine.Tag(ctx, text)
	if err != nil {
		e.logger.Warn("NER tagging failed, using rules only", zap.Error(err))
		return nil
	}
	return tags
}
