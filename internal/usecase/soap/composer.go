// Package soap turns a consultation transcript into a structured SOAP note:
// prompt construction, the generation call and tolerant parsing of its output.
package soap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/medical-scribe/internal/usecase/errors"
	"github.com/johnquangdev/medical-scribe/pkg/ai"
)

const (
	noteTemperature = 0.3
	noteMaxTokens   = 2000
)

// GeneratorProvider resolves the generation engine; *ai.Registry implements it
type GeneratorProvider interface {
	Generator(ctx context.Context) (ai.GenerationEngine, error)
}

// ComposeInput is everything a note is generated from
type ComposeInput struct {
	Transcript     string
	Entities       entities.ClinicalEntities
	PatientContext string
	Specialty      string
}

// Composition is a generated note and how it was produced
type Composition struct {
	Note   entities.SOAPNote
	Meta   entities.GenerationMeta
	Method ParseMethod
}

// Composer builds prompts, calls the generation engine and parses the result
type Composer struct {
	engines     GeneratorProvider
	parser      *Parser
	specialties *SpecialtyTable
	logger      *zap.Logger
}

// NewComposer creates a note composer. A nil table uses the built-in one.
func NewComposer(engines GeneratorProvider, specialties *SpecialtyTable, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if specialties == nil {
		specialties = NewSpecialtyTable(DefaultSpecialty)
	}
	return &Composer{
		engines:     engines,
		parser:      NewParser(logger),
		specialties: specialties,
		logger:      logger,
	}
}

// Compose generates a SOAP note. Engine failures are returned wrapped;
// unparseable output is not an error and yields a default-filled note.
func (c *Composer) Compose(ctx context.Context, in ComposeInput) (*Composition, error) {
	if strings.TrimSpace(in.Transcript) == "" {
		return nil, fmt.Errorf("%w: transcript is empty", usecaseErrors.ErrPrecondition)
	}

	specialty := strings.TrimSpace(in.Specialty)
	if specialty == "" {
		specialty = c.specialties.Default()
	}

	engine, err := c.engines.Generator(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve generation engine: %w", err)
	}

	prompt := BuildNotePrompt(in.Transcript, in.Entities, in.PatientContext, c.specialties.Focus(specialty))

	started := time.Now()
	resp, err := engine.Generate(ctx, ai.GenerateRequest{
		Prompt:       prompt,
		SystemPrompt: SystemPrompt,
		Temperature:  noteTemperature,
		MaxTokens:    noteMaxTokens,
	})
	elapsed := time.Since(started)
	if err != nil {
		return nil, fmt.Errorf("generate note: %w", err)
	}

	note, method := c.parser.ParseWithMethod(resp.Text, entities.AllSOAPFields)

	c.logger.Info("soap note generated",
		zap.String("model", resp.Model),
		zap.String("specialty", specialty),
		zap.String("parse_method", string(method)),
		zap.Int("prompt_tokens", resp.PromptTokens),
		zap.Int("completion_tokens", resp.CompletionTokens),
		zap.Duration("duration", elapsed),
	)

	return &Composition{
		Note: note,
		Meta: entities.GenerationMeta{
			Model:            resp.Model,
			PromptTokens:     resp.PromptTokens,
			CompletionTokens: resp.CompletionTokens,
			Duration:         elapsed,
			Specialty:        specialty,
		},
		Method: method,
	}, nil
}
