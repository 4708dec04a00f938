// Package letter drafts referral letters from a composed note.
package letter

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
	"github.com/johnquangdev/medical-scribe/pkg/ai"
)

const (
	letterTemperature = 0.4
	letterMaxTokens   = 1500

	DefaultSpecialty   = "Spécialiste"
	DefaultPatientName = "Patient"
	DefaultDoctorName  = "Dr. Médecin Traitant"
	DefaultLetterType  = "adressage"
)

// SystemPrompt frames the letter generation call
const SystemPrompt = "Tu es un assistant médical expert en rédaction de correspondance médicale professionnelle."

var closingPhrases = []string{"cordialement", "salutations", "bien à vous"}

// GeneratorProvider resolves the generation engine; *ai.Registry implements it
type GeneratorProvider interface {
	Generator(ctx context.Context) (ai.GenerationEngine, error)
}

// Request describes the letter to write. Empty fields take defaults.
type Request struct {
	Specialty   string `json:"specialty"`
	PatientName string `json:"patient_name"`
	DoctorName  string `json:"doctor_name"`
	LetterType  string `json:"letter_type"`
}

func (r Request) withDefaults() Request {
	r.Specialty = orDefault(r.Specialty, DefaultSpecialty)
	r.PatientName = orDefault(r.PatientName, DefaultPatientName)
	r.DoctorName = orDefault(r.DoctorName, DefaultDoctorName)
	r.LetterType = orDefault(r.LetterType, DefaultLetterType)
	return r
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

// Composer generates and normalises referral letters
type Composer struct {
	engines GeneratorProvider
	now     func() time.Time
	logger  *zap.Logger
}

// ComposerOption configures a Composer
type ComposerOption func(*Composer)

// WithClock overrides the clock used for the letter date
func WithClock(now func() time.Time) ComposerOption {
	return func(c *Composer) { c.now = now }
}

// NewComposer creates a letter composer
func NewComposer(engines GeneratorProvider, logger *zap.Logger, opts ...ComposerOption) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Composer{engines: engines, now: time.Now, logger: logger}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Compose writes a letter for note. The result always ends with a closing
// and carries a date near the top, whatever the model produced.
func (c *Composer) Compose(ctx context.Context, note entities.SOAPNote, req Request) (*entities.GeneratedLetter, error) {
	req = req.withDefaults()

	engine, err := c.engines.Generator(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve generation engine: %w", err)
	}

	started := time.Now()
	resp, err := engine.Generate(ctx, ai.GenerateRequest{
		Prompt:       buildPrompt(note, req),
		SystemPrompt: SystemPrompt,
		Temperature:  letterTemperature,
		MaxTokens:    letterMaxTokens,
	})
	elapsed := time.Since(started)
	if err != nil {
		return nil, fmt.Errorf("generate letter: %w", err)
	}

	body := finalize(resp.Text, req.DoctorName, c.now())

	c.logger.Info("referral letter generated",
		zap.String("model", resp.Model),
		zap.String("specialty", req.Specialty),
		zap.String("letter_type", req.LetterType),
		zap.Duration("duration", elapsed),
	)

	return &entities.GeneratedLetter{
		Body:                  body,
		Specialty:             req.Specialty,
		LetterType:            req.LetterType,
		PatientName:           req.PatientName,
		DoctorName:            req.DoctorName,
		ModelUsed:             resp.Model,
		GenerationTimeSeconds: elapsed.Seconds(),
		GeneratedAt:           c.now(),
	}, nil
}

func buildPrompt(note entities.SOAPNote, req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rédige une lettre d'%s destinée à un confrère (%s) à partir de la note de consultation suivante.\n\n", req.LetterType, req.Specialty)

	b.WriteString("NOTE SOAP:\n")
	fmt.Fprintf(&b, "Subjectif: %s\n", note.Subjective)
	fmt.Fprintf(&b, "Objectif: %s\n", note.Objective)
	fmt.Fprintf(&b, "Analyse: %s\n", note.Assessment)
	fmt.Fprintf(&b, "Plan: %s\n\n", note.Plan)

	fmt.Fprintf(&b, "Spécialité: %s\n", req.Specialty)
	fmt.Fprintf(&b, "Type de lettre: %s\n\n", req.LetterType)

	b.WriteString("PATIENT:\n")
	fmt.Fprintf(&b, "Patient: %s\n", req.PatientName)
	fmt.Fprintf(&b, "Motif: %s\n\n", note.ChiefComplaint)

	b.WriteString("La lettre doit être courtoise, structurée et concise. ")
	fmt.Fprintf(&b, "Elle est signée par %s.", req.DoctorName)
	return b.String()
}

// finalize appends a closing when none is present, then prepends the date
// when "date" does not appear in the first 100 characters.
func finalize(raw, doctor string, now time.Time) string {
	text := strings.TrimSpace(raw)

	lower := strings.ToLower(text)
	hasClosing := false
	for _, phrase := range closingPhrases {
		if strings.Contains(lower, phrase) {
			hasClosing = true
			break
		}
	}
	if !hasClosing {
		text += "\n\nBien cordialement,\n" + doctor
	}

	if !strings.Contains(firstRunes(strings.ToLower(text), 100), "date") {
		text = "Le " + now.Format("02/01/2006") + "\n\n" + text
	}
	return text
}

func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
