package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
	"github.com/johnquangdev/medical-scribe/pkg/ai"
)

type fakeTagger struct {
	tags []ai.Tag
	err  error
}

func (f fakeTagger) Tag(ctx context.Context, text string) ([]ai.Tag, error) {
	return f.tags, f.err
}

type taggerProvider struct {
	engine ai.NEREngine
	err    error
}

func (p taggerProvider) Tagger(ctx context.Context) (ai.NEREngine, error) {
	return p.engine, p.err
}

func TestExtract_AllergiesAndVitals(t *testing.T) {
	ents := NewExtractor(nil, nil).Extract(context.Background(),
		"Patient allergique à la pénicilline, température 38,5°C, tension 120/80")

	assert.Contains(t, ents.Allergies, "Pénicilline")
	assert.Equal(t, "38.5°C", ents.VitalSigns[entities.VitalTemperature])
	assert.Equal(t, "120/80 mmHg", ents.VitalSigns[entities.VitalBloodPressure])
}

func TestExtract_VitalSignVariants(t *testing.T) {
	tests := []struct {
		name string
		text string
		key  string
		want string
	}{
		{"temperature with dot", "Temp: 37.8", entities.VitalTemperature, "37.8°C"},
		{"temperature integer", "t° 39 ce matin", entities.VitalTemperature, "39°C"},
		{"blood pressure ta", "TA : 135 / 85", entities.VitalBloodPressure, "135/85 mmHg"},
		{"heart rate fc", "FC 72", entities.VitalHeartRate, "72 bpm"},
		{"heart rate pouls", "pouls à 110", entities.VitalHeartRate, "110 bpm"},
		{"saturation", "SpO2 97%", entities.VitalOxygenSaturation, "97%"},
		{"saturation no unit", "saturation 94", entities.VitalOxygenSaturation, "94%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ents := NewExtractor(nil, nil).Extract(context.Background(), tt.text)
			assert.Equal(t, tt.want, ents.VitalSigns[tt.key])
		})
	}
}

func TestExtract_NoFalseTemperatureInsideWords(t *testing.T) {
	ents := NewExtractor(nil, nil).Extract(context.Background(), "il a pris froid et 38 personnes")
	_, ok := ents.VitalSigns[entities.VitalTemperature]
	assert.False(t, ok)
}

func TestExtract_AllergyForms(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Elle est allergique aux arachides et au latex", []string{"Arachides"}},
		{"Allergies : aspirine, iode", []string{"Aspirine"}},
		{"Il ne peut pas prendre d'ibuprofène", []string{"Ibuprofène"}},
		{"intolérance au lactose connue", []string{"Lactose connue"}},
		{"allergique à l'amoxicilline", []string{"Amoxicilline"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			ents := NewExtractor(nil, nil).Extract(context.Background(), tt.text)
			assert.Equal(t, tt.want, ents.Allergies)
		})
	}
}

func TestExtract_EtSplitIsWholeWord(t *testing.T) {
	ents := NewExtractor(nil, nil).Extract(context.Background(), "allergique aux betteraves")
	assert.Equal(t, []string{"Betteraves"}, ents.Allergies)
}

func TestExtract_Medications(t *testing.T) {
	ents := NewExtractor(nil, nil).Extract(context.Background(),
		"Je vais vous donner du Doliprane 1000 et prendre de l'ibuprofène. Prendre 2 fois par jour, donner matin.")

	assert.Contains(t, ents.Medications, "Doliprane")
	assert.Contains(t, ents.Medications, "Ibuprofène")
	assert.Contains(t, ents.Medications, "Doliprane 1000")
	for _, m := range ents.Medications {
		assert.NotEqual(t, "Matin", m)
	}
}

func TestExtract_Symptoms(t *testing.T) {
	ents := NewExtractor(nil, nil).Extract(context.Background(),
		"Depuis hier, j'ai des maux de tête terribles. Beaucoup de toux, et des douleurs.")

	assert.Equal(t, []string{
		"j'ai des maux de tête",
		"Beaucoup de toux et des",
		"et des douleurs",
	}, ents.Symptoms)
}

func TestExtract_NERTagsMerged(t *testing.T) {
	tagger := fakeTagger{tags: []ai.Tag{
		{Type: ai.TagDisease, Text: "angine"},
		{Type: ai.TagChemical, Text: "Amoxicilline"},
		{Type: "gene", Text: "BRCA1"},
		{Type: ai.TagDisease, Text: " angine "},
	}}
	ents := NewExtractor(taggerProvider{engine: tagger}, nil).Extract(context.Background(),
		"Suspicion d'angine, on commence l'amoxicilline.")

	assert.Equal(t, []string{"angine"}, ents.Diagnoses)
	assert.Equal(t, []string{"Amoxicilline"}, ents.Medications)
}

func TestExtract_TaggerFailureDegrades(t *testing.T) {
	providers := []TaggerProvider{
		taggerProvider{err: ai.ErrEngineUnavailable},
		taggerProvider{engine: fakeTagger{err: errors.New("boom")}},
	}
	for _, p := range providers {
		ents := NewExtractor(p, nil).Extract(context.Background(), "fièvre, paracétamol")
		assert.Empty(t, ents.Diagnoses)
		assert.Equal(t, []string{"Paracétamol"}, ents.Medications)
	}
}

func TestExtract_EmptyInput(t *testing.T) {
	ents := NewExtractor(nil, nil).Extract(context.Background(), "   ")

	require.NotNil(t, ents.Symptoms)
	require.NotNil(t, ents.VitalSigns)
	assert.Zero(t, ents.Count())
}

func TestExtract_NoEmptyOrDuplicateItems(t *testing.T) {
	ents := NewExtractor(nil, nil).Extract(context.Background(),
		"aspirine aspirine, allergique à la pénicilline, allergique à la pénicilline")

	assert.Equal(t, []string{"Pénicilline"}, ents.Allergies)
	assert.Equal(t, []string{"Aspirine", "Pénicilline"}, ents.Medications)
	for _, list := range [][]string{ents.Symptoms, ents.Allergies, ents.Medications} {
		for _, item := range list {
			assert.NotEmpty(t, item)
		}
	}
}
