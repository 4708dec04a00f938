package soap

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSpecialty is used when a request names no specialty
const DefaultSpecialty = "Généraliste"

var builtinSpecialties = map[string]string{
	"Cardiologie": "Concentre-toi sur les antécédents cardiovasculaires, les facteurs de risque et les symptômes cardiaques.",
	"ORL":         "Détaille l'examen ORL (gorge, oreilles, nez) et les symptômes respiratoires hauts.",
	"Pédiatrie":   "Mentionne l'âge, le poids, la taille et le développement psychomoteur.",
	"Généraliste": "Approche globale, tous systèmes, prévention.",
}

// SpecialtyTable maps a specialty name to the focus text injected in prompts.
// Unknown names resolve to the fallback entry.
type SpecialtyTable struct {
	fallback string
	entries  map[string]string
}

type specialtyFile struct {
	Default     string            `yaml:"default"`
	Specialties map[string]string `yaml:"specialties"`
}

// NewSpecialtyTable returns the built-in table with fallback as default entry
func NewSpecialtyTable(fallback string) *SpecialtyTable {
	t := &SpecialtyTable{entries: make(map[string]string, len(builtinSpecialties))}
	for k, v := range builtinSpecialties {
		t.entries[k] = v
	}
	t.fallback = DefaultSpecialty
	if _, ok := t.lookup(fallback); ok {
		t.fallback = fallback
	}
	return t
}

// LoadSpecialtyFile overlays the YAML file at path onto the built-in table:
//
//	default: Généraliste
//	specialties:
//	  Dermatologie: "Décris précisément les lésions cutanées."
func LoadSpecialtyFile(path, fallback string) (*SpecialtyTable, error) {
	t := NewSpecialtyTable(fallback)
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read specialty file: %w", err)
	}
	var f specialtyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse specialty file %s: %w", path, err)
	}
	for name, focus := range f.Specialties {
		name, focus = strings.TrimSpace(name), strings.TrimSpace(focus)
		if name == "" || focus == "" {
			continue
		}
		t.entries[name] = focus
	}
	if f.Default != "" {
		if _, ok := t.lookup(f.Default); !ok {
			return nil, fmt.Errorf("specialty file %s: default %q has no entry", path, f.Default)
		}
		t.fallback = f.Default
	}
	return t, nil
}

// Focus returns the guidance text for name, or the fallback entry's text
func (t *SpecialtyTable) Focus(name string) string {
	if focus, ok := t.lookup(name); ok {
		return focus
	}
	focus, _ := t.lookup(t.fallback)
	return focus
}

// Has reports whether name has its own entry
func (t *SpecialtyTable) Has(name string) bool {
	_, ok := t.lookup(name)
	return ok
}

// Default returns the fallback specialty name
func (t *SpecialtyTable) Default() string {
	return t.fallback
}

func (t *SpecialtyTable) lookup(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	if focus, ok := t.entries[name]; ok {
		return focus, true
	}
	for k, v := range t.entries {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
