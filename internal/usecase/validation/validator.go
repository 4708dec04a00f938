// Package validation checks a composed note for completeness, for
// allergy/medication clashes and for implausible vital signs. Its output is
// advisory.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
)

// MinSectionLength is the rune count under which a section draws a suggestion
const MinSectionLength = 20

var sectionLabels = map[entities.SOAPField]string{
	entities.FieldSubjective: "Subjectif",
	entities.FieldObjective:  "Objectif",
	entities.FieldAssessment: "Analyse",
	entities.FieldPlan:       "Plan",
}

// Validator applies completeness, conflict, vital sign and length rules in that order
type Validator struct{}

// NewValidator creates a Validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks note. The allergy/medication check is a plain substring
// match in either direction: it flags "pénicilline" against "pénicilline
// 500mg" but not against "amoxicilline". Vital signs missing from the note
// are taken from ents.
func (v *Validator) Validate(note entities.SOAPNote, ents entities.ClinicalEntities) entities.ValidationResult {
	result := entities.ValidationResult{
		Valid:       true,
		Errors:      []string{},
		Warnings:    []string{},
		Suggestions: []string{},
	}

	for _, field := range entities.NarrativeFields {
		if strings.TrimSpace(note.Section(field)) == "" {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Section %s vide", sectionLabels[field]))
		}
	}

	for _, allergy := range note.Allergies {
		a := strings.ToLower(strings.TrimSpace(allergy))
		if a == "" {
			continue
		}
		for _, med := range note.Medications {
			m := strings.ToLower(strings.TrimSpace(med))
			if m == "" {
				continue
			}
			if strings.Contains(m, a) || strings.Contains(a, m) {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("Conflit potentiel: allergie à %s et prescription de %s", allergy, med))
			}
		}
	}

	result.Warnings = append(result.Warnings, checkVitals(note, ents)...)

	for _, field := range entities.NarrativeFields {
		text := strings.TrimSpace(note.Section(field))
		if text != "" && utf8.RuneCountInString(text) < MinSectionLength {
			result.Suggestions = append(result.Suggestions,
				fmt.Sprintf("Section %s très courte, envisager de la compléter", sectionLabels[field]))
		}
	}

	return result
}
