package presenter

import (
	"github.com/johnquangdev/medical-scribe/internal/adapter/dto/note"
	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
)

// ToMedicalNoteResponse converts a MedicalNote entity to its DTO
func ToMedicalNoteResponse(n *entities.MedicalNote) *note.MedicalNoteResponse {
	if n == nil {
		return nil
	}
	soap := n.SOAP()
	return &note.MedicalNoteResponse{
		ID:                    n.ID.String(),
		RecordingID:           n.RecordingID.String(),
		Subjective:            soap.Subjective,
		Objective:             soap.Objective,
		Assessment:            soap.Assessment,
		Plan:                  soap.Plan,
		ChiefComplaint:        soap.ChiefComplaint,
		Allergies:             soap.Allergies,
		Medications:           soap.Medications,
		VitalSigns:            soap.VitalSigns,
		Specialty:             n.Specialty,
		ModelUsed:             n.ModelUsed,
		PromptTokens:          n.PromptTokens,
		CompletionTokens:      n.CompletionTokens,
		TokensUsed:            n.TokensUsed,
		GenerationTimeSeconds: n.GenerationTimeSeconds,
		ValidationStatus:      string(n.ValidationStatus),
		ValidationNotes:       nonNil(n.ValidationNotes),
		CreatedAt:             n.CreatedAt,
		UpdatedAt:             n.UpdatedAt,
	}
}

// ToLetterResponse converts a generated letter to its DTO
func ToLetterResponse(l *entities.GeneratedLetter) *note.LetterResponse {
	if l == nil {
		return nil
	}
	return &note.LetterResponse{
		Letter:                l.Body,
		Specialty:             l.Specialty,
		LetterType:            l.LetterType,
		PatientName:           l.PatientName,
		DoctorName:            l.DoctorName,
		ModelUsed:             l.ModelUsed,
		GenerationTimeSeconds: l.GenerationTimeSeconds,
		GeneratedAt:           l.GeneratedAt,
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
