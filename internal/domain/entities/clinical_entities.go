package entities

import "strings"

// Vital-sign keys produced by the extractor
const (
	VitalTemperature      = "temperature"
	VitalBloodPressure    = "blood_pressure"
	VitalHeartRate        = "heart_rate"
	VitalOxygenSaturation = "oxygen_saturation"
)

// ClinicalEntities is the bundle of medical entities found in a transcript.
// It is transient: built by the extractor and consumed by note composition
// and validation.
type ClinicalEntities struct {
	Symptoms       []string          `json:"symptoms"`
	Diagnoses      []string          `json:"diagnoses"`
	Medications    []string          `json:"medications"`
	Allergies      []string          `json:"allergies"`
	MedicalHistory []string          `json:"medical_history"`
	Examinations   []string          `json:"examinations"`
	VitalSigns     map[string]string `json:"vital_signs"`
}

// NewClinicalEntities returns an empty bundle with non-nil collections
func NewClinicalEntities() ClinicalEntities {
	return ClinicalEntities{
		Symptoms:       []string{},
		Diagnoses:      []string{},
		Medications:    []string{},
		Allergies:      []string{},
		MedicalHistory: []string{},
		Examinations:   []string{},
		VitalSigns:     map[string]string{},
	}
}

// Normalize trims every string, drops empty ones and removes duplicates,
// keeping the first occurrence order.
func (e *ClinicalEntities) Normalize() {
	e.Symptoms = DedupeTrimmed(e.Symptoms)
	e.Diagnoses = DedupeTrimmed(e.Diagnoses)
	e.Medications = DedupeTrimmed(e.Medications)
	e.Allergies = DedupeTrimmed(e.Allergies)
	e.MedicalHistory = DedupeTrimmed(e.MedicalHistory)
	e.Examinations = DedupeTrimmed(e.Examinations)
	if e.VitalSigns == nil {
		e.VitalSigns = map[string]string{}
	}
	for k, v := range e.VitalSigns {
		v = strings.TrimSpace(v)
		if v == "" {
			delete(e.VitalSigns, k)
			continue
		}
		e.VitalSigns[k] = v
	}
}

// Count returns the total number of extracted items
func (e *ClinicalEntities) Count() int {
	return len(e.Symptoms) + len(e.Diagnoses) + len(e.Medications) + len(e.Allergies) +
		len(e.MedicalHistory) + len(e.Examinations) + len(e.VitalSigns)
}

// DedupeTrimmed trims items, drops empty ones and keeps the first of each
// duplicate. The result is never nil.
func DedupeTrimmed(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
