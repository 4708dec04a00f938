package soap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/medical-scribe/internal/usecase/errors"
)

// ParseMethod tells which strategy produced a parsed note
type ParseMethod string

const (
	ParseMethodJSON      ParseMethod = "json"
	ParseMethodHeuristic ParseMethod = "heuristic"
)

// Parser coerces free-form generation output into a SOAPNote.
// It never fails: the worst case is an all-default note carrying the raw text.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a new Parser instance
func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// Parse converts raw model output into a note with every required field set
func (p *Parser) Parse(raw string, required []entities.SOAPField) entities.SOAPNote {
	note, _ := p.ParseWithMethod(raw, required)
	return note
}

// ParseWithMethod is Parse, also reporting which strategy succeeded
func (p *Parser) ParseWithMethod(raw string, required []entities.SOAPField) (entities.SOAPNote, ParseMethod) {
	var (
		note   entities.SOAPNote
		method ParseMethod
	)

	body, ok := extractJSON(raw)
	if ok {
		decoded, err := decodeNote(body)
		if err == nil {
			note, method = decoded, ParseMethodJSON
		} else {
			p.logger.Warn("generation output is not valid JSON, falling back to section headers",
				zap.Error(fmt.Errorf("%w: %v", usecaseErrors.ErrMalformedOutput, err)),
				zap.Int("raw_length", len(raw)),
			)
		}
	} else {
		p.logger.Warn("generation output has no JSON object, falling back to section headers",
			zap.Error(usecaseErrors.ErrMalformedOutput),
			zap.Int("raw_length", len(raw)),
		)
	}
	if method == "" {
		note, method = parseSections(raw, required), ParseMethodHeuristic
	}

	applyDefaults(&note)
	note.RawText = raw
	return note, method
}

// extractJSON returns the text between the first '{' and the last '}'
func extractJSON(content string) (string, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return content[start : end+1], true
}

var jsonKeyAliases = map[string]entities.SOAPField{
	"subjective":            entities.FieldSubjective,
	"subjectif":             entities.FieldSubjective,
	"objective":             entities.FieldObjective,
	"objectif":              entities.FieldObjective,
	"assessment":            entities.FieldAssessment,
	"analyse":               entities.FieldAssessment,
	"analysis":              entities.FieldAssessment,
	"évaluation":            entities.FieldAssessment,
	"evaluation":            entities.FieldAssessment,
	"plan":                  entities.FieldPlan,
	"chief_complaint":       entities.FieldChiefComplaint,
	"chiefcomplaint":        entities.FieldChiefComplaint,
	"motif":                 entities.FieldChiefComplaint,
	"motif_consultation":    entities.FieldChiefComplaint,
	"motif_de_consultation": entities.FieldChiefComplaint,
	"allergies":             entities.FieldAllergies,
	"allergie":              entities.FieldAllergies,
	"medications":           entities.FieldMedications,
	"médicaments":           entities.FieldMedications,
	"medicaments":           entities.FieldMedications,
	"traitements":           entities.FieldMedications,
	"vital_signs":           entities.FieldVitalSigns,
	"vitals":                entities.FieldVitalSigns,
	"constantes":            entities.FieldVitalSigns,
	"signes_vitaux":         entities.FieldVitalSigns,
}

func normalizeKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	k = strings.ReplaceAll(k, " ", "_")
	return strings.ReplaceAll(k, "-", "_")
}

// decodeNote strictly decodes a JSON object, tolerating FR/EN keys and loose
// value shapes (lists as strings, numeric vital signs). String values are kept
// exactly as written; only the heuristic path trims.
func decodeNote(body string) (entities.SOAPNote, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return entities.SOAPNote{}, err
	}

	var note entities.SOAPNote
	for key, value := range fields {
		field, ok := jsonKeyAliases[normalizeKey(key)]
		if !ok {
			continue
		}
		switch {
		case field.IsListField():
			list := decodeList(value)
			if field == entities.FieldAllergies {
				note.Allergies = list
			} else {
				note.Medications = list
			}
		case field.IsMapField():
			note.VitalSigns = decodeVitals(value)
		default:
			note.SetSection(field, decodeText(value))
		}
	}
	return note, nil
}

func decodeText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []interface{}
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if item != nil {
				parts = append(parts, scalarString(item))
			}
		}
		return strings.Join(parts, "\n")
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func decodeList(raw json.RawMessage) []string {
	var list []interface{}
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, item := range list {
			if item != nil {
				out = append(out, scalarString(item))
			}
		}
		return out
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return splitList(s)
	}
	return []string{}
}

func decodeVitals(raw json.RawMessage) map[string]string {
	out := map[string]string{}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err == nil {
		for k, v := range obj {
			if v != nil {
				out[k] = scalarString(v)
			}
		}
		return out
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		for _, line := range strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == ',' || r == ';' }) {
			addVital(out, line)
		}
	}
	return out
}

func scalarString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// headerSynonyms lists, per field, the lower-cased section titles recognised
// by the line heuristic. Longer titles are matched first.
var headerSynonyms = map[entities.SOAPField][]string{
	entities.FieldSubjective:     {"subjectif", "subjective", "s"},
	entities.FieldObjective:      {"objectif", "objective", "examen clinique", "examen", "o"},
	entities.FieldAssessment:     {"analyse", "assessment", "diagnostic", "évaluation", "evaluation", "a"},
	entities.FieldPlan:           {"plan de traitement", "plan", "traitement", "p"},
	entities.FieldChiefComplaint: {"motif de consultation", "motif", "chief complaint"},
	entities.FieldAllergies:      {"allergies", "allergie"},
	entities.FieldMedications:    {"traitements en cours", "médicaments", "medicaments", "medications"},
	entities.FieldVitalSigns:     {"constantes", "signes vitaux", "vital signs"},
}

type headerPattern struct {
	field   entities.SOAPField
	synonym string
}

var (
	linePrefixCleaner = regexp.MustCompile(`^[\s#*\->•_]+`)
	parenthetical     = regexp.MustCompile(`^\s*\([^)]*\)`)
	bulletPrefix      = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)
)

func headerPatterns(required []entities.SOAPField) []headerPattern {
	patterns := make([]headerPattern, 0, 24)
	for _, field := range required {
		for _, syn := range headerSynonyms[field] {
			patterns = append(patterns, headerPattern{field: field, synonym: syn})
		}
	}
	// longest synonym first so "traitements en cours" wins over "traitement"
	for i := 1; i < len(patterns); i++ {
		for j := i; j > 0 && len(patterns[j].synonym) > len(patterns[j-1].synonym); j-- {
			patterns[j], patterns[j-1] = patterns[j-1], patterns[j]
		}
	}
	return patterns
}

// matchHeader reports whether line opens a section. Single-letter titles
// need a colon; longer ones may stand alone on their line.
func matchHeader(line string, patterns []headerPattern) (entities.SOAPField, string, bool) {
	cleaned := linePrefixCleaner.ReplaceAllString(line, "")
	lower := strings.ToLower(cleaned)

	for _, pt := range patterns {
		if !strings.HasPrefix(lower, pt.synonym) {
			continue
		}
		rest := cleaned[len(pt.synonym):]
		rest = parenthetical.ReplaceAllString(rest, "")
		rest = strings.TrimLeft(rest, " *_")

		if strings.HasPrefix(rest, ":") {
			return pt.field, strings.Trim(rest[1:], " *_"), true
		}
		if len(pt.synonym) > 1 && strings.TrimSpace(rest) == "" {
			return pt.field, "", true
		}
	}
	return "", "", false
}

// parseSections scans line by line, accumulating text under the last header seen
func parseSections(raw string, required []entities.SOAPField) entities.SOAPNote {
	patterns := headerPatterns(required)
	collected := make(map[entities.SOAPField][]string)

	var current entities.SOAPField
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if field, inline, ok := matchHeader(trimmed, patterns); ok {
			current = field
			if inline != "" {
				collected[field] = append(collected[field], inline)
			}
			continue
		}
		if current != "" {
			collected[current] = append(collected[current], trimmed)
		}
	}

	var note entities.SOAPNote
	for field, lines := range collected {
		switch {
		case field == entities.FieldAllergies:
			note.Allergies = linesToList(lines)
		case field == entities.FieldMedications:
			note.Medications = linesToList(lines)
		case field.IsMapField():
			note.VitalSigns = map[string]string{}
			for _, l := range lines {
				for _, part := range strings.Split(bulletPrefix.ReplaceAllString(l, ""), ",") {
					addVital(note.VitalSigns, part)
				}
			}
		default:
			note.SetSection(field, strings.Join(lines, "\n"))
		}
	}
	return note
}

func linesToList(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, splitList(bulletPrefix.ReplaceAllString(l, ""))...)
	}
	return out
}

func splitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' || r == '\n' })
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(bulletPrefix.ReplaceAllString(part, ""))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

var vitalKeyAliases = map[string]string{
	"température":         entities.VitalTemperature,
	"temperature":         entities.VitalTemperature,
	"temp":                entities.VitalTemperature,
	"tension":             entities.VitalBloodPressure,
	"tension artérielle":  entities.VitalBloodPressure,
	"ta":                  entities.VitalBloodPressure,
	"pa":                  entities.VitalBloodPressure,
	"blood pressure":      entities.VitalBloodPressure,
	"fc":                  entities.VitalHeartRate,
	"pouls":               entities.VitalHeartRate,
	"fréquence cardiaque": entities.VitalHeartRate,
	"heart rate":          entities.VitalHeartRate,
	"saturation":          entities.VitalOxygenSaturation,
	"spo2":                entities.VitalOxygenSaturation,
	"sao2":                entities.VitalOxygenSaturation,
}

func addVital(into map[string]string, line string) {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return
	}
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return
	}
	if canonical, ok := vitalKeyAliases[key]; ok {
		key = canonical
	} else {
		key = strings.ReplaceAll(key, " ", "_")
	}
	into[key] = value
}

// applyDefaults guarantees non-nil collections; text fields default to ""
func applyDefaults(note *entities.SOAPNote) {
	if note.Allergies == nil {
		note.Allergies = []string{}
	}
	if note.Medications == nil {
		note.Medications = []string{}
	}
	if note.VitalSigns == nil {
		note.VitalSigns = map[string]string{}
	}
}
