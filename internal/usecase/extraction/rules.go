package extraction

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
)

// Allergy patterns run over lower-cased text.
var allergyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`allergi(?:que|e)?s?\s+(?:à|au|aux)\s+([a-zàâäçéèêëîïôöùûü\s'’-]+)`),
	regexp.MustCompile(`allergi(?:que|e)?s?\s*:\s*([a-zàâäçéèêëîïôöùûü\s'’-]+)`),
	regexp.MustCompile(`ne\s+(?:peut|doit)\s+pas\s+prendre\s+(?:de\s+|d['’]\s*)?([a-zàâäçéèêëîïôöùûü\s'’-]+)`),
	regexp.MustCompile(`intoléran(?:ce|t|te)\s+(?:à|au|aux)\s+([a-zàâäçéèêëîïôöùûü\s'’-]+)`),
}

var (
	standaloneEt   = regexp.MustCompile(`(?:^|\s)et(?:\s|$)`)
	leadingArticle = regexp.MustCompile(`^(?:(?:la|le|les|du|de|des|un|une)\s+|(?:l|d)['’]\s*)`)
)

// extractAllergies returns capitalised allergen names in order of appearance
func extractAllergies(lower string) []string {
	var out []string
	for _, re := range allergyPatterns {
		for _, m := range re.FindAllStringSubmatch(lower, -1) {
			if name := cleanAllergen(m[1]); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

func cleanAllergen(capture string) string {
	s := capture
	if i := strings.Index(s, ","); i >= 0 {
		s = s[:i]
	}
	if loc := standaloneEt.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	s = strings.TrimSpace(s)
	for {
		stripped := strings.TrimSpace(leadingArticle.ReplaceAllString(s, ""))
		if stripped == s {
			break
		}
		s = stripped
	}
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= 2 {
		return ""
	}
	return capitalize(s)
}

// Vital-sign patterns run over lower-cased text. Each keyword must start at
// a non-letter boundary so that "et 3" never reads as a temperature.
var (
	temperaturePattern = regexp.MustCompile(`(?:^|[^\p{L}])(?:température|temp|t°?)\s*:?\s*(\d{2}(?:[.,]\d+)?)\s*°?\s*c?`)
	bloodPressurePat   = regexp.MustCompile(`(?:^|[^\p{L}])(?:tension(?:\s+artérielle)?|ta|pa)\s*:?\s*(?:à\s*|de\s*)?(\d{2,3})\s*/\s*(\d{2,3})`)
	heartRatePattern   = regexp.MustCompile(`(?:^|[^\p{L}])(?:fréquence\s+cardiaque|fc|pouls)\s*:?\s*(?:à\s*|de\s*)?(\d{2,3})`)
	saturationPattern  = regexp.MustCompile(`(?:^|[^\p{L}])(?:saturation|spo2|sao2)\s*:?\s*(?:à\s*|de\s*)?(\d{2,3})\s*%?`)
)

// extractVitalSigns returns the first reading of each vital sign with
// canonical units.
func extractVitalSigns(lower string) map[string]string {
	vitals := map[string]string{}
	if m := temperaturePattern.FindStringSubmatch(lower); m != nil {
		vitals[entities.VitalTemperature] = strings.ReplaceAll(m[1], ",", ".") + "°C"
	}
	if m := bloodPressurePat.FindStringSubmatch(lower); m != nil {
		vitals[entities.VitalBloodPressure] = m[1] + "/" + m[2] + " mmHg"
	}
	if m := heartRatePattern.FindStringSubmatch(lower); m != nil {
		vitals[entities.VitalHeartRate] = m[1] + " bpm"
	}
	if m := saturationPattern.FindStringSubmatch(lower); m != nil {
		vitals[entities.VitalOxygenSaturation] = m[1] + "%"
	}
	return vitals
}

var commonMedications = []string{
	"paracétamol",
	"ibuprofène",
	"aspirine",
	"doliprane",
	"amoxicilline",
	"pénicilline",
	"antibiotique",
	"anti-inflammatoire",
	"antalgique",
	"corticoïde",
}

var (
	prescriptionPattern = regexp.MustCompile(`(?i:prendre|prescrire|donner)\s+(?:(?i:de|du|des)\s+)?([A-ZÀÂÇÉÈÊÎÔÙa-zàâäçéèêëîïôöùûü]+(?:\s+\d+\s*(?:mg|g|ml)?)?)`)
	prescriptionNoise   = map[string]struct{}{"fois": {}, "jour": {}, "soir": {}, "matin": {}}
)

// extractMedications combines the fixed vocabulary with "prescribe X" phrases
func extractMedications(text, lower string) []string {
	var out []string
	for _, med := range commonMedications {
		if strings.Contains(lower, med) {
			out = append(out, capitalize(med))
		}
	}
	for _, m := range prescriptionPattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if utf8.RuneCountInString(name) <= 3 {
			continue
		}
		word := strings.ToLower(strings.Fields(name)[0])
		if _, noise := prescriptionNoise[word]; noise {
			continue
		}
		out = append(out, capitalize(name))
	}
	return out
}

// capitalize upper-cases the first rune and lower-cases the rest
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
