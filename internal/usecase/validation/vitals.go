package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
)

// numbers glued to letters, like the 2 of "SpO2", are not readings
var numberPattern = regexp.MustCompile(`(?:^|[^\p{L}\d.,])(\d+(?:[.,]\d+)?)`)

type vitalRange struct {
	key      string
	label    string
	min, max float64
	convert  func(float64) float64
}

var vitalRanges = []vitalRange{
	{key: entities.VitalTemperature, label: "température", min: 34, max: 43, convert: toCelsius},
	{key: entities.VitalHeartRate, label: "fréquence cardiaque", min: 25, max: 250},
	{key: entities.VitalOxygenSaturation, label: "saturation en oxygène", min: 50, max: 100},
}

// toCelsius converts readings that can only be Fahrenheit
func toCelsius(t float64) float64 {
	if t > 50 {
		return (t - 32) * 5 / 9
	}
	return t
}

// checkVitals warns about readings outside physiological bounds. The note's
// value wins; the transcript's is used when the note has none. Values that
// carry no number are left alone.
func checkVitals(note entities.SOAPNote, ents entities.ClinicalEntities) []string {
	reading := func(key string) string {
		if v := strings.TrimSpace(note.VitalSigns[key]); v != "" {
			return v
		}
		return strings.TrimSpace(ents.VitalSigns[key])
	}

	var warnings []string
	implausible := func(label, value string) {
		warnings = append(warnings, fmt.Sprintf("Valeur peu plausible pour %s: %s", label, value))
	}

	for _, r := range vitalRanges {
		value := reading(r.key)
		n, ok := firstNumber(value)
		if !ok {
			continue
		}
		if r.convert != nil {
			n = r.convert(n)
		}
		if n < r.min || n > r.max {
			implausible(r.label, value)
		}
	}

	if value := reading(entities.VitalBloodPressure); value != "" {
		if nums := numbers(value); len(nums) >= 2 {
			sys, dia := nums[0], nums[1]
			if sys < 50 || sys > 260 || dia < 25 || dia > 160 || sys <= dia {
				implausible("tension artérielle", value)
			}
		}
	}
	return warnings
}

func numbers(s string) []float64 {
	var out []float64
	for _, m := range numberPattern.FindAllStringSubmatch(s, -1) {
		n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err == nil {
			out = append(out, n)
		}
	}
	return out
}

func firstNumber(s string) (float64, bool) {
	nums := numbers(s)
	if len(nums) == 0 {
		return 0, false
	}
	return nums[0], true
}
