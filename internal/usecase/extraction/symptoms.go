package extraction

import (
	"strings"
	"unicode"
)

var symptomKeywords = map[string]struct{}{
	"douleur":      {},
	"mal":          {},
	"fièvre":       {},
	"toux":         {},
	"fatigue":      {},
	"nausée":       {},
	"vomissement":  {},
	"diarrhée":     {},
	"constipation": {},
	"vertige":      {},
	"céphalée":     {},
	"migraine":     {},
}

const symptomWindow = 2

// tokenize splits text into word tokens; punctuation is dropped
func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return false
		case r == '\'' || r == '’' || r == '-' || r == '°' || r == '%' || r == '/':
			return false
		}
		return true
	})
}

// isSymptomKeyword folds plurals ("douleurs", "maux") before matching
func isSymptomKeyword(token string) bool {
	t := strings.ToLower(token)
	if _, ok := symptomKeywords[t]; ok {
		return true
	}
	if t == "maux" {
		return true
	}
	if strings.HasSuffix(t, "s") {
		_, ok := symptomKeywords[strings.TrimSuffix(t, "s")]
		return ok
	}
	return false
}

// extractSymptoms captures each symptom keyword with two tokens of context
// on either side.
func extractSymptoms(text string) []string {
	tokens := tokenize(text)
	var out []string
	for i, tok := range tokens {
		if !isSymptomKeyword(tok) {
			continue
		}
		lo := i - symptomWindow
		if lo < 0 {
			lo = 0
		}
		hi := i + symptomWindow + 1
		if hi > len(tokens) {
			hi = len(tokens)
		}
		out = append(out, strings.Join(tokens[lo:hi], " "))
	}
	return out
}
