// Package classifier is the lite-ML subsystem: it encodes messages as
// fixed-length feature vectors and predicts intent and response quality
// with a nearest-neighbor model trained from a bootstrap dataset plus
// accumulated user feedback. It runs beside the rule-based analyzer as
// a corroboration and telemetry signal — it never participates in
// handler routing.
package classifier

import (
	"strings"
	"unicode"
)

// FeatureCount is the fixed length of every feature vector.
const FeatureCount = 13

// Keyword category lists for the hit-count features. These are kept
// deliberately independent from the analyzer's rule tables: the point
// of the classifier is to cross-check the rules, so it must not share
// their inputs.
var featureCategories = [6][]string{
	// educational
	{"que es", "como funciona", "explica", "significa", "aprender", "entiendo"},
	// advisory
	{"deberia", "recomiendas", "conviene", "aconsejas", "debo", "invierto"},
	// analytical
	{"analiza", "rendimiento", "volatilidad", "sharpe", "metricas", "retorno"},
	// urgent
	{"urgente", "emergencia", "panico", "cayo", "desploma", "ayuda"},
	// strategic
	{"largo plazo", "jubilacion", "retiro", "estrategia", "plan", "futuro"},
	// comparative
	{"versus", " vs ", "compara", "mejor", "diferencia", "conviene mas"},
}

var featureFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u",
)

// ExtractFeatures converts a message into its feature vector. Pure and
// deterministic: identical input text always yields an identical
// vector. Layout:
//
//	0  character length / 100
//	1  word count / 10
//	2  average token length / 10
//	3  question mark count (? and ¿)
//	4  exclamation mark count (! and ¡)
//	5  contains a digit (0 or 1)
//	6  contains a currency marker (0 or 1)
//	7  educational keyword hits
//	8  advisory keyword hits
//	9  analytical keyword hits
//	10 urgent keyword hits
//	11 strategic keyword hits
//	12 comparative keyword hits
func ExtractFeatures(message string) []float64 {
	normalized := featureFolder.Replace(strings.ToLower(message))
	words := strings.Fields(normalized)

	v := make([]float64, FeatureCount)
	v[0] = float64(len([]rune(message))) / 100
	v[1] = float64(len(words)) / 10
	v[2] = averageTokenLength(words) / 10
	v[3] = float64(strings.Count(message, "?") + strings.Count(message, "¿"))
	v[4] = float64(strings.Count(message, "!") + strings.Count(message, "¡"))
	if strings.IndexFunc(message, unicode.IsDigit) >= 0 {
		v[5] = 1
	}
	if hasCurrencyMarker(normalized) {
		v[6] = 1
	}
	for i, cues := range featureCategories {
		v[7+i] = float64(countHits(normalized, cues))
	}

	return v
}

func averageTokenLength(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	total := 0
	for _, w := range words {
		total += len([]rune(w))
	}
	return float64(total) / float64(len(words))
}

func hasCurrencyMarker(normalized string) bool {
	if strings.ContainsAny(normalized, "$€") {
		return true
	}
	for _, marker := range []string{"pesos", "dolares", "usd", "mxn", "eur"} {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}

func countHits(normalized string, cues []string) int {
	n := 0
	for _, c := range cues {
		if strings.Contains(normalized, c) {
			n++
		}
	}
	return n
}
