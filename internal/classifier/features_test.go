package classifier

import "testing"

func TestExtractFeaturesLength(t *testing.T) {
	for _, msg := range []string{"", "hola", "¿Qué es un ETF?", "¡Emergencia! Mi portafolio cayó 30%"} {
		v := ExtractFeatures(msg)
		if len(v) != FeatureCount {
			t.Errorf("ExtractFeatures(%q): len = %d, want %d", msg, len(v), FeatureCount)
		}
	}
}

func TestExtractFeaturesDeterministic(t *testing.T) {
	msg := "¿Me conviene invertir $10,000 en un ETF?"
	first := ExtractFeatures(msg)
	for i := 0; i < 3; i++ {
		got := ExtractFeatures(msg)
		for j := range got {
			if got[j] != first[j] {
				t.Fatalf("feature %d differs across calls: %v vs %v", j, got[j], first[j])
			}
		}
	}
}

func TestExtractFeaturesStructuralSignals(t *testing.T) {
	v := ExtractFeatures("¿Tengo $5,000 o mejor espero? ¡Dime!")

	if v[3] != 2 {
		t.Errorf("question marks = %v, want 2", v[3])
	}
	if v[4] != 2 {
		t.Errorf("exclamation marks = %v, want 2", v[4])
	}
	if v[5] != 1 {
		t.Errorf("digit flag = %v, want 1", v[5])
	}
	if v[6] != 1 {
		t.Errorf("currency flag = %v, want 1", v[6])
	}
}

func TestExtractFeaturesEmptyMessage(t *testing.T) {
	v := ExtractFeatures("")
	for i, f := range v {
		if f != 0 {
			t.Errorf("feature %d = %v for empty message, want 0", i, f)
		}
	}
}

func TestExtractFeaturesCategoryHits(t *testing.T) {
	// "qué es" and "cómo funciona" are both educational cues; accents
	// must fold before matching.
	v := ExtractFeatures("¿Qué es un ETF y cómo funciona?")
	if v[7] < 2 {
		t.Errorf("educational hits = %v, want >= 2", v[7])
	}

	v = ExtractFeatures("urgente, emergencia, pánico")
	if v[10] != 3 {
		t.Errorf("urgent hits = %v, want 3", v[10])
	}
}
