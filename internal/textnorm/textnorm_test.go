package textnorm_test

import (
	"reflect"
	"testing"

	"github.com/clcruickshank2/datenight/internal/textnorm"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Date-Night":            "date night",
		"date night":            "date night",
		"  Gluten-Free!! ":      "gluten free",
		"Café Brazil":           "cafe brazil",
		"Chef's\tCounter\n":     "chefs counter",
		"$$ under budget":       "under budget",
		"":                      "",
		"---":                   "",
		"Sushi & Sake -- Bar":   "sushi sake bar",
		"RiNo (River North)":    "rino river north",
	}
	for in, want := range cases {
		if got := textnorm.Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"Date-Night", "  MIXED case -- tags ", "Crème brûlée", "a-b-c", "tabs\tand\nnewlines",
		"ÆON Flux", "100% agave", "ﬁne dining", "--leading", "ＦＵＬＬ width",
	}
	for _, in := range inputs {
		once := textnorm.Normalize(in)
		if twice := textnorm.Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestUniquePhrases(t *testing.T) {
	t.Parallel()

	got := textnorm.UniquePhrases([]string{"Romantic", "date-night", "", "Date Night", "  ", "romantic", "Patio"})
	want := []string{"romantic", "date night", "patio"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("UniquePhrases = %v, want %v", got, want)
	}
}

func TestContainsPhrase(t *testing.T) {
	t.Parallel()

	text := "sushi den platt park omakase counter"
	if !textnorm.ContainsPhrase(text, "omakase") {
		t.Fatal("expected omakase to match")
	}
	if !textnorm.ContainsPhrase(text, "platt park") {
		t.Fatal("expected multi-word phrase to match")
	}
	if textnorm.ContainsPhrase(text, "den platt parking") {
		t.Fatal("unexpected partial-word match")
	}
	if textnorm.ContainsPhrase(text, "") {
		t.Fatal("empty phrase must not match")
	}
}
