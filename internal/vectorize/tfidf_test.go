package vectorize

import (
	"math"
	"testing"
)

var unigrams = NgramRange{Lo: 1, Hi: 1}
var uniBigrams = NgramRange{Lo: 1, Hi: 2}

func TestFitIsDeterministic(t *testing.T) {
	t.Parallel()

	texts := []string{
		"markets rally as rates fall",
		"rates fall and markets cheer",
		"oil prices climb while markets watch",
	}

	a := Fit(texts, 0, uniBigrams, 2)
	b := Fit(texts, 0, uniBigrams, 2)

	if len(a.Terms) != len(b.Terms) {
		t.Fatalf("vocab sizes differ: %d vs %d", len(a.Terms), len(b.Terms))
	}
	for i := range a.Terms {
		if a.Terms[i] != b.Terms[i] {
			t.Fatalf("column %d differs: %q vs %q", i, a.Terms[i], b.Terms[i])
		}
	}
}

func TestFitDropsTermsBelowMinDF(t *testing.T) {
	t.Parallel()

	texts := []string{
		"shared term appears here",
		"shared term appears again",
		"unique snowflake",
	}

	model := Fit(texts, 0, unigrams, 2)

	if _, ok := model.Vocab["shared"]; !ok {
		t.Fatal("expected frequent term in vocab")
	}
	if _, ok := model.Vocab["snowflake"]; ok {
		t.Fatal("term below min df must be dropped")
	}
}

func TestFitCapsFeaturesByDocumentFrequency(t *testing.T) {
	t.Parallel()

	texts := []string{
		"alpha beta gamma",
		"alpha beta delta",
		"alpha epsilon zeta",
	}

	model := Fit(texts, 1, unigrams, 2)

	if len(model.Terms) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(model.Terms))
	}
	if model.Terms[0] != "alpha" {
		t.Fatalf("expected highest-df term kept, got %q", model.Terms[0])
	}
}

func TestFitEmitsBigrams(t *testing.T) {
	t.Parallel()

	texts := []string{
		"interest rates rise",
		"interest rates fall",
	}

	model := Fit(texts, 0, uniBigrams, 2)

	if _, ok := model.Vocab["interest rates"]; !ok {
		t.Fatal("expected bigram in vocab")
	}
}

func TestTransformRowsAreUnitLength(t *testing.T) {
	t.Parallel()

	texts := []string{
		"markets rally as rates fall today",
		"rates fall and markets rally hard",
	}

	model := Fit(texts, 0, unigrams, 2)
	rows := Transform(texts, model, unigrams)

	for i, row := range rows {
		norm := math.Sqrt(Dot(row, row))
		if math.Abs(norm-1.0) > 1e-9 {
			t.Fatalf("row %d norm = %f, want 1", i, norm)
		}
	}
}

func TestTransformOutOfVocabularyRowStaysZero(t *testing.T) {
	t.Parallel()

	texts := []string{
		"markets rally today",
		"markets rally again",
	}
	model := Fit(texts, 0, unigrams, 2)

	rows := Transform([]string{"completely unrelated words"}, model, unigrams)
	if norm := Dot(rows[0], rows[0]); norm != 0 {
		t.Fatalf("expected zero row, got norm %f", norm)
	}
}

func TestIdenticalDocumentsHaveCosineOne(t *testing.T) {
	t.Parallel()

	text := "the central bank raised interest rates by a quarter point"
	texts := []string{text, text}

	model := Fit(texts, 0, uniBigrams, 2)
	rows := Transform(texts, model, uniBigrams)

	if sim := Dot(rows[0], rows[1]); math.Abs(sim-1.0) > 1e-9 {
		t.Fatalf("identical documents should have similarity 1, got %f", sim)
	}
}
