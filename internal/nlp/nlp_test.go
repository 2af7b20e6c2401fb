package nlp

import (
	"testing"
)

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	got := NormalizeText("  one\ttwo\n\nthree   four ")
	if got != "one two three four" {
		t.Fatalf("unexpected normalization: %q", got)
	}
	if NormalizeText("   \n\t ") != "" {
		t.Fatal("whitespace-only input should normalize to empty")
	}
}

func TestKeywordsTFIDFAlignsWithInput(t *testing.T) {
	t.Parallel()

	texts := []string{
		"interest rates rise as inflation stays sticky and interest rates dominate headlines",
		"interest rates fall while oil prices and oil supply dominate headlines",
		"bitcoin rallies as crypto traders shrug off interest rates entirely",
	}

	lists := KeywordsTFIDF(texts, 5)

	if len(lists) != len(texts) {
		t.Fatalf("expected %d lists, got %d", len(texts), len(lists))
	}
	for i, kw := range lists {
		if len(kw) == 0 {
			t.Fatalf("document %d produced no keywords", i)
		}
		if len(kw) > 5 {
			t.Fatalf("document %d exceeded topK: %d", i, len(kw))
		}
	}
}

func TestKeywordsTFIDFEmptyInput(t *testing.T) {
	t.Parallel()

	if lists := KeywordsTFIDF(nil, 5); lists != nil {
		t.Fatalf("expected nil for empty input, got %v", lists)
	}
}

func TestKeywordsTFIDFNoSharedVocabulary(t *testing.T) {
	t.Parallel()

	// every term has df 1, so the min-df filter empties the vocabulary
	lists := KeywordsTFIDF([]string{"alpha beta", "gamma delta"}, 5)

	if len(lists) != 2 {
		t.Fatalf("expected 2 lists, got %d", len(lists))
	}
	for i, kw := range lists {
		if len(kw) != 0 {
			t.Fatalf("document %d should have no keywords, got %v", i, kw)
		}
	}
}

func TestFallbackEntities(t *testing.T) {
	t.Parallel()

	text := "IBM paid $5.2 billion while AAPL watched; I think a deal near €300m is next"
	ents := FallbackEntities(text)

	var money, orgs []string
	for _, e := range ents {
		switch e.Label {
		case "MONEY":
			money = append(money, e.Text)
		case "ORG":
			orgs = append(orgs, e.Text)
		}
	}

	if len(money) != 2 {
		t.Fatalf("expected 2 money spans, got %v", money)
	}
	hasIBM, hasAAPL := false, false
	for _, o := range orgs {
		if o == "I" || o == "A" {
			t.Fatalf("single-letter pronouns must be excluded, got %v", orgs)
		}
		if o == "IBM" {
			hasIBM = true
		}
		if o == "AAPL" {
			hasAAPL = true
		}
	}
	if !hasIBM || !hasAAPL {
		t.Fatalf("expected IBM and AAPL tickers, got %v", orgs)
	}
}

func TestFallbackEntitiesEmptyText(t *testing.T) {
	t.Parallel()

	if ents := FallbackEntities(""); len(ents) != 0 {
		t.Fatalf("expected no entities, got %v", ents)
	}
}
