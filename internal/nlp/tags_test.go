package nlp

import (
	"testing"

	"github.com/TrueDMGDev/FintechFinalProject/internal/domain"
)

func TestAutoTags(t *testing.T) {
	t.Parallel()

	keywords := []string{"inflation", "bitcoin", "earnings call"}
	entities := []domain.Entity{
		{Text: "IBM", Label: "ORG"},
		{Text: "$5bn", Label: "MONEY"},
	}

	tags := AutoTags(keywords, entities)

	want := map[string]bool{
		"macro": true, "crypto": true, "earnings": true,
		"companies": true, "money": true,
	}
	if len(tags) != len(want) {
		t.Fatalf("unexpected tags: %v", tags)
	}
	for _, tag := range tags {
		if !want[tag] {
			t.Fatalf("unexpected tag %q in %v", tag, tags)
		}
	}

	// sorted output
	for i := 1; i < len(tags); i++ {
		if tags[i-1] > tags[i] {
			t.Fatalf("tags not sorted: %v", tags)
		}
	}
}

func TestAutoTagsEmptyInput(t *testing.T) {
	t.Parallel()

	if tags := AutoTags(nil, nil); len(tags) != 0 {
		t.Fatalf("expected no tags, got %v", tags)
	}
}

func TestBreakingScoreEmptyText(t *testing.T) {
	t.Parallel()

	if s := BreakingScore("", []string{"rates"}, []string{"rates"}); s != 0 {
		t.Fatalf("empty text must score 0, got %f", s)
	}
}

func TestBreakingScoreUrgentFinanceStory(t *testing.T) {
	t.Parallel()

	text := "Breaking: the Fed raised interest rates as inflation and bond yields surged, hitting stocks and the market broadly"
	tags := []string{"rates", "macro"}
	keywords := []string{"fed", "rates", "inflation", "yields", "stocks"}

	score := BreakingScore(text, tags, keywords)

	if score < 0.6 {
		t.Fatalf("urgent finance story should score high, got %f", score)
	}
	if score > 1 {
		t.Fatalf("score must be clamped to 1, got %f", score)
	}
}

func TestBreakingScoreMundaneStory(t *testing.T) {
	t.Parallel()

	text := "The local bakery opened a second shop on the high street this weekend"
	score := BreakingScore(text, nil, nil)

	if score > 0.2 {
		t.Fatalf("mundane story should score low, got %f", score)
	}
}

func TestBreakingScoreUrgencyCueCountsOnce(t *testing.T) {
	t.Parallel()

	once := BreakingScore("breaking story about nothing else", nil, nil)
	twice := BreakingScore("breaking urgent story about nothing else", nil, nil)

	if once != twice {
		t.Fatalf("multiple cues must not stack: %f vs %f", once, twice)
	}
}
