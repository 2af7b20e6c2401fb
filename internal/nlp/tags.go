package nlp

import (
	"sort"
	"strings"

	"github.com/TrueDMGDev/FintechFinalProject/internal/domain"
)

var financeKeywords = []string{
	"inflation",
	"interest rate",
	"rates",
	"fed",
	"ecb",
	"boe",
	"earnings",
	"revenue",
	"profit",
	"loss",
	"guidance",
	"ipo",
	"bond",
	"yield",
	"stocks",
	"equities",
	"market",
	"oil",
	"gold",
	"bitcoin",
	"crypto",
	"forex",
	"usd",
	"eur",
	"gdp",
	"recession",
	"merger",
	"acquisition",
	"m&a",
}

var urgencyCues = []string{"breaking", "just in", "urgent", "developing"}

// AutoTags derives topic tags from keywords and entities via fixed rules.
func AutoTags(keywords []string, entities []domain.Entity) []string {
	tags := map[string]bool{}

	kw := map[string]bool{}
	for _, k := range keywords {
		if k != "" {
			kw[strings.ToLower(k)] = true
		}
	}

	hasEarnings := kw["guidance"]
	for k := range kw {
		if strings.Contains(k, "earn") {
			hasEarnings = true
		}
	}
	if hasEarnings {
		tags["earnings"] = true
	}
	if kw["inflation"] {
		tags["macro"] = true
	}
	if kw["interest rate"] || kw["rates"] {
		tags["rates"] = true
	}
	if kw["oil"] || kw["gold"] {
		tags["commodities"] = true
	}
	if kw["bitcoin"] || kw["crypto"] {
		tags["crypto"] = true
	}
	if kw["forex"] || kw["usd"] || kw["eur"] {
		tags["fx"] = true
	}

	for _, e := range entities {
		switch e.Label {
		case "ORG":
			tags["companies"] = true
		case "GPE":
			tags["geography"] = true
		case "MONEY":
			tags["money"] = true
		}
	}

	out := make([]string, 0, len(tags))
	for t := range tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// BreakingScore estimates urgency/market-relevance of an article in [0, 1]
// from urgency cues, finance-term density, tag strength, and keyword count.
func BreakingScore(text string, tags, keywords []string) float64 {
	if text == "" {
		return 0.0
	}

	lower := strings.ToLower(text)
	score := 0.0

	for _, cue := range urgencyCues {
		if strings.Contains(lower, cue) {
			score += 0.35
			break
		}
	}

	hits := 0
	for _, k := range financeKeywords {
		if strings.Contains(lower, k) {
			hits++
		}
	}
	score += min(0.35, float64(hits)*0.05)

	tagSet := map[string]bool{}
	for _, t := range tags {
		tagSet[t] = true
	}
	if tagSet["rates"] || tagSet["macro"] || tagSet["earnings"] {
		score += 0.20
	}
	if tagSet["crypto"] || tagSet["commodities"] {
		score += 0.10
	}

	score += min(0.10, float64(len(keywords))*0.01)

	return max(0.0, min(1.0, score))
}
