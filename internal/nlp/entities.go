package nlp

import (
	"regexp"

	"github.com/TrueDMGDev/FintechFinalProject/internal/domain"
)

var (
	moneyRe  = regexp.MustCompile(`(?i)(?:\$|€|£)\s?\d+(?:[.,]\d+)?(?:\s?(?:bn|billion|m|million|k|thousand))?`)
	tickerRe = regexp.MustCompile(`\b[A-Z]{1,5}\b`)
)

// FallbackEntities is the regex-based money/ticker heuristic used when no
// external entity-recognition model is available.
func FallbackEntities(text string) []domain.Entity {
	var ents []domain.Entity
	for _, m := range moneyRe.FindAllString(text, -1) {
		ents = append(ents, domain.Entity{Text: m, Label: "MONEY"})
	}
	// Very rough: all-caps tokens often correspond to tickers/ORG acronyms.
	for _, m := range tickerRe.FindAllString(text, -1) {
		if m == "A" || m == "I" {
			continue
		}
		ents = append(ents, domain.Entity{Text: m, Label: "ORG"})
	}
	return ents
}
