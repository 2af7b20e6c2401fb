package usecase

import (
	"fmt"
	"strings"

	"github.com/TrueDMGDev/FintechFinalProject/internal/config"
	"github.com/TrueDMGDev/FintechFinalProject/internal/domain"
)

// IsBreaking reports whether an article clears the configured breaking
// threshold. Duplicates are never breaking.
func IsBreaking(cfg config.BreakingConfig, a domain.Article) bool {
	if !cfg.Enabled {
		return false
	}
	if a.IsDuplicate {
		return false
	}
	return a.Score >= cfg.MinScore
}

// BreakingDigest formats breaking articles into one notification message.
// Returns "" when there is nothing to report.
func BreakingDigest(articles []domain.Article) string {
	var b strings.Builder
	for _, a := range articles {
		fmt.Fprintf(&b, "- %s\nScore: %.2f\n%s\n\n", a.Title, a.Score, a.URL)
	}
	return strings.TrimSpace(b.String())
}
