package nlp

import (
	"regexp"
	"sort"
	"strings"

	"github.com/TrueDMGDev/FintechFinalProject/internal/vectorize"
)

const (
	keywordMaxFeatures = 5000
	keywordMinDF       = 2
)

var keywordNgrams = vectorize.NgramRange{Lo: 1, Hi: 2}

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeText collapses runs of whitespace into single spaces.
func NormalizeText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// KeywordsTFIDF extracts the top-K highest-weighted vocabulary terms per
// document, fitting one TF-IDF model over the whole batch. The output is
// index-aligned with texts.
func KeywordsTFIDF(texts []string, topK int) [][]string {
	if len(texts) == 0 {
		return nil
	}

	model := vectorize.Fit(texts, keywordMaxFeatures, keywordNgrams, keywordMinDF)
	out := make([][]string, len(texts))
	if len(model.Terms) == 0 {
		for i := range out {
			out[i] = []string{}
		}
		return out
	}

	rows := vectorize.Transform(texts, model, keywordNgrams)
	for i, row := range rows {
		cols := make([]int, len(row))
		for c := range cols {
			cols[c] = c
		}
		sort.SliceStable(cols, func(a, b int) bool { return row[cols[a]] > row[cols[b]] })

		var keywords []string
		for _, c := range cols {
			if len(keywords) >= topK || row[c] <= 0 {
				break
			}
			keywords = append(keywords, model.Terms[c])
		}
		out[i] = keywords
	}
	return out
}
