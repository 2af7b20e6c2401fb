package dedup

import (
	"github.com/TrueDMGDev/FintechFinalProject/internal/vectorize"
)

// Parameters for the per-check TF-IDF fit. A fresh model is fit for every
// candidate so the vocabulary is specific to that comparison batch; changing
// this changes similarity scores.
const (
	maxFeatures = 8000
	minDF       = 2
)

var ngramRange = vectorize.NgramRange{Lo: 1, Hi: 2}

// Result is the verdict of one candidate-vs-recent-window check.
type Result struct {
	IsDuplicate    bool
	DuplicateOfURL string
	BestSimilarity float64
}

// AgainstRecent compares candidateText with every text in the recent window
// and reports the best cosine similarity. recentTexts and recentURLs are
// index-aligned. An empty candidate or an empty window is "not duplicate,
// similarity 0" by policy: there is nothing meaningful to compare.
func AgainstRecent(candidateText, candidateURL string, recentTexts, recentURLs []string, threshold float64) Result {
	if candidateText == "" || len(recentTexts) == 0 {
		return Result{}
	}

	texts := make([]string, 0, 1+len(recentTexts))
	texts = append(texts, candidateText)
	texts = append(texts, recentTexts...)

	model := vectorize.Fit(texts, maxFeatures, ngramRange, minDF)
	rows := vectorize.Transform(texts, model, ngramRange)

	bestIdx := -1
	bestSim := 0.0
	for i := 1; i < len(rows); i++ {
		sim := vectorize.Dot(rows[i], rows[0])
		if bestIdx == -1 || sim > bestSim {
			bestIdx = i
			bestSim = sim
		}
	}
	if bestIdx == -1 {
		return Result{}
	}

	if bestSim >= threshold {
		return Result{
			IsDuplicate:    true,
			DuplicateOfURL: recentURLs[bestIdx-1],
			BestSimilarity: bestSim,
		}
	}
	return Result{BestSimilarity: bestSim}
}
