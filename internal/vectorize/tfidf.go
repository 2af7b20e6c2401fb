package vectorize

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// NgramRange is the inclusive [Lo, Hi] span of n-gram sizes to emit.
type NgramRange struct {
	Lo int
	Hi int
}

// Model is a fitted TF-IDF vocabulary with one smoothed-idf weight per term.
// Immutable after Fit.
type Model struct {
	Vocab map[string]int
	Terms []string // column index -> term
	IDF   []float64
}

// Keep it simple, fast, and deterministic (English-centric): lowercase runs
// starting with an ASCII letter, length >= 2.
var wordRe = regexp.MustCompile(`[A-Za-z][A-Za-z0-9_\-]+`)

func tokenize(text string) []string {
	raw := wordRe.FindAllString(text, -1)
	out := make([]string, len(raw))
	for i, t := range raw {
		out[i] = strings.ToLower(t)
	}
	return out
}

func ngrams(tokens []string, r NgramRange) []string {
	var out []string
	for n := r.Lo; n <= r.Hi; n++ {
		if n == 1 {
			out = append(out, tokens...)
			continue
		}
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// Fit builds a model from document frequencies across the corpus: terms below
// minDF are dropped, survivors are ranked by descending df (ties broken
// lexicographically for determinism), and the top maxFeatures get columns in
// that rank order.
func Fit(texts []string, maxFeatures int, r NgramRange, minDF int) Model {
	df := map[string]int{}
	for _, text := range texts {
		seen := map[string]bool{}
		for _, term := range ngrams(tokenize(text), r) {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	type entry struct {
		term string
		df   int
	}
	var kept []entry
	for term, count := range df {
		if count >= minDF {
			kept = append(kept, entry{term: term, df: count})
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].df != kept[j].df {
			return kept[i].df > kept[j].df
		}
		return kept[i].term < kept[j].term
	})
	if maxFeatures > 0 && len(kept) > maxFeatures {
		kept = kept[:maxFeatures]
	}

	nDocs := len(texts)
	if nDocs < 1 {
		nDocs = 1
	}

	model := Model{
		Vocab: make(map[string]int, len(kept)),
		Terms: make([]string, len(kept)),
		IDF:   make([]float64, len(kept)),
	}
	for i, e := range kept {
		model.Vocab[e.term] = i
		model.Terms[i] = e.term
		// smoothed idf
		model.IDF[i] = math.Log((1.0+float64(nDocs))/(1.0+float64(e.df))) + 1.0
	}
	return model
}

// Transform produces one dense L2-normalized row per document so that a dot
// product between two rows equals their cosine similarity. Terms outside the
// model's vocabulary contribute nothing; all-zero rows stay zero.
func Transform(texts []string, model Model, r NgramRange) [][]float64 {
	rows := make([][]float64, len(texts))
	for i, text := range texts {
		row := make([]float64, len(model.Terms))
		for _, term := range ngrams(tokenize(text), r) {
			if col, ok := model.Vocab[term]; ok {
				row[col]++
			}
		}

		var norm float64
		for col := range row {
			row[col] *= model.IDF[col]
			norm += row[col] * row[col]
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for col := range row {
				row[col] /= norm
			}
		}
		rows[i] = row
	}
	return rows
}

// Dot is the inner product of two equal-length rows; on normalized rows this
// is their cosine similarity.
func Dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
