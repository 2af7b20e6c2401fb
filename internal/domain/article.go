package domain

import "time"

// Entity is one recognized span of text with its label (ORG, MONEY, GPE, ...).
type Entity struct {
	Text  string
	Label string
}

// Article is the core value describing one news item at some pipeline stage.
// Stages never mutate an Article in place: each stage builds a copy with
// specific fields replaced, so earlier-stage data stays recoverable.
type Article struct {
	Source      string
	Title       string
	URL         string
	PublishedAt *time.Time
	Summary     string

	// populated after scraping
	Text    string
	Authors []string

	// populated by enrichment
	Tags     []string
	Entities []Entity
	Keywords []string

	// scoring / dedup
	Score          float64
	IsDuplicate    bool
	DuplicateOfURL string
}

// WithText returns a copy with the scraped title and body filled in.
func (a Article) WithText(title, text string) Article {
	out := a
	out.Title = title
	out.Text = text
	return out
}

// WithEnrichment returns a copy carrying keywords, entities, tags and score.
func (a Article) WithEnrichment(keywords []string, entities []Entity, tags []string, score float64) Article {
	out := a
	out.Keywords = keywords
	out.Entities = entities
	out.Tags = tags
	out.Score = score
	return out
}

// WithDuplicate returns a copy marked as a duplicate of another URL.
func (a Article) WithDuplicate(ofURL string) Article {
	out := a
	out.IsDuplicate = true
	out.DuplicateOfURL = ofURL
	return out
}
