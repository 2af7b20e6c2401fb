package discover

import (
	"regexp"
	"strings"
	"testing"
)

func TestFromHTMLKeepsArticlesDropsHubs(t *testing.T) {
	t.Parallel()

	html := `
	<html><body>
	  <a href="/markets">Markets</a>
	  <a href="/news/2024/05/01/fed-raises-rates.html">Fed raises rates to two-decade high</a>
	  <a href="/topic/earnings">Earnings topic page</a>
	  <a href="#">Top</a>
	  <a href="mailto:tips@example.com">Tips</a>
	</body></html>`

	links := FromHTML("https://example.com/markets", html, Options{MaxLinks: 10, SameDomainOnly: true})

	if len(links) == 0 {
		t.Fatal("expected at least one link")
	}
	want := "https://example.com/news/2024/05/01/fed-raises-rates.html"
	if links[0].URL != want {
		t.Fatalf("expected article ranked first, got %q", links[0].URL)
	}
	for _, l := range links {
		if strings.HasSuffix(l.URL, "/markets") {
			t.Fatalf("section root must be dropped, got %q", l.URL)
		}
	}
}

func TestFromHTMLSameDomainOnly(t *testing.T) {
	t.Parallel()

	html := `
	<a href="https://other.com/news/2024/05/01/story-one.html">Offsite</a>
	<a href="/news/2024/05/01/story-two.html">Onsite</a>`

	links := FromHTML("https://example.com/", html, Options{MaxLinks: 10, SameDomainOnly: true})

	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if !strings.HasPrefix(links[0].URL, "https://example.com/") {
		t.Fatalf("offsite link survived: %q", links[0].URL)
	}
}

func TestFromHTMLAppliesAllowAndDenyPatterns(t *testing.T) {
	t.Parallel()

	html := `
	<a href="/news/2024/05/01/kept-story.html">Kept</a>
	<a href="/news/2024/05/01/blocked-story.html">Blocked</a>
	<a href="/sports/2024/05/01/other-story.html">Other</a>`

	links := FromHTML("https://example.com/", html, Options{
		MaxLinks:     10,
		AllowPattern: regexp.MustCompile(`/news/`),
		DenyPattern:  regexp.MustCompile(`blocked`),
	})

	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if !strings.Contains(links[0].URL, "kept-story") {
		t.Fatalf("unexpected survivor: %q", links[0].URL)
	}
}

func TestFromHTMLRespectsMaxLinksAndDedupes(t *testing.T) {
	t.Parallel()

	html := `
	<a href="/news/2024/05/01/story-a.html">Story A with a reasonably long title</a>
	<a href="/news/2024/05/01/story-a.html">Story A repeated</a>
	<a href="/news/2024/05/02/story-b.html">Story B with a reasonably long title</a>
	<a href="/news/2024/05/03/story-c.html">Story C with a reasonably long title</a>`

	links := FromHTML("https://example.com/", html, Options{MaxLinks: 2})

	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(links))
	}
	if links[0].URL == links[1].URL {
		t.Fatalf("duplicate URL survived: %q", links[0].URL)
	}
}

func TestStripTracking(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"https://x.com/a?utm_source=x&id=5#frag", "https://x.com/a?id=5"},
		{"https://x.com/a?id=5&fbclid=abc&b=2", "https://x.com/a?id=5&b=2"},
		{"https://x.com/a?empty=&id=5", "https://x.com/a?id=5"},
		{"https://x.com/a?guce_referrer=z&gclid=y", "https://x.com/a"},
		{"https://x.com/a", "https://x.com/a"},
		{"not a url", "not a url"},
	}

	for _, c := range cases {
		if got := StripTracking(c.in); got != c.want {
			t.Fatalf("StripTracking(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestScoreRanksArticlesAboveHubs(t *testing.T) {
	t.Parallel()

	seed := "https://example.com/markets"
	article := Score(seed, "https://example.com/news/2024/05/01/fed-raises-rates.html", "Fed raises rates to two-decade high")
	hub := Score(seed, "https://example.com/topic/earnings", "Earnings")
	root := Score(seed, "https://example.com/", "")
	self := Score(seed, "https://example.com/markets", "Markets")

	if article <= hub {
		t.Fatalf("article (%f) should outrank hub (%f)", article, hub)
	}
	if article <= root {
		t.Fatalf("article (%f) should outrank root (%f)", article, root)
	}
	if article <= self {
		t.Fatalf("article (%f) should outrank the seed itself (%f)", article, self)
	}
}

func TestScorePenalizesQueryAndShortTitle(t *testing.T) {
	t.Parallel()

	seed := "https://example.com/"
	plain := Score(seed, "https://example.com/news/2024/05/01/story-one.html", "A headline long enough to count")
	query := Score(seed, "https://example.com/news/2024/05/01/story-one.html?page=2", "A headline long enough to count")
	short := Score(seed, "https://example.com/news/2024/05/01/story-one.html", "Hi")

	if query >= plain {
		t.Fatalf("query string should cost score: %f vs %f", query, plain)
	}
	if short >= plain {
		t.Fatalf("very short title should cost score: %f vs %f", short, plain)
	}
}
