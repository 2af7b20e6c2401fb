package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/TrueDMGDev/FintechFinalProject/internal/config"
)

func TestRecognizeMisconfiguredReturnsNil(t *testing.T) {
	t.Parallel()

	c := NewEntityClient(config.NERConfig{}, nil)
	if ents := c.Recognize(context.Background(), "IBM bought a startup"); ents != nil {
		t.Fatalf("expected nil without credentials, got %v", ents)
	}
}

func TestRecognizeParsesModelReply(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth header: %q", got)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"[{\"text\":\"IBM\",\"label\":\"ORG\"},{\"text\":\"$5bn\",\"label\":\"MONEY\"}]"}}]}`))
	}))
	defer server.Close()

	c := NewEntityClient(config.NERConfig{Endpoint: server.URL, Model: "m", APIKey: "key"}, nil)
	ents := c.Recognize(context.Background(), "IBM paid $5bn")

	if len(ents) != 2 {
		t.Fatalf("expected 2 entities, got %v", ents)
	}
	if ents[0].Text != "IBM" || ents[0].Label != "ORG" {
		t.Fatalf("unexpected first entity: %+v", ents[0])
	}
}

func TestRecognizeServerErrorReturnsNil(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewEntityClient(config.NERConfig{Endpoint: server.URL, Model: "m", APIKey: "key"}, nil)
	if ents := c.Recognize(context.Background(), "text"); ents != nil {
		t.Fatalf("expected nil on server error, got %v", ents)
	}
}

func TestParseEntitiesToleratesCodeFences(t *testing.T) {
	t.Parallel()

	ents := parseEntities("```json\n[{\"text\":\"Fed\",\"label\":\"ORG\"}]\n```")
	if len(ents) != 1 || ents[0].Text != "Fed" {
		t.Fatalf("unexpected entities: %v", ents)
	}

	if ents := parseEntities("not json"); ents != nil {
		t.Fatalf("expected nil for junk, got %v", ents)
	}
}

func TestParseEntitiesSkipsIncompleteSpans(t *testing.T) {
	t.Parallel()

	ents := parseEntities(`[{"text":"","label":"ORG"},{"text":"Fed","label":""},{"text":"Fed","label":"ORG"}]`)
	if len(ents) != 1 {
		t.Fatalf("expected 1 entity, got %v", ents)
	}
}
