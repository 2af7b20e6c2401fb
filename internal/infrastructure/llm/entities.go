package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/TrueDMGDev/FintechFinalProject/internal/config"
	"github.com/TrueDMGDev/FintechFinalProject/internal/domain"
	"github.com/TrueDMGDev/FintechFinalProject/internal/ports"
)

const (
	systemPrompt = "You extract named entities from financial news text. " +
		"Reply with only a JSON array of objects with \"text\" and \"label\" fields, " +
		"using labels like ORG, PERSON, GPE, MONEY."
	maxInputChars = 6000
)

// EntityClient asks an OpenAI-compatible chat API for named entities. The
// model is optional at runtime: misconfiguration and any request or parse
// failure yield an empty result so callers fall back to the regex heuristic.
type EntityClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.EntityRecognizer = (*EntityClient)(nil)

// NewEntityClient builds a client from configuration.
func NewEntityClient(cfg config.NERConfig, logger *slog.Logger) *EntityClient {
	return &EntityClient{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		logger:     logger,
	}
}

// Recognize returns the entities the model finds in text, or nil when the
// model is unavailable or returns something unusable.
func (c *EntityClient) Recognize(ctx context.Context, text string) []domain.Entity {
	if c == nil || c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return nil
	}
	if text == "" {
		return nil
	}
	if runes := []rune(text); len(runes) > maxInputChars {
		text = string(runes[:maxInputChars])
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": text},
		},
	})
	if err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.debug("entity model request failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.debug("entity model error", "status", resp.Status)
		return nil
	}

	var payload struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil
	}
	if len(payload.Choices) == 0 {
		return nil
	}

	return parseEntities(payload.Choices[0].Message.Content)
}

// parseEntities reads the model reply, tolerating code fences around the
// JSON array.
func parseEntities(content string) []domain.Entity {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var raw []struct {
		Text  string `json:"text"`
		Label string `json:"label"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil
	}

	var ents []domain.Entity
	for _, r := range raw {
		if r.Text == "" || r.Label == "" {
			continue
		}
		ents = append(ents, domain.Entity{Text: r.Text, Label: r.Label})
	}
	return ents
}

func (c *EntityClient) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
