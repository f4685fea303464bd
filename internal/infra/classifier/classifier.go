// Package classifier turns raw captures into structured classifications.
// Gemini runs the two-stage LLM pipeline; Mock is a deterministic keyword
// classifier for tests and offline use.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/relook-app/relook/internal/domain"
)

// Provider names accepted by New.
const (
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

// Config selects and configures a classifier.
type Config struct {
	Provider string
	APIKey   string
	Model    string
}

// New builds the configured classifier. A Gemini provider without an API
// key yields Unavailable rather than an error, so captures still succeed
// as unclassified notes.
func New(ctx context.Context, cfg Config, log *zap.Logger) (domain.Classifier, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch strings.ToLower(cfg.Provider) {
	case ProviderMock:
		return Mock{}, nil
	case ProviderGemini, "":
		if cfg.APIKey == "" {
			log.Warn("no Gemini API key configured; captures will not be classified")
			return Unavailable{}, nil
		}
		return NewGemini(ctx, cfg.APIKey, cfg.Model, log)
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", cfg.Provider)
	}
}

// Unavailable always reports domain.ErrClassifierUnavailable.
type Unavailable struct{}

func (Unavailable) Classify(context.Context, domain.Input) (*domain.Classification, error) {
	return nil, domain.ErrClassifierUnavailable
}

// ─── Response parsing ───────────────────────────────────────────────────────

// overview is the stage-one response shape.
type overview struct {
	Category string   `json:"category"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Tags     []string `json:"tags"`
}

// cleanJSON strips the markdown fences models like to wrap JSON in.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func parseOverview(text string) (overview, error) {
	var ov overview
	if err := json.Unmarshal([]byte(cleanJSON(text)), &ov); err != nil {
		return overview{}, fmt.Errorf("parse classification: %w", err)
	}
	return ov, nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(t, "#")))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
