package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/relook-app/relook/internal/domain"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// generateFunc sends one prompt and returns the model's text reply.
type generateFunc func(ctx context.Context, contents []*genai.Content) (string, error)

// Gemini classifies captures with two sequential prompts: an overview
// (category, title, summary, tags), then the category's structured fields.
type Gemini struct {
	model    string
	generate generateFunc
	log      *zap.Logger
}

// NewGemini creates a Gemini classifier.
func NewGemini(ctx context.Context, apiKey, model string, log *zap.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, domain.ErrClassifierUnavailable
	}
	if model == "" {
		model = DefaultModel
	}
	if log == nil {
		log = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	g := &Gemini{model: model, log: log}
	g.generate = func(ctx context.Context, contents []*genai.Content) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		})
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}
	return g, nil
}

// Name returns the classifier name.
func (g *Gemini) Name() string {
	return "gemini:" + g.model
}

// Classify runs both stages. A failed second stage keeps the overview
// and drops the payload.
func (g *Gemini) Classify(ctx context.Context, in domain.Input) (*domain.Classification, error) {
	text, err := g.generate(ctx, []*genai.Content{buildContent(overviewPrompt(), in)})
	if err != nil {
		return nil, fmt.Errorf("GenAI classify failed: %w", err)
	}
	ov, err := parseOverview(text)
	if err != nil {
		return nil, err
	}

	c := &domain.Classification{
		ContentType: domain.ParseContentType(ov.Category),
		Title:       strings.TrimSpace(ov.Title),
		Summary:     strings.TrimSpace(ov.Summary),
		Tags:        normalizeTags(ov.Tags),
	}
	if c.ContentType == domain.ContentNote {
		return c, nil
	}

	text, err = g.generate(ctx, []*genai.Content{buildContent(payloadPrompt(c.ContentType), in)})
	if err != nil {
		g.log.Warn("payload extraction failed", zap.String("type", string(c.ContentType)), zap.Error(err))
		return c, nil
	}
	p, err := domain.DecodePayload(c.ContentType, json.RawMessage(cleanJSON(text)))
	if err != nil {
		g.log.Warn("payload decode failed", zap.String("type", string(c.ContentType)), zap.Error(err))
		return c, nil
	}
	c.Payload = p
	return c, nil
}

func buildContent(prompt string, in domain.Input) *genai.Content {
	if len(in.Data) == 0 {
		return genai.NewContentFromText(prompt+"\n\nContent:\n"+in.Text, genai.RoleUser)
	}
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(in.Data, in.MIMEType),
	}
	if in.Text != "" {
		parts = append(parts, genai.NewPartFromText("User note: "+in.Text))
	}
	return genai.NewContentFromParts(parts, genai.RoleUser)
}

// ─── Prompts ────────────────────────────────────────────────────────────────

func overviewPrompt() string {
	cats := make([]string, 0, len(domain.ContentTypes()))
	for _, ct := range domain.ContentTypes() {
		cats = append(cats, string(ct))
	}
	return "Classify the saved content into exactly one category from: " +
		strings.Join(cats, ", ") + ". " +
		`If none fits, use "Note". Reply with JSON only: ` +
		`{"category": string, "title": string (max 60 chars), "summary": string (one sentence), "tags": [string] (up to 5)}.`
}

func payloadPrompt(ct domain.ContentType) string {
	return fmt.Sprintf("The content is a %s. Extract its fields and reply with JSON only, shaped like %s. "+
		`Dates use "YYYY-MM-DD" and times "HH:MM" (24h). Omit fields you cannot find.`,
		ct, payloadShape(ct))
}

// payloadShape renders a JSON skeleton of the payload's fields.
func payloadShape(ct domain.ContentType) string {
	p, err := domain.DecodePayload(ct, json.RawMessage(`{}`))
	if err != nil {
		return "{}"
	}
	t := reflect.TypeOf(p)
	fields := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		kind := "string"
		switch t.Field(i).Type.Kind() {
		case reflect.Int:
			kind = "number"
		case reflect.Slice:
			kind = "[string]"
		}
		fields = append(fields, fmt.Sprintf("%q: %s", name, kind))
	}
	return "{" + strings.Join(fields, ", ") + "}"
}
