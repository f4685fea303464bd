package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/relook-app/relook/internal/domain"
)

// scripted replays canned replies and records the prompts it saw.
type scripted struct {
	replies []string
	errs    []error
	prompts []*genai.Content
}

func (s *scripted) generate(_ context.Context, contents []*genai.Content) (string, error) {
	i := len(s.prompts)
	s.prompts = append(s.prompts, contents...)
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i >= len(s.replies) {
		return "", errors.New("no scripted reply")
	}
	return s.replies[i], nil
}

func newScripted(s *scripted) *Gemini {
	return &Gemini{model: "test", generate: s.generate, log: zap.NewNop()}
}

// ─── Factory ────────────────────────────────────────────────────────────────

func TestNew_Providers(t *testing.T) {
	c, err := New(context.Background(), Config{Provider: "mock"}, nil)
	require.NoError(t, err)
	assert.IsType(t, Mock{}, c)

	c, err = New(context.Background(), Config{Provider: "gemini"}, nil)
	require.NoError(t, err)
	_, err = c.Classify(context.Background(), domain.Input{Text: "x"})
	assert.ErrorIs(t, err, domain.ErrClassifierUnavailable)

	_, err = New(context.Background(), Config{Provider: "carrier-pigeon"}, nil)
	assert.Error(t, err)
}

func TestNewGemini_NoKey(t *testing.T) {
	_, err := NewGemini(context.Background(), "", "", nil)
	assert.ErrorIs(t, err, domain.ErrClassifierUnavailable)
}

// ─── Gemini pipeline ────────────────────────────────────────────────────────

func TestGemini_TwoStages(t *testing.T) {
	s := &scripted{replies: []string{
		"```json\n{\"category\":\"event\",\"title\":\"Go meetup\",\"summary\":\"Monthly Go meetup\",\"tags\":[\"#Go\",\"go\",\" meetup \"]}\n```",
		`{"name":"Go meetup","date":"2025-07-10","time":"18:30","location":"Berlin"}`,
	}}
	g := newScripted(s)

	c, err := g.Classify(context.Background(), domain.Input{Text: "Go meetup next Thursday 18:30"})
	require.NoError(t, err)
	assert.Equal(t, domain.ContentEvent, c.ContentType)
	assert.Equal(t, "Go meetup", c.Title)
	assert.Equal(t, []string{"go", "meetup"}, c.Tags)

	ev, ok := c.Payload.(domain.EventPayload)
	require.True(t, ok, "payload type %T", c.Payload)
	assert.Equal(t, "2025-07-10", ev.Date)
	assert.Equal(t, "Berlin", ev.Location)
	assert.Len(t, s.prompts, 2)
}

func TestGemini_NoteSkipsSecondStage(t *testing.T) {
	s := &scripted{replies: []string{`{"category":"Note","title":"random","summary":"","tags":[]}`}}
	c, err := newScripted(s).Classify(context.Background(), domain.Input{Text: "random"})
	require.NoError(t, err)
	assert.Equal(t, domain.ContentNote, c.ContentType)
	assert.Nil(t, c.Payload)
	assert.Len(t, s.prompts, 1)
}

func TestGemini_FirstStageErrors(t *testing.T) {
	s := &scripted{errs: []error{errors.New("quota exceeded")}}
	_, err := newScripted(s).Classify(context.Background(), domain.Input{Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	s = &scripted{replies: []string{"I think this is a recipe!"}}
	_, err = newScripted(s).Classify(context.Background(), domain.Input{Text: "x"})
	assert.Error(t, err)
}

func TestGemini_SecondStageFailureKeepsOverview(t *testing.T) {
	s := &scripted{replies: []string{
		`{"category":"Recipe","title":"Pancakes","summary":"Fluffy","tags":["breakfast"]}`,
		`not json`,
	}}
	c, err := newScripted(s).Classify(context.Background(), domain.Input{Text: "pancakes"})
	require.NoError(t, err)
	assert.Equal(t, domain.ContentRecipe, c.ContentType)
	assert.Equal(t, "Pancakes", c.Title)
	assert.Nil(t, c.Payload)
}

func TestBuildContent_Image(t *testing.T) {
	c := buildContent("prompt", domain.Input{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png", Text: "menu"})
	require.Len(t, c.Parts, 3)
	require.NotNil(t, c.Parts[1].InlineData)
	assert.Equal(t, "image/png", c.Parts[1].InlineData.MIMEType)
}

func TestPayloadShape(t *testing.T) {
	shape := payloadShape(domain.ContentRecipe)
	assert.Contains(t, shape, `"dish": string`)
	assert.Contains(t, shape, `"ingredients": [string]`)
	assert.Contains(t, shape, `"servings": number`)
	assert.Equal(t, "{}", payloadShape(domain.ContentNote))
}

// ─── Mock ───────────────────────────────────────────────────────────────────

func TestMock_Categories(t *testing.T) {
	tests := []struct {
		text string
		want domain.ContentType
	}{
		{"Go meetup 2025-07-10 19:00 at the library", domain.ContentEvent},
		{"We're hiring a backend engineer, salary $120k", domain.ContentJob},
		{"Grandma's recipe: ingredients 2 eggs, flour", domain.ContentRecipe},
		{"Noise cancelling headphones $199.99", domain.ContentProduct},
		{"20% off everything with promo code SUMMER", domain.ContentOffer},
		{"How to write a Go linter, step-by-step", domain.ContentTutorial},
		{`"Simplicity is prerequisite for reliability"`, domain.ContentQuote},
		{"remind me to call the plumber", domain.ContentTask},
		{"just some thoughts about nothing", domain.ContentNote},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			c, err := Mock{}.Classify(context.Background(), domain.Input{Text: tt.text})
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.ContentType, tt.text)
			if tt.want != domain.ContentNote {
				require.NotNil(t, c.Payload)
				assert.Equal(t, tt.want, c.Payload.ContentType())
			}
		})
	}
}

func TestMock_EventFields(t *testing.T) {
	c, err := Mock{}.Classify(context.Background(), domain.Input{Text: "Rust meetup 2025-09-01 18:45 #rust #Meetup"})
	require.NoError(t, err)
	ev := c.Payload.(domain.EventPayload)
	assert.Equal(t, "2025-09-01", ev.Date)
	assert.Equal(t, "18:45", ev.Time)
	assert.Equal(t, []string{"rust", "meetup"}, c.Tags)
}

func TestMock_Binary(t *testing.T) {
	c, err := Mock{}.Classify(context.Background(), domain.Input{Data: []byte("abc"), MIMEType: "audio/webm"})
	require.NoError(t, err)
	assert.Equal(t, "Voice memo", c.Title)
	assert.Equal(t, domain.ContentNote, c.ContentType)
}

func TestMock_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Mock{}.Classify(ctx, domain.Input{Text: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFirstLine_Truncates(t *testing.T) {
	long := strings.Repeat("a", 80) + "\nsecond"
	got := firstLine(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len([]rune(got)), 60)
}
