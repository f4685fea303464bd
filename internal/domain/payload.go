package domain

import (
	"encoding/json"
	"fmt"
)

// ─── Structured Payloads ────────────────────────────────────────────────────
// Each classifiable category carries exactly one payload variant.

// Payload is the category-specific structured data of an item.
type Payload interface {
	ContentType() ContentType
}

// EventPayload describes a dated happening. Date is "YYYY-MM-DD", Time "HH:MM".
type EventPayload struct {
	Name     string `json:"name"`
	Date     string `json:"date,omitempty"`
	Time     string `json:"time,omitempty"`
	Location string `json:"location,omitempty"`
	URL      string `json:"url,omitempty"`
}

type JobPayload struct {
	Role     string `json:"role"`
	Company  string `json:"company,omitempty"`
	Location string `json:"location,omitempty"`
	Salary   string `json:"salary,omitempty"`
	Deadline string `json:"deadline,omitempty"`
	URL      string `json:"url,omitempty"`
}

type RecipePayload struct {
	Dish        string   `json:"dish"`
	Ingredients []string `json:"ingredients,omitempty"`
	Steps       []string `json:"steps,omitempty"`
	PrepMinutes int      `json:"prep_minutes,omitempty"`
	Servings    int      `json:"servings,omitempty"`
}

type TutorialPayload struct {
	Topic string   `json:"topic"`
	Steps []string `json:"steps,omitempty"`
	Level string   `json:"level,omitempty"`
	URL   string   `json:"url,omitempty"`
}

type PortfolioPayload struct {
	Owner  string   `json:"owner"`
	Medium string   `json:"medium,omitempty"`
	Skills []string `json:"skills,omitempty"`
	URL    string   `json:"url,omitempty"`
}

type ProductPayload struct {
	Name     string `json:"name"`
	Brand    string `json:"brand,omitempty"`
	Price    string `json:"price,omitempty"`
	Currency string `json:"currency,omitempty"`
	URL      string `json:"url,omitempty"`
}

type OfferPayload struct {
	Merchant string `json:"merchant"`
	Discount string `json:"discount,omitempty"`
	Code     string `json:"code,omitempty"`
	Expires  string `json:"expires,omitempty"`
}

type ArticlePayload struct {
	Headline    string `json:"headline"`
	Author      string `json:"author,omitempty"`
	Publication string `json:"publication,omitempty"`
	URL         string `json:"url,omitempty"`
}

type BookPayload struct {
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`
	Genre  string `json:"genre,omitempty"`
}

type MoviePayload struct {
	Title    string `json:"title"`
	Director string `json:"director,omitempty"`
	Year     int    `json:"year,omitempty"`
	Platform string `json:"platform,omitempty"`
}

type MusicPayload struct {
	Track  string `json:"track"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
}

type PlacePayload struct {
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	Category string `json:"category,omitempty"`
}

type ContactPayload struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Org   string `json:"org,omitempty"`
}

type QuotePayload struct {
	Text   string `json:"text"`
	Author string `json:"author,omitempty"`
}

type IdeaPayload struct {
	Summary string   `json:"summary"`
	Next    []string `json:"next_steps,omitempty"`
}

type TaskPayload struct {
	Action   string `json:"action"`
	Due      string `json:"due,omitempty"`
	Priority string `json:"priority,omitempty"`
}

func (EventPayload) ContentType() ContentType     { return ContentEvent }
func (JobPayload) ContentType() ContentType       { return ContentJob }
func (RecipePayload) ContentType() ContentType    { return ContentRecipe }
func (TutorialPayload) ContentType() ContentType  { return ContentTutorial }
func (PortfolioPayload) ContentType() ContentType { return ContentPortfolio }
func (ProductPayload) ContentType() ContentType   { return ContentProduct }
func (OfferPayload) ContentType() ContentType     { return ContentOffer }
func (ArticlePayload) ContentType() ContentType   { return ContentArticle }
func (BookPayload) ContentType() ContentType      { return ContentBook }
func (MoviePayload) ContentType() ContentType     { return ContentMovie }
func (MusicPayload) ContentType() ContentType     { return ContentMusic }
func (PlacePayload) ContentType() ContentType     { return ContentPlace }
func (ContactPayload) ContentType() ContentType   { return ContentContact }
func (QuotePayload) ContentType() ContentType     { return ContentQuote }
func (IdeaPayload) ContentType() ContentType      { return ContentIdea }
func (TaskPayload) ContentType() ContentType      { return ContentTask }

// newPayload returns a pointer to the zero payload for a category.
func newPayload(ct ContentType) (Payload, bool) {
	switch ct {
	case ContentEvent:
		return &EventPayload{}, true
	case ContentJob:
		return &JobPayload{}, true
	case ContentRecipe:
		return &RecipePayload{}, true
	case ContentTutorial:
		return &TutorialPayload{}, true
	case ContentPortfolio:
		return &PortfolioPayload{}, true
	case ContentProduct:
		return &ProductPayload{}, true
	case ContentOffer:
		return &OfferPayload{}, true
	case ContentArticle:
		return &ArticlePayload{}, true
	case ContentBook:
		return &BookPayload{}, true
	case ContentMovie:
		return &MoviePayload{}, true
	case ContentMusic:
		return &MusicPayload{}, true
	case ContentPlace:
		return &PlacePayload{}, true
	case ContentContact:
		return &ContactPayload{}, true
	case ContentQuote:
		return &QuotePayload{}, true
	case ContentIdea:
		return &IdeaPayload{}, true
	case ContentTask:
		return &TaskPayload{}, true
	}
	return nil, false
}

// DecodePayload parses raw JSON into the payload variant for ct.
// Payloads are returned by value, never as pointers.
func DecodePayload(ct ContentType, raw json.RawMessage) (Payload, error) {
	p, ok := newPayload(ct)
	if !ok {
		return nil, fmt.Errorf("no payload for content type %q", ct)
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", ct, err)
	}
	return deref(p), nil
}

func deref(p Payload) Payload {
	switch v := p.(type) {
	case *EventPayload:
		return *v
	case *JobPayload:
		return *v
	case *RecipePayload:
		return *v
	case *TutorialPayload:
		return *v
	case *PortfolioPayload:
		return *v
	case *ProductPayload:
		return *v
	case *OfferPayload:
		return *v
	case *ArticlePayload:
		return *v
	case *BookPayload:
		return *v
	case *MoviePayload:
		return *v
	case *MusicPayload:
		return *v
	case *PlacePayload:
		return *v
	case *ContactPayload:
		return *v
	case *QuotePayload:
		return *v
	case *IdeaPayload:
		return *v
	case *TaskPayload:
		return *v
	}
	return p
}

// PayloadEnvelope is the persisted form of a Payload.
type PayloadEnvelope struct {
	Type ContentType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// EncodePayload wraps a payload in its tagged envelope.
func EncodePayload(p Payload) (*PayloadEnvelope, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.ContentType(), err)
	}
	return &PayloadEnvelope{Type: p.ContentType(), Data: data}, nil
}

// Decode returns the payload variant named by the envelope.
func (e PayloadEnvelope) Decode() (Payload, error) {
	return DecodePayload(e.Type, e.Data)
}
