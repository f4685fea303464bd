package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// ─── Content Types ──────────────────────────────────────────────────────────

// ContentType is the category assigned to a captured item.
type ContentType string

const (
	ContentNote      ContentType = "Note" // unclassified
	ContentEvent     ContentType = "Event"
	ContentJob       ContentType = "Job"
	ContentRecipe    ContentType = "Recipe"
	ContentTutorial  ContentType = "Tutorial"
	ContentPortfolio ContentType = "Portfolio"
	ContentProduct   ContentType = "Product"
	ContentOffer     ContentType = "Offer"
	ContentArticle   ContentType = "Article"
	ContentBook      ContentType = "Book"
	ContentMovie     ContentType = "Movie"
	ContentMusic     ContentType = "Music"
	ContentPlace     ContentType = "Place"
	ContentContact   ContentType = "Contact"
	ContentQuote     ContentType = "Quote"
	ContentIdea      ContentType = "Idea"
	ContentTask      ContentType = "Task"
)

// ContentTypes lists the sixteen classifiable categories.
func ContentTypes() []ContentType {
	return []ContentType{
		ContentEvent, ContentJob, ContentRecipe, ContentTutorial,
		ContentPortfolio, ContentProduct, ContentOffer, ContentArticle,
		ContentBook, ContentMovie, ContentMusic, ContentPlace,
		ContentContact, ContentQuote, ContentIdea, ContentTask,
	}
}

// ParseContentType maps a free-form label to a known category.
// Unknown labels map to ContentNote.
func ParseContentType(s string) ContentType {
	s = strings.TrimSpace(s)
	for _, ct := range ContentTypes() {
		if strings.EqualFold(string(ct), s) {
			return ct
		}
	}
	return ContentNote
}

// SourceKind describes what the user captured.
type SourceKind string

const (
	SourceText  SourceKind = "text"
	SourceImage SourceKind = "image"
	SourceAudio SourceKind = "audio"
)

// ─── Items, Decks, Reminders ────────────────────────────────────────────────

// Item is a captured snippet.
type Item struct {
	ID          string      `json:"id"`
	ContentType ContentType `json:"content_type"`
	Title       string      `json:"title"`
	Summary     string      `json:"summary,omitempty"`
	Body        string      `json:"body,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Source      SourceKind  `json:"source"`
	Payload     Payload     `json:"-"`
	DeckIDs     []string    `json:"deck_ids,omitempty"`
	ReminderID  string      `json:"reminder_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Clone returns a copy of the item with its own slices.
func (it Item) Clone() Item {
	it.Tags = append([]string(nil), it.Tags...)
	it.DeckIDs = append([]string(nil), it.DeckIDs...)
	return it
}

// InDeck reports whether the item is linked to deckID.
func (it Item) InDeck(deckID string) bool {
	for _, id := range it.DeckIDs {
		if id == deckID {
			return true
		}
	}
	return false
}

type itemJSON struct {
	itemAlias
	Payload *PayloadEnvelope `json:"payload,omitempty"`
}

type itemAlias Item

// MarshalJSON encodes the payload as a tagged envelope.
func (it Item) MarshalJSON() ([]byte, error) {
	aux := itemJSON{itemAlias: itemAlias(it)}
	if it.Payload != nil {
		env, err := EncodePayload(it.Payload)
		if err != nil {
			return nil, err
		}
		aux.Payload = env
	}
	return json.Marshal(aux)
}

// UnmarshalJSON decodes the tagged payload envelope back into its variant.
func (it *Item) UnmarshalJSON(data []byte) error {
	var aux itemJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*it = Item(aux.itemAlias)
	if aux.Payload != nil {
		p, err := aux.Payload.Decode()
		if err != nil {
			return err
		}
		it.Payload = p
	}
	return nil
}

// Deck is a named collection of items.
type Deck struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Auto      bool      `json:"auto"`
	CreatedAt time.Time `json:"created_at"`
}

// Reminder is a due date attached to an item.
type Reminder struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	Title     string    `json:"title"`
	DueAt     time.Time `json:"due_at"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// ─── Capture Input ──────────────────────────────────────────────────────────

// Input is raw user content handed to the classifier.
// Exactly one of Text or Data is set.
type Input struct {
	Text     string
	Data     []byte
	MIMEType string
}

// Kind derives the source kind from the MIME type.
func (in Input) Kind() SourceKind {
	switch {
	case len(in.Data) == 0:
		return SourceText
	case strings.HasPrefix(in.MIMEType, "audio/"):
		return SourceAudio
	default:
		return SourceImage
	}
}

// Classification is the structured result of the classifier.
type Classification struct {
	ContentType ContentType
	Title       string
	Summary     string
	Tags        []string
	Payload     Payload
}

// Draft is an item before the engine assigns id, time and deck links.
type Draft struct {
	ContentType ContentType
	Title       string
	Summary     string
	Body        string
	Tags        []string
	Source      SourceKind
	Payload     Payload
}
