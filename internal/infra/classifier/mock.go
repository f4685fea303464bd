package classifier

import (
	"context"
	"regexp"
	"strings"

	"github.com/relook-app/relook/internal/domain"
)

// Mock is a deterministic keyword classifier. Binary input is filed as a
// Note titled after its media kind.
type Mock struct{}

var (
	isoDate   = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	clockTime = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	priceRe   = regexp.MustCompile(`[$€£]\s?\d+(?:[.,]\d{2})?`)
	percentRe = regexp.MustCompile(`\b\d{1,2}%\s*off\b`)
	urlRe     = regexp.MustCompile(`https?://\S+`)
	hashtagRe = regexp.MustCompile(`#(\w+)`)
)

type rule struct {
	ct       domain.ContentType
	keywords []string
}

// rules are checked in order; the first keyword hit wins.
var rules = []rule{
	{domain.ContentRecipe, []string{"recipe", "ingredients", "tbsp", "preheat"}},
	{domain.ContentJob, []string{"hiring", "job opening", "apply by", "salary", "we're looking for"}},
	{domain.ContentOffer, []string{"coupon", "promo code", "discount", "% off", "sale ends"}},
	{domain.ContentEvent, []string{"meetup", "concert", "conference", "webinar", "rsvp", "event"}},
	{domain.ContentTutorial, []string{"tutorial", "how to", "step-by-step", "guide to"}},
	{domain.ContentPortfolio, []string{"portfolio", "dribbble", "behance"}},
	{domain.ContentBook, []string{"book", "novel", "isbn"}},
	{domain.ContentMovie, []string{"movie", "film", "trailer", "netflix"}},
	{domain.ContentMusic, []string{"song", "album", "spotify", "playlist"}},
	{domain.ContentPlace, []string{"restaurant", "cafe", "museum", "address"}},
	{domain.ContentContact, []string{"phone:", "email:", "@"}},
	{domain.ContentTask, []string{"todo", "remind me", "don't forget", "to-do"}},
	{domain.ContentIdea, []string{"idea", "what if"}},
	{domain.ContentArticle, []string{"article", "blog post", "read later"}},
}

// Classify implements domain.Classifier.
func (Mock) Classify(ctx context.Context, in domain.Input) (*domain.Classification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(in.Data) > 0 {
		title := "Screenshot"
		if in.Kind() == domain.SourceAudio {
			title = "Voice memo"
		}
		return &domain.Classification{ContentType: domain.ContentNote, Title: title, Summary: in.Text}, nil
	}

	text := strings.TrimSpace(in.Text)
	lower := strings.ToLower(text)
	ct := domain.ContentNote
	switch {
	case strings.HasPrefix(text, `"`) || strings.HasPrefix(text, "“"):
		ct = domain.ContentQuote
	case priceRe.MatchString(text) && !percentRe.MatchString(lower) && !containsAny(lower, "salary"):
		ct = domain.ContentProduct
	default:
		for _, r := range rules {
			if containsAny(lower, r.keywords...) {
				ct = r.ct
				break
			}
		}
	}

	title := firstLine(text)
	c := &domain.Classification{
		ContentType: ct,
		Title:       title,
		Summary:     text,
		Tags:        hashtags(text),
	}
	c.Payload = mockPayload(ct, title, text)
	return c, nil
}

func mockPayload(ct domain.ContentType, title, text string) domain.Payload {
	url := urlRe.FindString(text)
	switch ct {
	case domain.ContentEvent:
		ev := domain.EventPayload{Name: title, URL: url}
		if m := isoDate.FindStringSubmatch(text); m != nil {
			ev.Date = m[1]
		}
		if m := clockTime.FindString(text); m != "" {
			ev.Time = m
		}
		return ev
	case domain.ContentJob:
		return domain.JobPayload{Role: title, URL: url}
	case domain.ContentRecipe:
		return domain.RecipePayload{Dish: title}
	case domain.ContentTutorial:
		return domain.TutorialPayload{Topic: title, URL: url}
	case domain.ContentPortfolio:
		return domain.PortfolioPayload{Owner: title, URL: url}
	case domain.ContentProduct:
		return domain.ProductPayload{Name: title, Price: priceRe.FindString(text), URL: url}
	case domain.ContentOffer:
		return domain.OfferPayload{Merchant: title, Discount: percentRe.FindString(strings.ToLower(text))}
	case domain.ContentArticle:
		return domain.ArticlePayload{Headline: title, URL: url}
	case domain.ContentBook:
		return domain.BookPayload{Title: title}
	case domain.ContentMovie:
		return domain.MoviePayload{Title: title}
	case domain.ContentMusic:
		return domain.MusicPayload{Track: title}
	case domain.ContentPlace:
		return domain.PlacePayload{Name: title}
	case domain.ContentContact:
		return domain.ContactPayload{Name: title}
	case domain.ContentQuote:
		return domain.QuotePayload{Text: strings.Trim(title, `"“”`)}
	case domain.ContentIdea:
		return domain.IdeaPayload{Summary: title}
	case domain.ContentTask:
		return domain.TaskPayload{Action: title}
	}
	return nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	line = strings.TrimSpace(line)
	if r := []rune(line); len(r) > 60 {
		line = strings.TrimSpace(string(r[:57])) + "..."
	}
	return line
}

func hashtags(s string) []string {
	var tags []string
	for _, m := range hashtagRe.FindAllStringSubmatch(s, -1) {
		tags = append(tags, m[1])
	}
	return normalizeTags(tags)
}
