package store

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// NewsItem is an article attached to a country by an analyst or a feed.
// Reliability is the poster's confidence in the source, from 0 to 1.
type NewsItem struct {
	ID          uuid.UUID `json:"id"`
	CountryID   string    `json:"country_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Sentiment   Sentiment `json:"sentiment"`
	Reliability float64   `json:"reliability"`
	CreatedAt   time.Time `json:"created_at"`
}

// Normalize trims text fields, defaults an empty sentiment to neutral and
// checks the remaining fields.
func (n *NewsItem) Normalize() error {
	n.Title = strings.TrimSpace(n.Title)
	n.Source = strings.TrimSpace(n.Source)
	n.Sentiment = Sentiment(strings.ToLower(strings.TrimSpace(string(n.Sentiment))))

	if n.Title == "" {
		return fmt.Errorf("news title is required")
	}
	switch n.Sentiment {
	case "":
		n.Sentiment = SentimentNeutral
	case SentimentPositive, SentimentNeutral, SentimentNegative:
	default:
		return fmt.Errorf("unknown sentiment %q", n.Sentiment)
	}
	if math.IsNaN(n.Reliability) || n.Reliability < 0 || n.Reliability > 1 {
		return fmt.Errorf("reliability must be between 0 and 1, got %g", n.Reliability)
	}
	return nil
}

// prepareNews assigns the id and timestamps a store fills in on insert.
func prepareNews(n *NewsItem, now time.Time) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = now.UTC()
	if n.PublishedAt.IsZero() {
		n.PublishedAt = n.CreatedAt
	}
	n.PublishedAt = n.PublishedAt.UTC()
}
