// internal/types/models.go
package types

import "time"

// ActionKind enumerates the engagement actions the engine can take.
type ActionKind string

const (
	ActionLike    ActionKind = "like"
	ActionRetweet ActionKind = "retweet"
	ActionQuote   ActionKind = "quote_tweet"
	ActionRepost  ActionKind = "repost"
	ActionReply   ActionKind = "reply"
	ActionNone    ActionKind = "none"
)

// NeedsText reports whether the action requires generated text.
func (k ActionKind) NeedsText() bool {
	switch k {
	case ActionReply, ActionQuote, ActionRepost:
		return true
	}
	return false
}

// Sentiment is the coarse sentiment classification of a candidate item.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Favorable reports whether the sentiment permits high-commitment
// actions (quote, retweet).
func (s Sentiment) Favorable() bool {
	return s == SentimentPositive || s == SentimentNeutral
}

// CandidateItem is one piece of content eligible for an engagement
// action. Immutable once fetched; owned by the session runner for the
// duration of one decision cycle.
type CandidateItem struct {
	ID        ItemID    `json:"id"`
	URL       string    `json:"url,omitempty"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	MediaURLs []string  `json:"media_urls,omitempty"`
	Likes     int       `json:"likes"`
	Reposts   int       `json:"reposts"`
	Replies   int       `json:"replies"`
	Views     int64     `json:"views"`
	CreatedAt time.Time `json:"created_at,omitzero"`

	IsThreadCandidate bool `json:"is_thread_candidate,omitempty"`
	IsConfirmedThread bool `json:"is_confirmed_thread,omitempty"`
}

// ActionDecision is the outcome of scoring one candidate, with the
// scores that produced it.
type ActionDecision struct {
	Kind      ActionKind
	Relevance float64
	Sentiment Sentiment
}

// StructuredAnalysis is the scorer's combined structured verdict for a
// candidate, when the scorer can produce one.
type StructuredAnalysis struct {
	Relevance         float64   `json:"relevance"`
	Sentiment         Sentiment `json:"sentiment"`
	RecommendedAction string    `json:"recommended_action"`
}

// PostSummary is one condensed self-authored post inside a style snapshot.
type PostSummary struct {
	ItemID    ItemID    `json:"item_id"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	Likes     int       `json:"likes"`
	Reposts   int       `json:"reposts"`
	Replies   int       `json:"replies"`
	Views     int64     `json:"views"`
	Text      string    `json:"text"`
	MediaURLs []string  `json:"media_urls,omitempty"`
}

// StyleSnapshot is a derived persona-voice summary built from an
// account's own recent posts. Rebuilt once per session; stale snapshots
// are acceptable.
type StyleSnapshot struct {
	Handle          string        `json:"handle,omitempty"`
	GeneratedAt     time.Time     `json:"generated_at"`
	Entries         []PostSummary `json:"entries"`
	MediaEntryCount int           `json:"media_entry_count"`
	Keywords        []string      `json:"keyword_signature"`
	Tone            string        `json:"tone"`
	MediaRatio      float64       `json:"media_ratio"`
	Summary         string        `json:"style_summary"`
}
