// internal/types/interfaces.go
package types

import (
	"context"
	"time"
)

// ContentSource fetches candidate items from a named source (a timeline,
// a profile, a keyword search). Results are a best-effort snapshot with
// no ordering guarantee.
type ContentSource interface {
	Fetch(ctx context.Context, source string, count int) ([]*CandidateItem, error)
}

// ActionExecutor performs one engagement action. text is empty for
// actions that carry no generated content. The boolean is the only
// success signal; there are no partial-success states.
type ActionExecutor interface {
	Perform(ctx context.Context, kind ActionKind, item *CandidateItem, text string) (bool, error)
}

// Scorer provides relevance and sentiment signals for decision making.
type Scorer interface {
	ScoreRelevance(ctx context.Context, item *CandidateItem, keywords []string) (float64, error)
	ClassifySentiment(ctx context.Context, item *CandidateItem) (Sentiment, error)
	// AnalyzeStructured returns a combined verdict, or nil when the
	// scorer cannot produce one (callers then fall back to the two
	// calls above).
	AnalyzeStructured(ctx context.Context, item *CandidateItem, keywords []string) (*StructuredAnalysis, error)
}

// DedupStore persists the append-only set of performed action keys.
// Loaded once at session start; written immediately after each
// successful action.
type DedupStore interface {
	Load() (map[string]struct{}, error)
	Save(key string, at time.Time) error
}

// StyleStore persists style snapshots per account. Best-effort: callers
// log write failures and continue.
type StyleStore interface {
	Write(account AccountID, snapshot *StyleSnapshot) error
}
