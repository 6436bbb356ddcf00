// Package decision selects an engagement action kind for a candidate
// item from relevance and sentiment signals.
package decision

import (
	"context"
	"log/slog"

	"github.com/user/crowquill/internal/types"
)

// Thresholds are the relevance cutoffs for the three scored actions,
// strictest first.
type Thresholds struct {
	Quote   float64
	Retweet float64
	Repost  float64
}

// DefaultThresholds are applied when no layer of configuration
// overrides them.
func DefaultThresholds() Thresholds {
	return Thresholds{Quote: 0.75, Retweet: 0.5, Repost: 0.35}
}

// ThresholdOverrides is one layer of threshold configuration. Nil
// fields defer to the next layer.
type ThresholdOverrides struct {
	Quote   *float64 `json:"quote_threshold,omitempty"`
	Retweet *float64 `json:"retweet_threshold,omitempty"`
	Repost  *float64 `json:"repost_threshold,omitempty"`
}

// Resolve collapses override layers onto the defaults. Layers are
// ordered highest precedence first (candidate, then account, then
// global); the first layer that sets a field wins.
func Resolve(layers ...*ThresholdOverrides) Thresholds {
	resolved := DefaultThresholds()
	pick := func(field func(*ThresholdOverrides) *float64, dst *float64) {
		for _, layer := range layers {
			if layer == nil {
				continue
			}
			if v := field(layer); v != nil {
				*dst = *v
				return
			}
		}
	}
	pick(func(o *ThresholdOverrides) *float64 { return o.Quote }, &resolved.Quote)
	pick(func(o *ThresholdOverrides) *float64 { return o.Retweet }, &resolved.Retweet)
	pick(func(o *ThresholdOverrides) *float64 { return o.Repost }, &resolved.Repost)
	return resolved
}

// Config controls one engine invocation.
type Config struct {
	// Enabled turns scoring on; when false Decide returns DefaultKind.
	Enabled bool
	// UseSentiment gates the sentiment classification in the fallback path.
	UseSentiment bool
	// PreferStructured consults the scorer's combined verdict before
	// falling back to the manual threshold walk.
	PreferStructured bool
	// DefaultKind is returned when scoring is disabled.
	DefaultKind types.ActionKind
	Thresholds  Thresholds
	// Keywords steer the relevance scorer.
	Keywords []string
}

// Engine scores candidates and picks an action kind.
type Engine struct {
	scorer types.Scorer
}

func NewEngine(scorer types.Scorer) *Engine {
	return &Engine{scorer: scorer}
}

// knownRecommendations are the structured verdicts honored directly.
// Anything else, reply included, falls through to the threshold walk.
var knownRecommendations = map[string]types.ActionKind{
	string(types.ActionLike):    types.ActionLike,
	string(types.ActionRetweet): types.ActionRetweet,
	string(types.ActionQuote):   types.ActionQuote,
	string(types.ActionRepost):  types.ActionRepost,
}

// Decide selects the action kind for item. With scoring disabled it
// returns the configured default kind. The structured path is tried
// first when enabled; relevance below the repost threshold is a hard
// floor that forces like regardless of the recommendation.
func (e *Engine) Decide(ctx context.Context, item *types.CandidateItem, cfg Config) types.ActionDecision {
	if !cfg.Enabled {
		kind := cfg.DefaultKind
		if kind == "" {
			kind = types.ActionRepost
		}
		return types.ActionDecision{Kind: kind, Sentiment: types.SentimentNeutral}
	}

	if cfg.PreferStructured {
		if decision, ok := e.decideStructured(ctx, item, cfg); ok {
			return decision
		}
	}
	return e.decideWithThresholds(ctx, item, cfg)
}

func (e *Engine) decideStructured(ctx context.Context, item *types.CandidateItem, cfg Config) (types.ActionDecision, bool) {
	analysis, err := e.scorer.AnalyzeStructured(ctx, item, cfg.Keywords)
	if err != nil {
		slog.Warn("structured analysis failed", "item", item.ID, "error", err)
		return types.ActionDecision{}, false
	}
	if analysis == nil {
		return types.ActionDecision{}, false
	}

	sentiment := analysis.Sentiment
	if sentiment == "" {
		sentiment = types.SentimentNeutral
	}
	if analysis.Relevance < cfg.Thresholds.Repost {
		slog.Debug("relevance below floor, overriding to like",
			"item", item.ID, "relevance", analysis.Relevance)
		return types.ActionDecision{Kind: types.ActionLike, Relevance: analysis.Relevance, Sentiment: sentiment}, true
	}
	if kind, ok := knownRecommendations[analysis.RecommendedAction]; ok {
		return types.ActionDecision{Kind: kind, Relevance: analysis.Relevance, Sentiment: sentiment}, true
	}
	slog.Debug("unrecognized recommendation, falling back to thresholds",
		"item", item.ID, "recommendation", analysis.RecommendedAction)
	return types.ActionDecision{}, false
}

func (e *Engine) decideWithThresholds(ctx context.Context, item *types.CandidateItem, cfg Config) types.ActionDecision {
	relevance, err := e.scorer.ScoreRelevance(ctx, item, cfg.Keywords)
	if err != nil {
		slog.Warn("relevance scoring failed, defaulting to like", "item", item.ID, "error", err)
		return types.ActionDecision{Kind: types.ActionLike, Sentiment: types.SentimentNeutral}
	}

	sentiment := types.SentimentNeutral
	if cfg.UseSentiment {
		classified, err := e.scorer.ClassifySentiment(ctx, item)
		if err != nil {
			slog.Warn("sentiment classification failed, assuming neutral", "item", item.ID, "error", err)
		} else if classified != "" {
			sentiment = classified
		}
	}

	var kind types.ActionKind
	switch {
	case relevance >= cfg.Thresholds.Quote && sentiment.Favorable():
		kind = types.ActionQuote
	case relevance >= cfg.Thresholds.Retweet && sentiment.Favorable():
		kind = types.ActionRetweet
	case relevance >= cfg.Thresholds.Repost:
		kind = types.ActionRepost
	default:
		kind = types.ActionLike
	}
	return types.ActionDecision{Kind: kind, Relevance: relevance, Sentiment: sentiment}
}
