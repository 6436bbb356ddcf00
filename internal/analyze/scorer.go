// Package analyze implements the relevance/sentiment scorer on top of
// the backend router.
package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/crowquill/internal/textkit"
	"github.com/user/crowquill/internal/types"
	"github.com/user/crowquill/pkg/llm"
)

var analysisSchema = llm.Schema(`{
  "type": "object",
  "properties": {
    "relevance": {
      "type": "number",
      "description": "Relevance to the given keywords, 0 to 1."
    },
    "sentiment": {
      "type": "string",
      "enum": ["positive", "neutral", "negative"]
    },
    "recommended_action": {
      "type": "string",
      "enum": ["like", "retweet", "quote_tweet", "repost", "reply", "none"]
    }
  },
  "required": ["relevance", "sentiment"]
}`)

type structuredGenerator interface {
	GenerateStructured(ctx context.Context, preferred string, req *llm.Request, schema llm.Schema) (map[string]any, error)
}

// Scorer asks a generation backend to judge candidates. Implements
// types.Scorer.
type Scorer struct {
	llm     structuredGenerator
	backend string
}

// NewScorer creates a scorer routing through the given preferred backend.
func NewScorer(router structuredGenerator, backend string) *Scorer {
	return &Scorer{llm: router, backend: backend}
}

func (s *Scorer) analyze(ctx context.Context, item *types.CandidateItem, keywords []string) (map[string]any, error) {
	body := strings.TrimSpace(textkit.NormalizeBody(item.Text))
	if body == "" {
		body = "[no text supplied]"
	}
	keywordLine := "general interest"
	if len(keywords) > 0 {
		keywordLine = strings.Join(keywords, ", ")
	}
	prompt := fmt.Sprintf(
		"Judge this social post for an account interested in: %s.\n\n"+
			"Post by @%s:\n%s\n\n%s\n\n"+
			"Respond with JSON: relevance (0-1), sentiment (positive/neutral/negative), "+
			"and optionally recommended_action (like/retweet/quote_tweet/repost/reply/none).",
		keywordLine, strings.TrimPrefix(item.Author, "@"), body,
		textkit.DescribeMediaURLs(item.MediaURLs))

	return s.llm.GenerateStructured(ctx, s.backend, &llm.Request{Prompt: prompt}, analysisSchema)
}

// ScoreRelevance returns the model's relevance judgement clamped to [0, 1].
func (s *Scorer) ScoreRelevance(ctx context.Context, item *types.CandidateItem, keywords []string) (float64, error) {
	data, err := s.analyze(ctx, item, keywords)
	if err != nil {
		return 0, fmt.Errorf("score relevance: %w", err)
	}
	return clamp01(floatField(data, "relevance")), nil
}

// ClassifySentiment returns the model's sentiment judgement, neutral
// for anything unrecognized.
func (s *Scorer) ClassifySentiment(ctx context.Context, item *types.CandidateItem) (types.Sentiment, error) {
	data, err := s.analyze(ctx, item, nil)
	if err != nil {
		return "", fmt.Errorf("classify sentiment: %w", err)
	}
	return parseSentiment(data), nil
}

// AnalyzeStructured returns the combined verdict, or nil when the model
// omits a usable relevance value.
func (s *Scorer) AnalyzeStructured(ctx context.Context, item *types.CandidateItem, keywords []string) (*types.StructuredAnalysis, error) {
	data, err := s.analyze(ctx, item, keywords)
	if err != nil {
		return nil, fmt.Errorf("structured analysis: %w", err)
	}
	if _, ok := data["relevance"]; !ok {
		return nil, nil
	}
	recommended, _ := data["recommended_action"].(string)
	return &types.StructuredAnalysis{
		Relevance:         clamp01(floatField(data, "relevance")),
		Sentiment:         parseSentiment(data),
		RecommendedAction: recommended,
	}, nil
}

func parseSentiment(data map[string]any) types.Sentiment {
	raw, _ := data["sentiment"].(string)
	switch types.Sentiment(strings.ToLower(strings.TrimSpace(raw))) {
	case types.SentimentPositive:
		return types.SentimentPositive
	case types.SentimentNegative:
		return types.SentimentNegative
	default:
		return types.SentimentNeutral
	}
}

func floatField(data map[string]any, key string) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
