package reply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/user/crowquill/internal/types"
	"github.com/user/crowquill/pkg/llm"
)

// ErrGuardRejected is returned when every generation attempt failed a
// guardrail check. The returned Metadata carries the last failure reason.
var ErrGuardRejected = errors.New("reply rejected by guardrails")

var replySchema = llm.Schema(`{
  "type": "object",
  "properties": {
    "reply_text": {
      "type": "string",
      "description": "Final reply under 270 characters."
    },
    "is_relevant": {"type": "boolean"},
    "relevance_reason": {
      "type": "string",
      "description": "Brief reason explaining relevance judgement."
    },
    "referenced_topics": {
      "type": "array",
      "items": {"type": "string"},
      "description": "Key topics mentioned in the reply."
    }
  },
  "required": ["reply_text", "is_relevant", "relevance_reason"]
}`)

// structuredGenerator is the slice of the backend router the guard loop
// needs. Satisfied by *llm.Router.
type structuredGenerator interface {
	GenerateStructured(ctx context.Context, preferred string, req *llm.Request, schema llm.Schema) (map[string]any, error)
}

// Metadata describes the outcome of one guarded generation run.
type Metadata struct {
	RelevanceReason  string
	ReferencedTopics []string
	Attempts         int
	FlaggedTerms     []string
}

// Options parametrize one guarded generation run.
type Options struct {
	// SystemPrompt is the persona system prompt, empty for none.
	SystemPrompt string
	// StyleSummary carries the account's style context when style should
	// influence this reply.
	StyleSummary string
	// PersonaHandle names the account the reply is posted as.
	PersonaHandle string
	// Backend is the preferred backend name passed to the router.
	Backend string
	// Params override backend defaults for this run.
	Params llm.Params
	// Media holds inline attachments forwarded to the backend.
	Media []llm.MediaAttachment
	// BannedTerms extend the default off-topic term list.
	BannedTerms []string
	// RetryLimit caps generation attempts; values below 1 mean one attempt.
	RetryLimit int
}

// Generator runs the guarded reply pipeline against a backend router.
type Generator struct {
	llm    structuredGenerator
	budget *Budget
}

func NewGenerator(router structuredGenerator) *Generator {
	return &Generator{llm: router}
}

// SetBudget installs a token budget. Instructions are trimmed to fit the
// model's context window before each attempt.
func (g *Generator) SetBudget(b *Budget) {
	g.budget = b
}

// Generate produces a reply for item that passes the topical guardrails,
// retrying with correction feedback on each rejection. On exhaustion it
// returns ErrGuardRejected and metadata describing the last failure.
func (g *Generator) Generate(ctx context.Context, item *types.CandidateItem, opts Options) (string, Metadata, error) {
	itemCtx := prepareContext(item)
	banned := mergeUnique(defaultOffTopicTerms, opts.BannedTerms)

	slog.Info("reply generation requested",
		"item", item.ID,
		"style_applied", opts.StyleSummary != "",
		"media_count", len(itemCtx.MediaURLs),
		"text_chars", len(itemCtx.Text))

	maxAttempts := opts.RetryLimit
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastFailure string
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		feedback := ""
		if attempt > 1 {
			feedback = lastFailure
		}
		instruction := buildInstruction(item, itemCtx, opts.StyleSummary, opts.PersonaHandle, banned, feedback)
		if g.budget != nil {
			instruction = g.budget.TrimToFit(instruction, g.budget.InputBudget()-g.budget.Count(opts.SystemPrompt))
		}

		params := opts.Params
		if len(opts.Media) > 0 {
			params.Media = opts.Media
		}
		data, err := g.llm.GenerateStructured(ctx, opts.Backend, &llm.Request{
			Prompt:       instruction,
			SystemPrompt: opts.SystemPrompt,
			Params:       params,
		}, replySchema)
		if err != nil {
			lastFailure = "No structured response produced."
			slog.Debug("structured reply attempt failed", "attempt", attempt, "error", err)
			continue
		}
		if data == nil {
			lastFailure = "No structured response produced."
			continue
		}

		replyText := strings.TrimSpace(stringField(data, "reply_text"))
		if replyText != "" {
			replyText = truncateRunes(replyText, MaxReplyChars)
		}
		isRelevant, _ := data["is_relevant"].(bool)
		relevanceReason := strings.TrimSpace(stringField(data, "relevance_reason"))
		referencedTopics := stringSliceField(data, "referenced_topics")

		var flagged []string
		if replyText != "" {
			flagged = findOffTopicTerms(replyText, itemCtx.Text, itemCtx.Keywords)
		}

		switch {
		case replyText == "":
			lastFailure = "No reply text returned."
		case len([]rune(replyText)) > MaxReplyChars:
			lastFailure = "Reply exceeded character limit."
		case !isRelevant:
			lastFailure = relevanceReason
			if lastFailure == "" {
				lastFailure = "Model flagged reply as not relevant."
			}
		case len(flagged) > 0:
			lastFailure = fmt.Sprintf("Reply referenced off-topic terms: %s.", strings.Join(flagged, ", "))
		default:
			slog.Info("reply accepted", "item", item.ID, "attempt", attempt, "reason", relevanceReason)
			return replyText, Metadata{
				RelevanceReason:  relevanceReason,
				ReferencedTopics: referencedTopics,
				Attempts:         attempt,
			}, nil
		}

		slog.Debug("reply guard rejected attempt", "attempt", attempt, "reason", lastFailure)
	}

	slog.Warn("reply generation failed", "item", item.ID, "attempts", maxAttempts, "reason", lastFailure)
	if lastFailure == "" {
		lastFailure = "Unknown guard failure."
	}
	return "", Metadata{
		RelevanceReason: lastFailure,
		Attempts:        maxAttempts,
	}, fmt.Errorf("%w: %s", ErrGuardRejected, lastFailure)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimRight(string(runes[:limit]), " \t\n")
}

func stringField(data map[string]any, key string) string {
	value, _ := data[key].(string)
	return value
}

func stringSliceField(data map[string]any, key string) []string {
	raw, ok := data[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		if s, ok := entry.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
