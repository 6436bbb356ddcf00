package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/user/crowquill/internal/decision"
	"github.com/user/crowquill/internal/metrics"
	"github.com/user/crowquill/internal/reply"
	"github.com/user/crowquill/internal/style"
	"github.com/user/crowquill/internal/types"
	"github.com/user/crowquill/pkg/llm"
)

const (
	styleFetchCount = 30
	styleMaxItems   = 20
	// maxInlineMedia caps media attachments forwarded to backends.
	maxInlineMedia = 4
)

// Config parametrizes one account's engagement sessions.
type Config struct {
	Account types.AccountID
	// Source names the content source query for candidate items.
	Source string
	// StyleSource names the query for the account's own posts; empty
	// disables the style snapshot.
	StyleSource string
	// SelfHandles are the account's handles, used for self-post
	// detection and style filtering.
	SelfHandles []string
	// Keywords steer relevance scoring and banned-term licensing.
	Keywords []string

	ActionsPerHour int
	MaxHours       int
	MinDelay       time.Duration
	MaxDelay       time.Duration
	RetryLimit     int

	// PreferredBackend is passed through to the backend router.
	PreferredBackend string
	// StylePromptTemplate overrides the persona system prompt; it may
	// reference {handle}, {account_id}, {style_context} and
	// {media_references}.
	StylePromptTemplate string

	Decision decision.Config
}

// generator is the slice of the guarded reply pipeline the runner uses.
type generator interface {
	Generate(ctx context.Context, item *types.CandidateItem, opts reply.Options) (string, reply.Metadata, error)
}

// Runner drives one account's session loop.
type Runner struct {
	cfg       Config
	source    types.ContentSource
	executor  types.ActionExecutor
	engine    *decision.Engine
	generator generator
	dedup     types.DedupStore
	styles    types.StyleStore
	recorder  *metrics.Recorder

	// Injectable time hooks for tests.
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	uniform func(min, max time.Duration) time.Duration
}

func NewRunner(cfg Config, source types.ContentSource, executor types.ActionExecutor, engine *decision.Engine, gen generator, dedup types.DedupStore, styles types.StyleStore, recorder *metrics.Recorder) *Runner {
	return &Runner{
		cfg:       cfg,
		source:    source,
		executor:  executor,
		engine:    engine,
		generator: gen,
		dedup:     dedup,
		styles:    styles,
		recorder:  recorder,
		now:       time.Now,
		sleep:     sleepContext,
		uniform:   uniformDuration,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func uniformDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

func (r *Runner) validate() error {
	if r.cfg.Account == "" {
		return fmt.Errorf("account id required")
	}
	if r.cfg.Source == "" {
		return fmt.Errorf("content source required")
	}
	if r.cfg.ActionsPerHour < 1 {
		return fmt.Errorf("actions per hour must be at least 1, got %d", r.cfg.ActionsPerHour)
	}
	if r.cfg.MaxHours < 1 {
		return fmt.Errorf("max hours must be at least 1, got %d", r.cfg.MaxHours)
	}
	return nil
}

// Run executes one engagement session. It returns nil when the session
// ends on its own terms and an error only for configuration faults,
// dedup store faults, or cancellation.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.validate(); err != nil {
		return fmt.Errorf("account %s: %w", r.cfg.Account, err)
	}

	sessionID := types.NewSessionID()
	log := slog.With("account", r.cfg.Account, "session", sessionID)

	performed, err := r.dedup.Load()
	if err != nil {
		return fmt.Errorf("load dedup store: %w", err)
	}

	persona := r.buildPersona(ctx, log)
	pace := deriveSpacing(r.cfg.MinDelay, r.cfg.MaxDelay, r.cfg.ActionsPerHour)
	fetchCount := batchSize(r.cfg.ActionsPerHour)
	sessionCap := r.cfg.ActionsPerHour * r.cfg.MaxHours

	start := r.now()
	end := start.Add(time.Duration(r.cfg.MaxHours) * time.Hour)
	windowStart := start
	hourCount := 0
	total := 0
	earliestNext := start

	log.Info("session started",
		"actions_per_hour", r.cfg.ActionsPerHour,
		"max_hours", r.cfg.MaxHours,
		"spacing_min", pace.min,
		"spacing_max", pace.max)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		now := r.now()
		if !now.Before(end) {
			log.Info("session end time reached", "total_actions", total)
			return nil
		}
		if total >= sessionCap {
			log.Info("session action cap reached", "total_actions", total)
			return nil
		}
		if now.Sub(windowStart) >= time.Hour {
			windowStart = now
			hourCount = 0
		}
		if hourCount >= r.cfg.ActionsPerHour {
			remaining := end.Sub(now)
			if remaining <= 0 {
				log.Info("session ended during cooldown", "total_actions", total)
				return nil
			}
			cooldown := windowStart.Add(time.Hour).Sub(now)
			if cooldown > remaining {
				cooldown = remaining
			}
			log.Info("hourly cap reached, cooling down", "cooldown", cooldown.Round(time.Second))
			if err := r.sleep(ctx, cooldown); err != nil {
				return err
			}
			windowStart = r.now()
			hourCount = 0
			continue
		}

		batch, err := r.source.Fetch(ctx, r.cfg.Source, fetchCount)
		if err != nil {
			log.Warn("candidate fetch failed, ending session", "error", err)
			return nil
		}
		if len(batch) == 0 {
			log.Info("no candidates available, ending session", "total_actions", total)
			return nil
		}

		acted := false
		for _, item := range Rank(batch) {
			if item == nil || item.ID == "" {
				continue
			}
			if r.isSelfAuthored(item) {
				continue
			}

			decided := r.engine.Decide(ctx, item, r.decisionConfig())
			if decided.Kind == types.ActionNone {
				r.recorder.Record(r.cfg.Account, decided.Kind, metrics.OutcomeSkipped, "decision: none")
				continue
			}

			key := types.ActionKey(decided.Kind, r.cfg.Account, item.ID)
			if _, done := performed[key]; done {
				continue
			}

			text := ""
			if decided.Kind.NeedsText() {
				generated, meta, err := r.generator.Generate(ctx, item, r.replyOptions(item, persona))
				if err != nil {
					r.recorder.Record(r.cfg.Account, decided.Kind, metrics.OutcomeRejected, meta.RelevanceReason)
					continue
				}
				text = generated
			}

			if wait := earliestNext.Sub(r.now()); wait > 0 {
				if err := r.sleep(ctx, wait); err != nil {
					return err
				}
			}

			ok, err := r.executor.Perform(ctx, decided.Kind, item, text)
			if err != nil {
				log.Warn("action execution errored", "kind", decided.Kind, "item", item.ID, "error", err)
				r.recorder.Record(r.cfg.Account, decided.Kind, metrics.OutcomeFailure, err.Error())
				continue
			}
			if !ok {
				r.recorder.Record(r.cfg.Account, decided.Kind, metrics.OutcomeFailure, "executor declined")
				continue
			}

			r.recorder.Record(r.cfg.Account, decided.Kind, metrics.OutcomeSuccess,
				fmt.Sprintf("relevance=%.2f sentiment=%s", decided.Relevance, decided.Sentiment))
			performed[key] = struct{}{}
			if err := r.dedup.Save(key, r.now()); err != nil {
				log.Warn("dedup save failed", "key", key, "error", err)
			}
			hourCount++
			total++
			earliestNext = r.now().Add(r.uniform(pace.min, pace.max))
			acted = true
			break
		}

		if !acted {
			log.Info("batch produced no successful action, ending session", "total_actions", total)
			return nil
		}
	}
}

func (r *Runner) decisionConfig() decision.Config {
	cfg := r.cfg.Decision
	if len(cfg.Keywords) == 0 {
		cfg.Keywords = r.cfg.Keywords
	}
	return cfg
}

func (r *Runner) isSelfAuthored(item *types.CandidateItem) bool {
	author := style.NormalizeHandle(item.Author)
	if author == "" {
		return false
	}
	if author == style.NormalizeHandle(string(r.cfg.Account)) {
		return true
	}
	for _, handle := range r.cfg.SelfHandles {
		if author == style.NormalizeHandle(handle) {
			return true
		}
	}
	return false
}

// persona bundles the session-scoped generation context. basePrompt is
// the style-free prompt used when a reply should not carry the account's
// voice profile.
type persona struct {
	systemPrompt string
	basePrompt   string
	styleSummary string
	keywords     []string
	media        []llm.MediaAttachment
}

// buildPersona assembles the system prompt and style context for this
// session. Failures degrade to a style-free persona.
func (r *Runner) buildPersona(ctx context.Context, log *slog.Logger) persona {
	handle := r.primaryHandle()
	base := defaultSystemPrompt(handle, "")
	p := persona{systemPrompt: base, basePrompt: base}

	if r.cfg.StyleSource == "" {
		return p
	}
	recent, err := r.source.Fetch(ctx, r.cfg.StyleSource, styleFetchCount)
	if err != nil {
		log.Warn("style fetch failed, continuing without style", "error", err)
		return p
	}
	own := style.FilterSelfPosts(recent, r.cfg.SelfHandles)
	styleContext, snapshot := style.Build(own, r.cfg.SelfHandles, styleMaxItems)
	if snapshot == nil {
		return p
	}

	p.styleSummary = styleContext
	p.keywords = snapshot.Keywords
	p.media = inlineMedia(snapshot)
	p.systemPrompt = r.renderSystemPrompt(handle, styleContext, snapshot)

	if err := r.styles.Write(r.cfg.Account, snapshot); err != nil {
		log.Warn("style snapshot write failed", "error", err)
	}
	return p
}

func (r *Runner) primaryHandle() string {
	for _, h := range r.cfg.SelfHandles {
		if normalized := style.NormalizeHandle(h); normalized != "" {
			return normalized
		}
	}
	return style.NormalizeHandle(string(r.cfg.Account))
}

func defaultSystemPrompt(handle, styleContext string) string {
	prompt := fmt.Sprintf("You are @%s, posting on X (Twitter). Stay in character and keep replies concise.", handle)
	if styleContext != "" {
		prompt += "\n\nRecent posts for voice reference:\n" + styleContext
	}
	return prompt
}

func (r *Runner) renderSystemPrompt(handle, styleContext string, snapshot *types.StyleSnapshot) string {
	if r.cfg.StylePromptTemplate == "" {
		return defaultSystemPrompt(handle, styleContext)
	}
	rendered := strings.NewReplacer(
		"{handle}", handle,
		"{account_id}", string(r.cfg.Account),
		"{style_context}", styleContext,
		"{media_references}", fmt.Sprintf("%d of %d recent posts carry media", snapshot.MediaEntryCount, len(snapshot.Entries)),
	).Replace(r.cfg.StylePromptTemplate)
	if strings.TrimSpace(rendered) == "" {
		return defaultSystemPrompt(handle, styleContext)
	}
	return rendered
}

// inlineMedia collects up to maxInlineMedia attachments from the
// snapshot's recent posts, newest first.
func inlineMedia(snapshot *types.StyleSnapshot) []llm.MediaAttachment {
	var media []llm.MediaAttachment
	for _, entry := range snapshot.Entries {
		for _, url := range entry.MediaURLs {
			if len(media) >= maxInlineMedia {
				return media
			}
			media = append(media, llm.MediaAttachment{Parts: []llm.MediaPart{
				{Text: "Media from a recent post by this account:"},
				{URL: url},
			}})
		}
	}
	return media
}

// itemMedia shapes the candidate's own media into inline attachments,
// newest-listed first, capped at maxInlineMedia.
func itemMedia(item *types.CandidateItem) []llm.MediaAttachment {
	var media []llm.MediaAttachment
	for _, url := range item.MediaURLs {
		if len(media) >= maxInlineMedia {
			break
		}
		media = append(media, llm.MediaAttachment{Parts: []llm.MediaPart{
			{Text: "Media embedded in the post:"},
			{URL: url},
		}})
	}
	return media
}

func (r *Runner) replyOptions(item *types.CandidateItem, p persona) reply.Options {
	opts := reply.Options{
		SystemPrompt:  p.basePrompt,
		PersonaHandle: r.primaryHandle(),
		Backend:       r.cfg.PreferredBackend,
		RetryLimit:    r.cfg.RetryLimit,
		Media:         itemMedia(item),
	}
	if reply.ShouldApplyStyle(item, p.keywords) {
		opts.SystemPrompt = p.systemPrompt
		opts.StyleSummary = p.styleSummary
		opts.Media = append(opts.Media, p.media...)
	}
	return opts
}
