package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/user/crowquill/internal/analyze"
	"github.com/user/crowquill/internal/config"
	"github.com/user/crowquill/internal/decision"
	"github.com/user/crowquill/internal/feed"
	"github.com/user/crowquill/internal/metrics"
	"github.com/user/crowquill/internal/notify"
	"github.com/user/crowquill/internal/reply"
	"github.com/user/crowquill/internal/session"
	"github.com/user/crowquill/internal/state"
	"github.com/user/crowquill/internal/types"
	"github.com/user/crowquill/pkg/llm"
	"github.com/user/crowquill/pkg/llm/gemini"
	"github.com/user/crowquill/pkg/llm/openai"
)

// app wires the shared components one process instance needs.
type app struct {
	cfg      *config.Config
	router   *llm.Router
	recorder *metrics.Recorder
	notifier *notify.Telegram
	source   types.ContentSource
	executor types.ActionExecutor
	styles   types.StyleStore
	closers  []func() error
}

func buildApp(ctx context.Context, cfg *config.Config, executor types.ActionExecutor) (*app, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	a := &app{
		cfg:      cfg,
		source:   feed.NewFileContentSource(cfg.DataDir),
		executor: executor,
		styles:   state.NewFileStyleStore(cfg.DataDir),
	}

	a.router = llm.NewRouter(cfg.LLM.PreferenceOrder, cfg.LLM.DefaultMaxTokens)
	if cfg.LLM.OpenAI.APIKey != "" {
		a.router.Register(openai.New("openai", &llm.Config{
			BaseURL:     cfg.LLM.OpenAI.BaseURL,
			APIKey:      cfg.LLM.OpenAI.APIKey,
			Model:       cfg.LLM.OpenAI.Model,
			MaxTokens:   cfg.LLM.OpenAI.MaxTokens,
			Temperature: cfg.LLM.OpenAI.Temperature,
		}), llm.Params{Model: cfg.LLM.OpenAI.Model, MaxTokens: cfg.LLM.OpenAI.MaxTokens, Temperature: cfg.LLM.OpenAI.Temperature})
	}
	if cfg.LLM.Azure.APIKey != "" {
		a.router.Register(openai.NewAzure("azure", &llm.Config{
			BaseURL:     cfg.LLM.Azure.BaseURL,
			APIKey:      cfg.LLM.Azure.APIKey,
			Model:       cfg.LLM.Azure.Model,
			MaxTokens:   cfg.LLM.Azure.MaxTokens,
			Temperature: cfg.LLM.Azure.Temperature,
		}), llm.Params{MaxTokens: cfg.LLM.Azure.MaxTokens, Temperature: cfg.LLM.Azure.Temperature})
	}
	if cfg.LLM.Gemini.APIKey != "" {
		client, err := gemini.New(ctx, "gemini", cfg.LLM.Gemini.APIKey, cfg.LLM.Gemini.Model)
		if err != nil {
			return nil, fmt.Errorf("create gemini backend: %w", err)
		}
		a.router.Register(client, llm.Params{Model: cfg.LLM.Gemini.Model, MaxTokens: cfg.LLM.Gemini.MaxTokens, Temperature: cfg.LLM.Gemini.Temperature})
		a.closers = append(a.closers, client.Close)
	}

	var sinks []metrics.Sink
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		notifier, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			slog.Warn("telegram notifier disabled", "error", err)
		} else {
			a.notifier = notifier
			sinks = append(sinks, notifier)
		}
	}
	a.recorder = metrics.NewRecorder(cfg.DataDir, sinks...)

	return a, nil
}

func (a *app) Close() {
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
}

// runnerFor builds the session runner for one account.
func (a *app) runnerFor(account config.AccountConfig) (*session.Runner, error) {
	if err := account.Validate(); err != nil {
		return nil, err
	}
	cfg := session.Config{
		Account:             account.ID,
		Source:              account.Source,
		StyleSource:         account.StyleSource,
		SelfHandles:         account.SelfHandles,
		Keywords:            account.Keywords,
		ActionsPerHour:      account.ActionsPerHour,
		MaxHours:            account.MaxHours,
		MinDelay:            account.MinDelay(),
		MaxDelay:            account.MaxDelay(),
		RetryLimit:          account.RetryLimit,
		PreferredBackend:    account.PreferredBackend,
		StylePromptTemplate: account.StylePromptTemplate,
		Decision:            a.cfg.AccountDecision(account),
	}
	scorer := analyze.NewScorer(a.router, account.PreferredBackend)
	generator := reply.NewGenerator(a.router)
	if budget, err := reply.NewBudget(a.cfg.LLM.OpenAI.Model, a.cfg.LLM.MaxContextTokens, a.cfg.LLM.OutputReserve); err != nil {
		slog.Warn("prompt budget disabled", "error", err)
	} else {
		generator.SetBudget(budget)
	}
	return session.NewRunner(cfg,
		a.source,
		a.executor,
		decision.NewEngine(scorer),
		generator,
		state.NewFileDedupStore(a.cfg.DataDir, account.ID),
		a.styles,
		a.recorder,
	), nil
}

// runners builds runners for all active accounts. A malformed account
// is logged and skipped; siblings proceed.
func (a *app) runners() []*session.Runner {
	var out []*session.Runner
	for _, account := range a.cfg.ActiveAccounts() {
		runner, err := a.runnerFor(account)
		if err != nil {
			slog.Error("skipping misconfigured account", "account", account.ID, "error", err)
			continue
		}
		out = append(out, runner)
	}
	return out
}

// runAccount executes one engagement session for a single account.
// Used by the cron scheduler, where each account fires independently.
func (a *app) runAccount(ctx context.Context, id types.AccountID) {
	for _, account := range a.cfg.ActiveAccounts() {
		if account.ID != id {
			continue
		}
		runner, err := a.runnerFor(account)
		if err != nil {
			slog.Error("session skipped", "account", id, "error", err)
			return
		}
		if err := runner.Run(ctx); err != nil {
			slog.Error("session failed", "account", id, "error", err)
		}
		return
	}
	slog.Warn("scheduled account not found or inactive", "account", id)
}

// runSessions executes one engagement round across all active accounts.
func (a *app) runSessions(ctx context.Context) map[types.AccountID]error {
	a.recorder.MarkRunStart()
	failures := session.NewOrchestrator(a.cfg.MaxConcurrentAccounts).RunAll(ctx, a.runners())
	counters := a.recorder.MarkRunFinish()
	if a.notifier != nil {
		a.notifier.SendRunReport(counters)
	}
	return failures
}
