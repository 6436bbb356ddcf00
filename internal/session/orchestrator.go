package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/user/crowquill/internal/types"
)

// Orchestrator fans out account sessions with bounded concurrency.
// A fault in one account's session is reported and never aborts
// sibling accounts.
type Orchestrator struct {
	limit int64
}

// NewOrchestrator bounds concurrent account sessions to limit; values
// below 1 run accounts one at a time.
func NewOrchestrator(limit int) *Orchestrator {
	if limit < 1 {
		limit = 1
	}
	return &Orchestrator{limit: int64(limit)}
}

// RunAll runs every runner to completion and returns the per-account
// errors, keyed by account. Context cancellation aborts waiting
// runners; in-flight runners observe it through their own context use.
func (o *Orchestrator) RunAll(ctx context.Context, runners []*Runner) map[types.AccountID]error {
	sem := semaphore.NewWeighted(o.limit)
	var mu sync.Mutex
	var wg sync.WaitGroup
	failures := make(map[types.AccountID]error)

	record := func(account types.AccountID, err error) {
		mu.Lock()
		failures[account] = err
		mu.Unlock()
	}

	for _, runner := range runners {
		if err := sem.Acquire(ctx, 1); err != nil {
			record(runner.cfg.Account, err)
			continue
		}
		wg.Add(1)
		go func(r *Runner) {
			defer wg.Done()
			defer sem.Release(1)
			defer func() {
				if v := recover(); v != nil {
					slog.Error("session panicked", "account", r.cfg.Account, "panic", v)
					record(r.cfg.Account, fmt.Errorf("session panic: %v", v))
				}
			}()
			if err := r.Run(ctx); err != nil {
				slog.Error("session failed", "account", r.cfg.Account, "error", err)
				record(r.cfg.Account, err)
			}
		}(runner)
	}

	wg.Wait()
	return failures
}
