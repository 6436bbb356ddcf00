package session

import (
	"context"
	"testing"
	"time"

	"github.com/user/crowquill/internal/decision"
	"github.com/user/crowquill/internal/metrics"
	"github.com/user/crowquill/internal/types"
)

func TestRunAllIsolatesFailures(t *testing.T) {
	good := likeOnlyConfig()
	good.Account = "good"
	goodExecutor := &fakeExecutor{}
	goodRunner, _ := newTestRunner(good,
		&fakeSource{batches: [][]*types.CandidateItem{{makeItem("a", 1)}}},
		goodExecutor, nil, newMemDedup())

	bad := likeOnlyConfig()
	bad.Account = "bad"
	bad.ActionsPerHour = 0
	badRunner, _ := newTestRunner(bad, &fakeSource{}, &fakeExecutor{}, nil, newMemDedup())

	failures := NewOrchestrator(2).RunAll(context.Background(), []*Runner{goodRunner, badRunner})
	if _, ok := failures["bad"]; !ok {
		t.Error("expected failure recorded for bad account")
	}
	if _, ok := failures["good"]; ok {
		t.Errorf("good account should not fail: %v", failures["good"])
	}
	if len(goodExecutor.performed) != 1 {
		t.Errorf("good account should have acted, got %d actions", len(goodExecutor.performed))
	}
}

func TestRunAllRecoversPanics(t *testing.T) {
	cfg := likeOnlyConfig()
	cfg.Account = "panicky"
	// nil dedup store makes the runner panic on Load.
	runner := NewRunner(cfg,
		&fakeSource{batches: [][]*types.CandidateItem{{makeItem("a", 1)}}},
		&fakeExecutor{},
		decision.NewEngine(&fixedScorer{relevance: 0.4}),
		&stubGenerator{text: "x"}, nil, &memStyles{}, metrics.NewRecorder(""))
	clock := &fakeClock{now: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
	runner.now = clock.Now
	runner.sleep = clock.Sleep

	failures := NewOrchestrator(1).RunAll(context.Background(), []*Runner{runner})
	if _, ok := failures["panicky"]; !ok {
		t.Error("expected panic reported as failure")
	}
}

func TestRunAllBoundsConcurrency(t *testing.T) {
	var runners []*Runner
	executors := make([]*fakeExecutor, 3)
	for i := range executors {
		cfg := likeOnlyConfig()
		cfg.Account = types.AccountID(string(rune('a' + i)))
		executors[i] = &fakeExecutor{}
		r, _ := newTestRunner(cfg,
			&fakeSource{batches: [][]*types.CandidateItem{{makeItem("x", 1)}}},
			executors[i], nil, newMemDedup())
		runners = append(runners, r)
	}

	failures := NewOrchestrator(1).RunAll(context.Background(), runners)
	if len(failures) != 0 {
		t.Errorf("expected no failures, got %v", failures)
	}
	for i, e := range executors {
		if len(e.performed) != 1 {
			t.Errorf("runner %d performed %d actions", i, len(e.performed))
		}
	}
}
