// Package metrics records per-action outcome events for engagement
// sessions. Events are appended to a JSONL file and forwarded to any
// configured sinks; counters aggregate in memory per run.
package metrics

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/user/crowquill/internal/types"
)

// Event is one recorded action outcome.
type Event struct {
	At      time.Time       `json:"at"`
	Account types.AccountID `json:"account"`
	Kind    string          `json:"kind"`
	Outcome string          `json:"outcome"`
	Detail  string          `json:"detail,omitempty"`
}

// Outcome values.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeSkipped  = "skipped"
	OutcomeRejected = "rejected"
)

// Sink receives every recorded event. Sinks must not block for long;
// recording happens inline with the scheduling loop.
type Sink interface {
	Record(event Event)
}

// Recorder aggregates counters and appends events to a JSONL log.
type Recorder struct {
	mu       sync.Mutex
	path     string
	counters map[string]int
	sinks    []Sink
	started  time.Time
}

// NewRecorder creates a recorder logging to <root>/metrics/actions.jsonl.
// root may be empty to disable the file log.
func NewRecorder(root string, sinks ...Sink) *Recorder {
	path := ""
	if root != "" {
		path = filepath.Join(root, "metrics", "actions.jsonl")
	}
	return &Recorder{
		path:     path,
		counters: make(map[string]int),
		sinks:    sinks,
	}
}

// MarkRunStart resets counters for a new run.
func (r *Recorder) MarkRunStart() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters = make(map[string]int)
	r.started = time.Now()
}

// Record logs one action outcome.
func (r *Recorder) Record(account types.AccountID, kind types.ActionKind, outcome, detail string) {
	event := Event{
		At:      time.Now().UTC(),
		Account: account,
		Kind:    string(kind),
		Outcome: outcome,
		Detail:  detail,
	}

	r.mu.Lock()
	r.counters[event.Kind+":"+outcome]++
	sinks := r.sinks
	r.mu.Unlock()

	if err := r.appendEvent(event); err != nil {
		slog.Warn("metrics append failed", "error", err)
	}
	for _, sink := range sinks {
		sink.Record(event)
	}
}

// Counters returns a copy of the aggregated counters for this run,
// keyed "<kind>:<outcome>".
func (r *Recorder) Counters() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.counters))
	for k, v := range r.counters {
		out[k] = v
	}
	return out
}

// MarkRunFinish logs a run summary and returns the counters.
func (r *Recorder) MarkRunFinish() map[string]int {
	counters := r.Counters()
	r.mu.Lock()
	elapsed := time.Since(r.started)
	r.mu.Unlock()
	slog.Info("run finished", "elapsed", elapsed.Round(time.Second), "counters", counters)
	return counters
}

func (r *Recorder) appendEvent(event Event) error {
	if r.path == "" {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open metrics log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append metrics event: %w", err)
	}
	return nil
}
