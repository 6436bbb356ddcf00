package metrics

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/crowquill/internal/types"
)

type captureSink struct {
	events []Event
}

func (c *captureSink) Record(event Event) {
	c.events = append(c.events, event)
}

func TestRecorderCountersAndSinks(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder("", sink)
	rec.MarkRunStart()

	rec.Record("acct1", types.ActionReply, OutcomeSuccess, "")
	rec.Record("acct1", types.ActionReply, OutcomeSuccess, "")
	rec.Record("acct1", types.ActionLike, OutcomeFailure, "executor error")

	counters := rec.Counters()
	if counters["reply:success"] != 2 {
		t.Errorf("expected 2 reply successes, got %d", counters["reply:success"])
	}
	if counters["like:failure"] != 1 {
		t.Errorf("expected 1 like failure, got %d", counters["like:failure"])
	}
	if len(sink.events) != 3 {
		t.Errorf("expected 3 sink events, got %d", len(sink.events))
	}
	if sink.events[2].Detail != "executor error" {
		t.Errorf("unexpected detail %q", sink.events[2].Detail)
	}
}

func TestRecorderAppendsJSONL(t *testing.T) {
	root := t.TempDir()
	rec := NewRecorder(root)
	rec.MarkRunStart()
	rec.Record("acct1", types.ActionRepost, OutcomeSuccess, "")
	rec.Record("acct1", types.ActionQuote, OutcomeRejected, "guard")

	f, err := os.Open(filepath.Join(root, "metrics", "actions.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Fatalf("invalid JSONL line: %v", err)
		}
		lines++
	}
	if lines != 2 {
		t.Errorf("expected 2 lines, got %d", lines)
	}
}

func TestMarkRunStartResetsCounters(t *testing.T) {
	rec := NewRecorder("")
	rec.MarkRunStart()
	rec.Record("acct1", types.ActionLike, OutcomeSuccess, "")
	rec.MarkRunStart()
	if len(rec.Counters()) != 0 {
		t.Error("expected counters reset on run start")
	}
}
