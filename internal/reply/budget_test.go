package reply

import (
	"strings"
	"testing"
)

func TestBudgetCount(t *testing.T) {
	b, err := NewBudget("gpt-4", 128000, 4096)
	if err != nil {
		t.Fatalf("NewBudget failed: %v", err)
	}
	if n := b.Count("hello world"); n == 0 {
		t.Error("expected nonzero token count")
	}
	if b.InputBudget() != 128000-4096 {
		t.Errorf("expected input budget %d, got %d", 128000-4096, b.InputBudget())
	}
}

func TestBudgetUnknownModelFallsBack(t *testing.T) {
	b, err := NewBudget("not-a-real-model", 1000, 100)
	if err != nil {
		t.Fatalf("NewBudget failed: %v", err)
	}
	if n := b.Count("fallback tokenizer still counts"); n == 0 {
		t.Error("expected nonzero token count from fallback encoding")
	}
}

func TestBudgetTrimToFit(t *testing.T) {
	b, err := NewBudget("gpt-4", 500, 100)
	if err != nil {
		t.Fatalf("NewBudget failed: %v", err)
	}

	short := "short prompt"
	if got := b.TrimToFit(short, 100); got != short {
		t.Errorf("short text should pass through unchanged, got %q", got)
	}

	long := strings.Repeat("engagement pacing thresholds ", 200)
	trimmed := b.TrimToFit(long, 50)
	if b.Count(trimmed) > 50 {
		t.Errorf("trimmed text still exceeds budget: %d tokens", b.Count(trimmed))
	}
	if trimmed == long {
		t.Error("expected long text to be trimmed")
	}

	if got := b.TrimToFit(long, 0); got != "" {
		t.Errorf("zero budget should yield empty string, got %q", got)
	}
}
