package session

import (
	"testing"
	"time"

	"github.com/user/crowquill/internal/types"
)

func TestDeriveSpacingTargetRaisesMinimum(t *testing.T) {
	// 60 actions/hour targets 60s spacing; configured 10s is too fast.
	pace := deriveSpacing(10*time.Second, 20*time.Second, 60)
	if pace.min != 60*time.Second {
		t.Errorf("expected min 60s, got %v", pace.min)
	}
	// Configured max fell below the minimum and gets lifted by at
	// least 30s.
	if pace.max != 90*time.Second {
		t.Errorf("expected max 90s, got %v", pace.max)
	}
}

func TestDeriveSpacingKeepsValidRange(t *testing.T) {
	pace := deriveSpacing(30*time.Second, 300*time.Second, 120)
	if pace.min != 30*time.Second {
		t.Errorf("expected min 30s, got %v", pace.min)
	}
	if pace.max != 300*time.Second {
		t.Errorf("expected max 300s, got %v", pace.max)
	}
}

func TestDeriveSpacingLiftsDegenerateRange(t *testing.T) {
	pace := deriveSpacing(3600*time.Second, 3600*time.Second, 1)
	if pace.max <= pace.min {
		t.Errorf("expected non-degenerate range, got min %v max %v", pace.min, pace.max)
	}
	if pace.max-pace.min < time.Second {
		t.Errorf("range below 1s: %v", pace.max-pace.min)
	}
}

func TestDeriveSpacingProportionalLift(t *testing.T) {
	// 6 actions/hour targets 600s; 15% of the minimum exceeds the 30s floor.
	pace := deriveSpacing(0, 0, 6)
	if pace.min != 600*time.Second {
		t.Errorf("expected min 600s, got %v", pace.min)
	}
	if pace.max != 690*time.Second {
		t.Errorf("expected max 690s, got %v", pace.max)
	}
}

func TestBatchSize(t *testing.T) {
	if got := batchSize(5); got != 40 {
		t.Errorf("expected floor of 40, got %d", got)
	}
	if got := batchSize(20); got != 80 {
		t.Errorf("expected 80, got %d", got)
	}
}

func TestPopularityScore(t *testing.T) {
	item := &types.CandidateItem{Likes: 10, Reposts: 2, Replies: 1, Views: 1000}
	if got := PopularityScore(item); got != 33.2 {
		t.Errorf("expected 33.2, got %v", got)
	}
}

func TestRankDescending(t *testing.T) {
	items := []*types.CandidateItem{
		{ID: "low", Likes: 1},
		{ID: "high", Likes: 100},
		{ID: "mid", Likes: 50},
	}
	ranked := Rank(items)
	if ranked[0].ID != "high" || ranked[1].ID != "mid" || ranked[2].ID != "low" {
		t.Errorf("unexpected order: %v, %v, %v", ranked[0].ID, ranked[1].ID, ranked[2].ID)
	}
	// Input untouched.
	if items[0].ID != "low" {
		t.Error("input slice was reordered")
	}
}
