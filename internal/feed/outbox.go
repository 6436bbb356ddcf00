package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/user/crowquill/internal/types"
)

// FileActionOutbox queues decided actions as JSON files under
// <root>/outbox/ for the external browser worker to execute. Queueing
// counts as success; the worker reports its own outcomes out of band.
type FileActionOutbox struct {
	root string
}

func NewFileActionOutbox(root string) *FileActionOutbox {
	return &FileActionOutbox{root: root}
}

// queuedAction is the wire format the browser worker consumes.
type queuedAction struct {
	ID       string               `json:"id"`
	QueuedAt time.Time            `json:"queued_at"`
	Kind     types.ActionKind     `json:"kind"`
	Item     *types.CandidateItem `json:"item"`
	Text     string               `json:"text,omitempty"`
}

func (o *FileActionOutbox) Perform(ctx context.Context, kind types.ActionKind, item *types.CandidateItem, text string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	action := queuedAction{
		ID:       uuid.New().String(),
		QueuedAt: time.Now().UTC(),
		Kind:     kind,
		Item:     item,
		Text:     text,
	}
	data, err := json.MarshalIndent(action, "", "  ")
	if err != nil {
		return false, fmt.Errorf("marshal action: %w", err)
	}

	dir := filepath.Join(o.root, "outbox")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create outbox dir: %w", err)
	}
	path := filepath.Join(dir, action.ID+".json")

	// Atomic write: write to temp file then rename
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return false, fmt.Errorf("write action: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return false, fmt.Errorf("rename action: %w", err)
	}
	return true, nil
}
