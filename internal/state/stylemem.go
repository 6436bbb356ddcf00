// internal/state/stylemem.go
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/crowquill/internal/types"
)

// FileStyleStore persists style snapshots as one JSON file per account
// under <root>/styles/. Writes replace the previous snapshot.
type FileStyleStore struct {
	root string
	mu   sync.Mutex
}

func NewFileStyleStore(root string) *FileStyleStore {
	return &FileStyleStore{root: root}
}

func (s *FileStyleStore) snapshotPath(account types.AccountID) string {
	return filepath.Join(s.root, "styles", string(account)+".json")
}

// Write stores the latest snapshot for account.
func (s *FileStyleStore) Write(account types.AccountID, snapshot *types.StyleSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal style snapshot: %w", err)
	}

	path := s.snapshotPath(account)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create styles dir: %w", err)
	}

	// Atomic write: write to temp file then rename
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp snapshot: %w", err)
	}
	return nil
}

// Read loads the stored snapshot for account, or nil when none exists.
func (s *FileStyleStore) Read(account types.AccountID) (*types.StyleSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.snapshotPath(account))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read style snapshot: %w", err)
	}
	var snapshot types.StyleSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal style snapshot: %w", err)
	}
	return &snapshot, nil
}
