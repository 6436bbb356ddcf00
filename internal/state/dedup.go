// internal/state/dedup.go
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/user/crowquill/internal/types"
)

// FileDedupStore is a JSON-file-backed record of performed action keys.
// The file maps each key to the timestamp it was recorded; keys are
// never removed. One store serves one account.
type FileDedupStore struct {
	path string
	mu   sync.Mutex
}

// NewFileDedupStore creates a dedup store for one account under root.
func NewFileDedupStore(root string, account types.AccountID) *FileDedupStore {
	return &FileDedupStore{
		path: filepath.Join(root, "dedup", string(account)+".json"),
	}
}

func (s *FileDedupStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("read dedup store: %w", err)
	}
	var records map[string]string
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal dedup store: %w", err)
	}
	return records, nil
}

// Load returns the set of recorded action keys.
func (s *FileDedupStore) Load() (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return nil, err
	}
	keys := make(map[string]struct{}, len(records))
	for key := range records {
		keys[key] = struct{}{}
	}
	return keys, nil
}

// Save records one action key with its timestamp.
func (s *FileDedupStore) Save(key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}
	records[key] = at.UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dedup store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create dedup dir: %w", err)
	}

	// Atomic write: write to temp file then rename
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp dedup store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp dedup store: %w", err)
	}
	return nil
}
