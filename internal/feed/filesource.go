// Package feed provides content sources. FileContentSource reads
// candidate items from JSON drop files written by an external scraper.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/user/crowquill/internal/types"
)

// FileContentSource serves candidates from <root>/feeds/<source>.json.
// Each file holds a JSON array of candidate items; the scraper process
// replaces files wholesale, so every fetch re-reads from disk.
type FileContentSource struct {
	root string
}

func NewFileContentSource(root string) *FileContentSource {
	return &FileContentSource{root: root}
}

// Fetch reads up to count items for the named source. A missing file is
// an empty feed, not an error.
func (s *FileContentSource) Fetch(ctx context.Context, source string, count int) ([]*types.CandidateItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if source == "" {
		return nil, fmt.Errorf("source name required")
	}

	path := filepath.Join(s.root, "feeds", source+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read feed %s: %w", source, err)
	}

	var items []*types.CandidateItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal feed %s: %w", source, err)
	}
	if count > 0 && len(items) > count {
		items = items[:count]
	}
	return items, nil
}
