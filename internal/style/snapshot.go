// Package style builds persona-voice snapshots from an account's own
// recent posts. Snapshots feed the system prompt for generated replies
// and are rebuilt once per session.
package style

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/user/crowquill/internal/textkit"
	"github.com/user/crowquill/internal/types"
)

const (
	// MaxContextChars caps the style context injected into prompts.
	MaxContextChars = 800

	snippetChars = 220

	// minSelfPosts is the threshold below which self-post filtering is
	// abandoned in favor of the unfiltered sample.
	minSelfPosts = 3
)

// NormalizeHandle reduces a handle or profile URL to a bare lowercase
// username. Returns "" when nothing usable remains.
func NormalizeHandle(raw string) string {
	handle := strings.TrimSpace(raw)
	if handle == "" {
		return ""
	}
	if idx := strings.Index(handle, "x.com/"); idx >= 0 {
		handle = handle[idx+len("x.com/"):]
	}
	if idx := strings.IndexAny(handle, "?#"); idx >= 0 {
		handle = handle[:idx]
	}
	if idx := strings.Index(handle, "/"); idx >= 0 {
		handle = handle[:idx]
	}
	handle = strings.TrimPrefix(handle, "@")
	return strings.ToLower(strings.TrimSpace(handle))
}

// FilterSelfPosts keeps items authored by one of the given handles.
// When fewer than three survive, the unfiltered input is returned so a
// sparse profile still yields a usable snapshot.
func FilterSelfPosts(items []*types.CandidateItem, handles []string) []*types.CandidateItem {
	allowed := make(map[string]struct{}, len(handles))
	for _, h := range handles {
		if normalized := NormalizeHandle(h); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return items
	}
	var own []*types.CandidateItem
	for _, item := range items {
		if _, ok := allowed[NormalizeHandle(item.Author)]; ok {
			own = append(own, item)
		}
	}
	if len(own) < minSelfPosts {
		return items
	}
	return own
}

// Build derives the style context text and snapshot from recent posts.
// Items are deduplicated by ID, sorted newest first, and truncated to
// maxItems before analysis. Returns ("", nil) when no items remain.
func Build(items []*types.CandidateItem, handles []string, maxItems int) (string, *types.StyleSnapshot) {
	seen := make(map[types.ItemID]struct{}, len(items))
	unique := make([]*types.CandidateItem, 0, len(items))
	for _, item := range items {
		if item == nil || item.ID == "" {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		unique = append(unique, item)
	}
	if len(unique) == 0 {
		return "", nil
	}

	// Newest first; undated entries sink to the end.
	sort.SliceStable(unique, func(i, j int) bool {
		a, b := unique[i].CreatedAt, unique[j].CreatedAt
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.After(b)
	})
	if maxItems > 0 && len(unique) > maxItems {
		unique = unique[:maxItems]
	}

	var texts []string
	var withMedia int
	entries := make([]types.PostSummary, 0, len(unique))
	lines := make([]string, 0, len(unique))
	for i, item := range unique {
		body := textkit.NormalizeBody(item.Text)
		texts = append(texts, body)
		if len(item.MediaURLs) > 0 {
			withMedia++
		}
		entries = append(entries, types.PostSummary{
			ItemID:    item.ID,
			URL:       item.URL,
			CreatedAt: item.CreatedAt,
			Likes:     item.Likes,
			Reposts:   item.Reposts,
			Replies:   item.Replies,
			Views:     item.Views,
			Text:      body,
			MediaURLs: item.MediaURLs,
		})
		lines = append(lines, formatLine(i+1, item.CreatedAt, body))
	}

	keywords := textkit.ExtractKeywords(texts, 8)
	tone := textkit.InferTone(texts)
	ratio := textkit.MediaUsageRatio(withMedia, len(unique))

	var primaryHandle string
	if len(handles) > 0 {
		primaryHandle = NormalizeHandle(handles[0])
	}

	summary := fmt.Sprintf(
		"Tone: %s. Frequent topics: %s. Media usage ratio: %.2f.",
		tone, joinOr(keywords, "none"), ratio,
	)

	context := strings.Join(lines, "\n")
	if runes := []rune(context); len(runes) > MaxContextChars {
		context = string(runes[:MaxContextChars]) + "…"
	}

	return context, &types.StyleSnapshot{
		Handle:          primaryHandle,
		GeneratedAt:     time.Now().UTC(),
		Entries:         entries,
		MediaEntryCount: withMedia,
		Keywords:        keywords,
		Tone:            tone,
		MediaRatio:      ratio,
		Summary:         summary,
	}
}

func formatLine(n int, createdAt time.Time, body string) string {
	stamp := "undated"
	if !createdAt.IsZero() {
		stamp = createdAt.UTC().Format("2006-01-02 15:04") + " UTC"
	}
	snippet := strings.Join(strings.Fields(body), " ")
	if runes := []rune(snippet); len(runes) > snippetChars {
		snippet = string(runes[:snippetChars])
	}
	return fmt.Sprintf("%d. %s | %s", n, stamp, snippet)
}

func joinOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}
