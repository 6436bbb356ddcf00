// Package reply generates guarded reply text for engagement actions.
// Generation is schema-constrained and re-attempted with correction
// feedback until the reply passes topical guardrails or attempts run out.
package reply

import (
	"strings"

	"github.com/user/crowquill/internal/textkit"
	"github.com/user/crowquill/internal/types"
)

// itemContext is the pre-computed analysis of one candidate item that
// both the instruction builder and the guard checks share.
type itemContext struct {
	Text      string
	Keywords  []string
	MediaURLs []string
	MediaNote string
	// Descriptor is a short natural-language hint line for the model.
	Descriptor string
	Humorous   bool
}

func prepareContext(item *types.CandidateItem) itemContext {
	text := strings.TrimSpace(textkit.NormalizeBody(item.Text))
	keywords := textkit.ExtractKeywords([]string{text}, 6)
	tone := textkit.InferTone([]string{text})
	humorous := textkit.IsProbablyHumorous(text)

	var mediaURLs []string
	for _, url := range item.MediaURLs {
		if url != "" {
			mediaURLs = append(mediaURLs, url)
		}
	}

	segments := []string{"Tone: " + tone + "."}
	if humorous {
		segments = append(segments, "Humorous or meme-like language detected.")
	}
	if strings.Contains(text, "?") {
		segments = append(segments, "This post asks a question; answer it directly.")
	}
	if text == "" && len(mediaURLs) > 0 {
		segments = append(segments, "Post has no textual caption; rely on media context or acknowledge if you cannot view it.")
	}

	return itemContext{
		Text:       text,
		Keywords:   keywords,
		MediaURLs:  mediaURLs,
		MediaNote:  textkit.DescribeMediaURLs(mediaURLs),
		Descriptor: strings.Join(segments, " "),
		Humorous:   humorous,
	}
}

// ShouldApplyStyle reports whether the account style profile should
// influence the reply to this item. Style is skipped for humorous posts
// and for posts with no token overlap with the style keywords.
func ShouldApplyStyle(item *types.CandidateItem, styleKeywords []string) bool {
	if len(styleKeywords) == 0 {
		return false
	}
	ctx := prepareContext(item)
	if ctx.Humorous {
		return false
	}
	tokens := textkit.OverlapTokens(ctx.Text)
	for _, keyword := range styleKeywords {
		if _, ok := tokens[strings.ToLower(keyword)]; ok {
			return true
		}
	}
	return false
}
