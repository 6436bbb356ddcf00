package textkit

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

var htmlTagPattern = regexp.MustCompile(`<[a-zA-Z][^>]*>`)

// NormalizeBody converts HTML bodies to markdown so downstream token
// heuristics see prose instead of markup. Plain text passes through
// untouched, as does anything the converter rejects.
func NormalizeBody(text string) string {
	if !htmlTagPattern.MatchString(text) {
		return text
	}
	converted, err := htmltomarkdown.ConvertString(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(converted)
}
