// Package textkit provides lightweight text analysis helpers: keyword
// extraction, tone inference, and media description. The heuristics stay
// dependency-free so they can run inside tight scheduling loops.
package textkit

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[A-Za-z0-9']+`)

// Compact stopword list; only lowercase entries.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "has": {}, "have": {},
	"he": {}, "her": {}, "hers": {}, "him": {}, "his": {}, "how": {},
	"i": {}, "if": {}, "in": {}, "is": {}, "it": {}, "its": {}, "it's": {},
	"just": {}, "me": {}, "my": {}, "of": {}, "on": {}, "or": {}, "our": {},
	"ours": {}, "she": {}, "so": {}, "than": {}, "that": {}, "the": {},
	"their": {}, "them": {}, "there": {}, "these": {}, "they": {},
	"this": {}, "those": {}, "to": {}, "too": {}, "up": {}, "was": {},
	"we": {}, "were": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"who": {}, "will": {}, "with": {}, "you": {}, "your": {}, "you're": {},
	"amp": {}, "rt": {}, "http": {}, "https": {}, "www": {},
}

var humorMarkers = []string{"lol", "lmao", "haha", "hehe", "😂", "🤣", "😹", "meme"}

var techMarkers = []string{
	"api", "code", "model", "deploy", "release", "ai", "ml", "data",
	"research", "update", "version", "script",
}

var sentimentMarkers = map[string]int{
	"amazing": 1, "awesome": 1, "love": 1, "great": 1, "good": 1, "thrilled": 1,
	"hate": -1, "terrible": -1, "awful": -1, "bad": -1, "furious": -1,
}

func tokenize(text string) []string {
	if text == "" {
		return nil
	}
	matches := tokenPattern.FindAllString(text, -1)
	for i, m := range matches {
		matches[i] = strings.ToLower(m)
	}
	return matches
}

// OverlapTokens returns the set of normalized tokens suitable for
// overlap checks: lowercased, stopword-filtered, longer than 2 runes.
func OverlapTokens(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, token := range tokenize(text) {
		if len(token) <= 2 {
			continue
		}
		if _, stop := stopwords[token]; stop {
			continue
		}
		out[token] = struct{}{}
	}
	return out
}

// ExtractKeywords returns the top keywords across texts by frequency.
// Ties break toward the longer token, then lexicographically.
func ExtractKeywords(texts []string, maxKeywords int) []string {
	counts := make(map[string]int)
	for _, text := range texts {
		for _, token := range tokenize(text) {
			if len(token) <= 2 {
				continue
			}
			if _, stop := stopwords[token]; stop {
				continue
			}
			counts[token]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	tokens := make([]string, 0, len(counts))
	for token := range counts {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool {
		a, b := tokens[i], tokens[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	if len(tokens) > maxKeywords {
		tokens = tokens[:maxKeywords]
	}
	return tokens
}

// InferTone labels sample texts with a coarse tone: playful, technical,
// enthusiastic, cautious, or conversational.
func InferTone(texts []string) string {
	var humorScore, techScore, exclamations, sentimentScore int

	for _, text := range texts {
		if text == "" {
			continue
		}
		lowered := strings.ToLower(text)
		for _, marker := range humorMarkers {
			if strings.Contains(lowered, marker) {
				humorScore++
			}
		}
		for _, marker := range techMarkers {
			if strings.Contains(lowered, marker) {
				techScore++
			}
		}
		exclamations += strings.Count(lowered, "!")
		for marker, weight := range sentimentMarkers {
			sentimentScore += strings.Count(lowered, marker) * weight
		}
	}

	switch {
	case humorScore >= max(1, techScore/2):
		return "playful"
	case techScore > 0 && techScore >= humorScore:
		return "technical"
	case exclamations > 2 || sentimentScore > 2:
		return "enthusiastic"
	case sentimentScore < -1:
		return "cautious"
	default:
		return "conversational"
	}
}

// IsProbablyHumorous reports whether the text reads as a joke or meme.
func IsProbablyHumorous(text string) bool {
	if text == "" {
		return false
	}
	lowered := strings.ToLower(text)
	tokens := OverlapTokens(text)
	for _, marker := range humorMarkers {
		if _, ok := tokens[marker]; ok {
			return true
		}
		// Emoji markers never survive tokenization.
		if marker[0] >= 0x80 && strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// DescribeMediaURLs summarizes attached media by rough type.
func DescribeMediaURLs(urls []string) string {
	if len(urls) == 0 {
		return "No media attached."
	}
	var images, videos, gifs int
	for _, url := range urls {
		lowered := strings.ToLower(url)
		switch {
		case strings.HasSuffix(lowered, ".gif"):
			gifs++
		case strings.HasSuffix(lowered, ".mp4") || strings.HasSuffix(lowered, "m3u8"):
			videos++
		default:
			images++
		}
	}
	var segments []string
	if images > 0 {
		segments = append(segments, fmt.Sprintf("%d image(s)", images))
	}
	if videos > 0 {
		segments = append(segments, fmt.Sprintf("%d video(s)", videos))
	}
	if gifs > 0 {
		segments = append(segments, fmt.Sprintf("%d gif(s)", gifs))
	}
	return "Media detected: " + strings.Join(segments, ", ") + "."
}

// MediaUsageRatio returns entriesWithMedia/total rounded to 2 decimals.
func MediaUsageRatio(entriesWithMedia, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(entriesWithMedia)/float64(total)*100) / 100
}
