package textkit

import (
	"strings"
	"testing"
)

func TestExtractKeywordsOrdersByCountThenLength(t *testing.T) {
	texts := []string{
		"shipping the model today",
		"the model training run finished",
		"model weights uploaded",
	}
	keywords := ExtractKeywords(texts, 3)
	if len(keywords) != 3 {
		t.Fatalf("expected 3 keywords, got %v", keywords)
	}
	if keywords[0] != "model" {
		t.Errorf("expected most frequent token first, got %v", keywords)
	}
	// Remaining tokens all appear once; longer tokens win ties.
	if len(keywords[1]) < len(keywords[2]) {
		t.Errorf("expected longer token before shorter on tie, got %v", keywords)
	}
}

func TestExtractKeywordsTieBreaksLexicographically(t *testing.T) {
	keywords := ExtractKeywords([]string{"delta gamma"}, 2)
	if len(keywords) != 2 || keywords[0] != "delta" || keywords[1] != "gamma" {
		t.Errorf("expected lexicographic order for equal count and length, got %v", keywords)
	}
}

func TestExtractKeywordsSkipsStopwordsAndShortTokens(t *testing.T) {
	keywords := ExtractKeywords([]string{"the ai is on it"}, 5)
	if len(keywords) != 0 {
		t.Errorf("expected no keywords, got %v", keywords)
	}
}

func TestOverlapTokens(t *testing.T) {
	tokens := OverlapTokens("The quick AI model ships today!")
	for _, want := range []string{"quick", "model", "ships", "today"} {
		if _, ok := tokens[want]; !ok {
			t.Errorf("expected token %q in %v", want, tokens)
		}
	}
	if _, ok := tokens["the"]; ok {
		t.Error("stopword should be filtered")
	}
	if _, ok := tokens["ai"]; ok {
		t.Error("two-letter token should be filtered")
	}
}

func TestInferTone(t *testing.T) {
	cases := []struct {
		name  string
		texts []string
		want  string
	}{
		{"playful", []string{"lmao this meme", "haha classic"}, "playful"},
		{"technical", []string{"new api release", "model deploy finished", "data update"}, "technical"},
		{"enthusiastic", []string{"so good!!! amazing launch!", "love it! great work!"}, "enthusiastic"},
		{"conversational", []string{"thinking about lunch", "long day"}, "conversational"},
		{"empty", nil, "conversational"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := InferTone(tc.texts); got != tc.want {
				t.Errorf("InferTone(%v) = %q, want %q", tc.texts, got, tc.want)
			}
		})
	}
}

func TestIsProbablyHumorous(t *testing.T) {
	if !IsProbablyHumorous("lol that's wild") {
		t.Error("expected lol to read as humorous")
	}
	if !IsProbablyHumorous("no way 😂") {
		t.Error("expected emoji to read as humorous")
	}
	if IsProbablyHumorous("quarterly earnings report") {
		t.Error("expected plain text to read as not humorous")
	}
	if IsProbablyHumorous("") {
		t.Error("expected empty text to read as not humorous")
	}
}

func TestDescribeMediaURLs(t *testing.T) {
	if got := DescribeMediaURLs(nil); got != "No media attached." {
		t.Errorf("unexpected empty description %q", got)
	}
	got := DescribeMediaURLs([]string{
		"https://cdn.example.com/a.jpg",
		"https://cdn.example.com/b.png",
		"https://cdn.example.com/clip.mp4",
		"https://cdn.example.com/loop.gif",
	})
	want := "Media detected: 2 image(s), 1 video(s), 1 gif(s)."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDescribeMediaURLsStream(t *testing.T) {
	got := DescribeMediaURLs([]string{"https://video.example.com/stream.m3u8"})
	if got != "Media detected: 1 video(s)." {
		t.Errorf("got %q", got)
	}
}

func TestMediaUsageRatio(t *testing.T) {
	if got := MediaUsageRatio(1, 3); got != 0.33 {
		t.Errorf("expected 0.33, got %v", got)
	}
	if got := MediaUsageRatio(0, 0); got != 0 {
		t.Errorf("expected 0 for empty, got %v", got)
	}
}

func TestNormalizeBodyPlainTextPassthrough(t *testing.T) {
	text := "just a plain post with < 3 symbols"
	if got := NormalizeBody(text); got != text {
		t.Errorf("plain text changed: %q", got)
	}
}

func TestNormalizeBodyStripsMarkup(t *testing.T) {
	got := NormalizeBody("<p>hello <strong>world</strong></p>")
	if strings.Contains(got, "<p>") {
		t.Errorf("markup survived: %q", got)
	}
	if !strings.Contains(got, "hello") || !strings.Contains(got, "world") {
		t.Errorf("content lost: %q", got)
	}
}
