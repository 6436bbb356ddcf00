package reply

import (
	"fmt"
	"strings"

	"github.com/user/crowquill/internal/textkit"
	"github.com/user/crowquill/internal/types"
)

// MaxReplyChars is the hard character limit for generated reply text.
const MaxReplyChars = 270

// defaultOffTopicTerms are banned from replies unless the source post
// (or its keywords) mentions them. Keeps software-shop vocabulary out of
// replies to non-technical posts.
var defaultOffTopicTerms = []string{
	"openai",
	"chatgpt",
	"repo",
	"pull request",
	"merge request",
	"commit",
	"stack trace",
	"stacktrace",
	"exception",
	"bugfix",
	"script",
	"terminal",
	"command line",
}

// mergeUnique concatenates term lists preserving first-seen order,
// comparing case-insensitively.
func mergeUnique(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, term := range list {
			lowered := strings.ToLower(term)
			if _, dup := seen[lowered]; dup {
				continue
			}
			seen[lowered] = struct{}{}
			out = append(out, term)
		}
	}
	return out
}

// findOffTopicTerms returns banned terms present in the reply that are
// neither licensed by allowedTerms nor mentioned by the source post.
func findOffTopicTerms(replyText, itemText string, allowedTerms []string) []string {
	replyLower := strings.ToLower(replyText)
	allowed := make(map[string]struct{}, len(allowedTerms))
	for _, term := range allowedTerms {
		allowed[strings.ToLower(term)] = struct{}{}
	}
	for token := range textkit.OverlapTokens(itemText) {
		allowed[token] = struct{}{}
	}
	var flagged []string
	for _, term := range defaultOffTopicTerms {
		if !strings.Contains(replyLower, term) {
			continue
		}
		if _, ok := allowed[term]; ok {
			continue
		}
		flagged = append(flagged, term)
	}
	return flagged
}

func buildInstruction(item *types.CandidateItem, ctx itemContext, styleSummary, personaHandle string, bannedTerms []string, feedback string) string {
	handle := item.Author
	if handle == "" {
		handle = "user"
	}
	handle = strings.TrimPrefix(handle, "@")

	lines := []string{
		"You are crafting a public reply on X (Twitter).",
		"Your reply must stay tightly focused on the post's content.",
		fmt.Sprintf("Allowed length: <= %d characters.", MaxReplyChars),
		"Do not fabricate knowledge about attached media; if unsure, acknowledge uncertainty briefly.",
		"If you cannot determine what is in the media, explicitly note that instead of guessing.",
	}
	if styleSummary != "" {
		lines = append(lines, "Match the following style cues when relevant:", styleSummary)
	} else {
		lines = append(lines, "Use a neutral, conversational tone.")
	}
	if feedback != "" {
		lines = append(lines, "Correction guidance: "+feedback)
	}
	if ctx.Text == "" {
		lines = append(lines, "The post has no visible text caption; rely solely on the media or acknowledge that you cannot see it.")
	}

	keywordLine := "Focus on what the post explicitly states."
	if len(ctx.Keywords) > 0 {
		keywordLine = fmt.Sprintf("Prioritise these post keywords in your reply: %s.", strings.Join(ctx.Keywords, ", "))
	}

	var b strings.Builder
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")
	b.WriteString(keywordLine)
	if len(bannedTerms) > 0 {
		fmt.Fprintf(&b, "\nAvoid these off-topic terms unless the post mentions them: %s.", strings.Join(bannedTerms, ", "))
	}

	itemText := ctx.Text
	if itemText == "" {
		itemText = "[no text supplied]"
	}
	descriptor := ctx.Descriptor
	if descriptor == "" {
		descriptor = "Neutral"
	}
	fmt.Fprintf(&b, "\n\nPost details:\n- Author handle: @%s\n- Post text: %s\n- Media note: %s\n- Descriptor: %s\n",
		handle, itemText, ctx.MediaNote, descriptor)
	if personaHandle != "" {
		fmt.Fprintf(&b, "- You are replying as @%s.\n", strings.TrimPrefix(personaHandle, "@"))
	}

	b.WriteString("\nRespond with JSON having this schema: {\n" +
		"  \"reply_text\": string,\n" +
		"  \"is_relevant\": boolean,\n" +
		"  \"relevance_reason\": string,\n" +
		"  \"referenced_topics\": array of strings (0-4 items)\n" +
		"}.")
	b.WriteString("\nMark is_relevant=false if your reply fails to reference the post's subject." +
		" Provide concise rationale in relevance_reason.")

	return b.String()
}
