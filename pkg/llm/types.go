package llm

import "encoding/json"

// Message represents a chat message in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MediaPart is one ordered segment of an inline media payload: either a
// text segment or a reference to an image by URL. Exactly one field is set.
type MediaPart struct {
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// MediaAttachment groups the parts presented to the model alongside the
// prompt. Each backend routes attachments into the shape its API expects.
type MediaAttachment struct {
	Parts []MediaPart `json:"parts"`
}

// Params holds per-call generation parameters. Zero values mean "unset"
// and are filled from backend defaults by the router.
type Params struct {
	Model       string
	MaxTokens   int
	Temperature float32
	Media       []MediaAttachment
}

// Request is a single generation request after the router has merged
// parameters. Prompt is always set; SystemPrompt and Messages are optional.
type Request struct {
	Prompt       string
	SystemPrompt string
	Messages     []Message
	Params       Params
}

// Schema is a JSON Schema describing the structured output a caller wants.
type Schema = json.RawMessage
