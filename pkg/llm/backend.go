package llm

import "context"

// Backend is one named generation provider. Implementations handle
// protocol-specific details such as request formatting, authentication,
// and how inline media is attached.
type Backend interface {
	// Name returns the backend's routing name (e.g. "openai", "gemini").
	Name() string

	// Invoke sends a plain-text generation request and returns the text.
	Invoke(ctx context.Context, req *Request) (string, error)

	// InvokeStructured requests a JSON object conforming to schema and
	// returns the decoded mapping.
	InvokeStructured(ctx context.Context, req *Request, schema Schema) (map[string]any, error)
}

// Config holds common configuration for HTTP-based backends.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
}
