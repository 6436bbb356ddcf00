package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/user/crowquill/pkg/llm"
)

// Client implements the llm.Backend interface over the Gemini API.
type Client struct {
	name   string
	client *genai.Client
	model  string
}

// New creates a Gemini backend. model is the default model name, used
// when a request does not override it.
func New(ctx context.Context, name, apiKey, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{name: name, client: client, model: model}, nil
}

// Name returns the backend's routing name.
func (c *Client) Name() string { return c.name }

// Close releases the underlying API client.
func (c *Client) Close() error { return c.client.Close() }

func (c *Client) generativeModel(req *llm.Request, jsonOutput bool) *genai.GenerativeModel {
	model := req.Params.Model
	if model == "" {
		model = c.model
	}
	gm := c.client.GenerativeModel(model)
	if req.SystemPrompt != "" {
		gm.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(strings.TrimSpace(req.SystemPrompt))},
		}
	}
	if req.Params.MaxTokens > 0 {
		gm.SetMaxOutputTokens(int32(req.Params.MaxTokens))
	}
	if req.Params.Temperature != 0 {
		gm.SetTemperature(req.Params.Temperature)
	}
	if jsonOutput {
		gm.GenerationConfig.ResponseMIMEType = "application/json"
	}
	return gm
}

// buildParts shapes the prompt and inline media into Gemini content parts.
// Image references travel as file data URIs; text segments stay text.
func buildParts(req *llm.Request) []genai.Part {
	parts := []genai.Part{genai.Text(strings.TrimSpace(req.Prompt))}
	for _, attachment := range req.Params.Media {
		for _, part := range attachment.Parts {
			switch {
			case part.Text != "":
				parts = append(parts, genai.Text(part.Text))
			case part.URL != "":
				parts = append(parts, genai.FileData{MIMEType: "image/jpeg", URI: part.URL})
			}
		}
	}
	return parts
}

func collectText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates in response")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("empty response text")
	}
	return out, nil
}

// Invoke sends a plain-text generation request.
func (c *Client) Invoke(ctx context.Context, req *llm.Request) (string, error) {
	gm := c.generativeModel(req, false)
	resp, err := gm.GenerateContent(ctx, buildParts(req)...)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return collectText(resp)
}

// InvokeStructured requests JSON output and decodes it. Gemini enforces
// the output MIME type; the schema shape is carried in the instruction.
func (c *Client) InvokeStructured(ctx context.Context, req *llm.Request, schema llm.Schema) (map[string]any, error) {
	gm := c.generativeModel(req, true)
	resp, err := gm.GenerateContent(ctx, buildParts(req)...)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	text, err := collectText(resp)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("decoding structured response: %w", err)
	}
	return data, nil
}
