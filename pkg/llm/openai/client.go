package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/user/crowquill/pkg/llm"
)

// Client implements the llm.Backend interface for OpenAI-compatible chat
// completion APIs. It also covers Azure OpenAI deployments, which speak
// the same wire protocol behind a different URL and auth header.
type Client struct {
	name       string
	config     *llm.Config
	azure      bool
	httpClient *http.Client
}

// New creates an OpenAI-compatible backend with the given routing name.
func New(name string, config *llm.Config) *Client {
	return &Client{
		name:   name,
		config: config,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// NewAzure creates a backend for an Azure OpenAI deployment. BaseURL must
// point at the deployment's chat completions endpoint (including
// api-version); auth uses the "api-key" header instead of a bearer token.
func NewAzure(name string, config *llm.Config) *Client {
	c := New(name, config)
	c.azure = true
	return c
}

// Name returns the backend's routing name.
func (c *Client) Name() string { return c.name }

// chatRequest is the chat completions request body.
type chatRequest struct {
	Model          string           `json:"model,omitempty"`
	Messages       []requestMessage `json:"messages"`
	MaxTokens      int              `json:"max_tokens,omitempty"`
	Temperature    *float32         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat  `json:"response_format,omitempty"`
}

// requestMessage carries either plain string content or multi-part
// content with embedded image references.
type requestMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatResponse is the chat completions response body.
type chatResponse struct {
	Choices []choice `json:"choices"`
}

type choice struct {
	Message responseMessage `json:"message"`
}

type responseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// buildUserContent shapes the prompt plus any inline media into the
// content field. Plain text requests stay a bare string; media requests
// become multi-part content with image_url entries.
func buildUserContent(prompt string, media []llm.MediaAttachment) any {
	prompt = strings.TrimSpace(prompt)
	if len(media) == 0 {
		return prompt
	}

	var parts []contentPart
	if prompt != "" {
		parts = append(parts, contentPart{Type: "text", Text: prompt})
	}
	for _, attachment := range media {
		for _, part := range attachment.Parts {
			switch {
			case part.Text != "":
				parts = append(parts, contentPart{Type: "text", Text: part.Text})
			case part.URL != "":
				parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: part.URL}})
			}
		}
	}
	if len(parts) == 0 {
		return "Please respond appropriately to the provided media."
	}
	return parts
}

func (c *Client) buildMessages(req *llm.Request) []requestMessage {
	var messages []requestMessage
	if req.SystemPrompt != "" {
		messages = append(messages, requestMessage{Role: "system", Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		messages = append(messages, requestMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, requestMessage{
		Role:    "user",
		Content: buildUserContent(req.Prompt, req.Params.Media),
	})
	return messages
}

func (c *Client) complete(ctx context.Context, req *llm.Request, format *responseFormat) (string, error) {
	body := chatRequest{
		Messages:       c.buildMessages(req),
		ResponseFormat: format,
	}
	// Azure routes by deployment in the URL, not by model name.
	if !c.azure {
		body.Model = req.Params.Model
		if body.Model == "" {
			body.Model = c.config.Model
		}
	}
	if req.Params.MaxTokens > 0 {
		body.MaxTokens = req.Params.MaxTokens
	}
	if req.Params.Temperature != 0 {
		temp := req.Params.Temperature
		body.Temperature = &temp
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := c.config.BaseURL
	if !c.azure {
		url += "/chat/completions"
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.azure {
		httpReq.Header.Set("api-key", c.config.APIKey)
	} else {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// Invoke sends a plain-text generation request.
func (c *Client) Invoke(ctx context.Context, req *llm.Request) (string, error) {
	return c.complete(ctx, req, nil)
}

// InvokeStructured requests a JSON object and decodes it. The schema is
// advisory here: the instruction is expected to describe the shape, and
// the API is pinned to JSON output via response_format.
func (c *Client) InvokeStructured(ctx context.Context, req *llm.Request, schema llm.Schema) (map[string]any, error) {
	text, err := c.complete(ctx, req, &responseFormat{Type: "json_object"})
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &data); err != nil {
		return nil, fmt.Errorf("decoding structured response: %w", err)
	}
	return data, nil
}

// stripCodeFence removes a surrounding markdown code fence, which some
// models emit even when asked for raw JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
