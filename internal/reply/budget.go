package reply

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Budget counts and trims prompt text against a model's context window.
// Style contexts and long post bodies are trimmed before they reach the
// backend so structured output never competes with oversized input.
type Budget struct {
	tokenizer *tiktoken.Tiktoken
	maxTokens int
	reserve   int
}

// NewBudget creates a token budget for the given model's context window.
// reserve is held back for the model's response.
func NewBudget(model string, maxTokens, reserve int) (*Budget, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Fallback to cl100k_base for unknown models
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Budget{tokenizer: enc, maxTokens: maxTokens, reserve: reserve}, nil
}

// Count returns the token count for text.
func (b *Budget) Count(text string) int {
	return len(b.tokenizer.Encode(text, nil, nil))
}

// InputBudget returns the tokens available for prompt input.
func (b *Budget) InputBudget() int {
	return b.maxTokens - b.reserve
}

// TrimToFit truncates text so it occupies at most budget tokens.
func (b *Budget) TrimToFit(text string, budget int) string {
	if budget <= 0 {
		return ""
	}
	tokens := b.tokenizer.Encode(text, nil, nil)
	if len(tokens) <= budget {
		return text
	}
	return b.tokenizer.Decode(tokens[:budget])
}
