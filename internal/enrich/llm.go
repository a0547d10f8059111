package enrich

import (
	"context"

	"memoryatlas/internal/services/llm"
)

// LLMCompleter adapts the chat completions client to Completer.
type LLMCompleter struct {
	client *llm.Client
}

// NewLLMCompleter wraps client.
func NewLLMCompleter(client *llm.Client) LLMCompleter {
	return LLMCompleter{client: client}
}

// Complete forwards prompt to the chat completions endpoint.
func (c LLMCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return c.client.Complete(ctx, prompt)
}

// ForModel returns a completer bound to model.
func (c LLMCompleter) ForModel(model string) Completer {
	return LLMCompleter{client: c.client.WithModel(model)}
}

// Model reports the model requests are sent to.
func (c LLMCompleter) Model() string {
	return c.client.Model()
}
