package enrich

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import "context"

// Completer sends a prompt to a language model and returns its raw reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ModelSelector is implemented by completers that can switch model per batch.
type ModelSelector interface {
	ForModel(model string) Completer
}
