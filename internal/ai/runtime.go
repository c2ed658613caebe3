package ai

import "context"

// Runtime is implemented by text-generation backends.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// StreamRuntime is an optional extension that supports streaming output.
// Implementors should invoke onDelta with each partial content chunk.
type StreamRuntime interface {
	GenerateStream(ctx context.Context, req GenerateRequest, onDelta func(string)) error
}

// Provider identifiers accepted by summary_provider.
const (
	ProviderReplicate  = "replicate"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)
