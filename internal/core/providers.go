package core

import "context"

// Generator is the opaque text-generation capability. It may fail or
// time out; callers own the fallback behavior.
type Generator interface {
	Chat(ctx context.Context, history []Message) (Message, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
