package port

import (
	"context"
	"io"
)

// Message is one role-tagged chat message.
type Message struct {
	Role    string
	Content string
}

// LLM represents an OpenAI-compatible chat model.
type LLM interface {
	// Complete returns the full response text.
	Complete(ctx context.Context, messages []Message) (string, error)

	// CompleteJSON requests a JSON object response and decodes it into v.
	CompleteJSON(ctx context.Context, messages []Message, v any) error

	// Stream writes response deltas to w as they arrive and returns the full text.
	Stream(ctx context.Context, messages []Message, w io.Writer) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}

// UserMessage is a convenience for single-message conversations.
func UserMessage(content string) []Message {
	return []Message{{Role: "user", Content: content}}
}
