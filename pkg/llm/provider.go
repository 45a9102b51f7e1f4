package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role     string `json:"role"` // "user", "assistant", "system", "tool"
	Content  string `json:"content"`
	Thinking string `json:"thinking,omitempty"` // assistant reasoning, when the model exposes it

	// ToolCalls is set on assistant messages that request tool execution;
	// ToolCallID links a "tool" role message back to the call it answers.
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a model-issued tool invocation.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolSpec describes a tool offered to the model. Parameters is a JSON
// schema object.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Fragment is one streamed increment from the model. Thinking and Text carry
// deltas; ToolCalls arrive complete. Err, when set, terminates the stream.
type Fragment struct {
	Thinking  string
	Text      string
	ToolCalls []ToolCall
	Done      bool
	Err       error
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// Provider defines the contract for any LLM backend
type Provider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)

	// Stream sends a chat history plus available tools and streams fragments
	// until Done or Err. The returned channel is closed by the provider.
	Stream(ctx context.Context, history []Message, tools []ToolSpec, options ...Option) (<-chan Fragment, error)
}
