package provider

import (
	"context"
	"encoding/json"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single history entry passed to a provider.
type Message struct {
	Role    Role
	Content string
}

// ToolSpec describes a callable tool in provider-neutral form.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolResult pairs a tool call with the JSON its execution produced.
type ToolResult struct {
	CallID string
	Output json.RawMessage
}

// ToolRound records one completed request/execute cycle so the full
// exchange can be replayed to the provider on the next iteration.
type ToolRound struct {
	Calls   []ToolCall
	Results []ToolResult
}

// TurnResult is the outcome of a tool-capable completion. Exactly one of
// Text or ToolCalls is populated.
type TurnResult struct {
	Text      string
	ToolCalls []ToolCall
}

// Stream yields text fragments from a pass-through provider. Recv returns
// io.EOF once the upstream stream is exhausted.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Adapter is the capability-neutral base every provider implements.
type Adapter interface {
	ID() string
}

// ToolCapable providers run the full tool loop contract: given the
// conversation history, accumulated tool rounds, and the tool catalog,
// they return either final text or a batch of tool calls, never both.
type ToolCapable interface {
	Adapter
	CompleteTurn(ctx context.Context, history []Message, rounds []ToolRound, tools []ToolSpec, apiKey string) (*TurnResult, error)
}

// TextStreamer providers stream raw text fragments with no tool awareness.
type TextStreamer interface {
	Adapter
	StreamText(ctx context.Context, history []Message, apiKey string) (Stream, error)
}
