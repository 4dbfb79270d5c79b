// Package llm abstracts the reasoning-agent transport: submit a prompt,
// receive text. Providers make no promise about reply validity — parsing
// model output into structured types is the caller's problem (see
// internal/assistant).
package llm

import (
	"context"
	"errors"
	"time"
)

// TimeoutLLMCall bounds a single model round trip.
const TimeoutLLMCall = 60 * time.Second

var (
	// ErrNoChoices is returned when the API reply carries no completion.
	ErrNoChoices = errors.New("no completion choices returned")
)

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Provider is the interface all LLM providers implement.
type Provider interface {
	// Name returns the provider identifier (e.g. "openai", "ollama").
	Name() string
	// Generate sends a completion request and returns the response.
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Request is an LLM generation request.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	Tools       []Tool
}

// Message is a chat message. ToolCallID and ToolCalls are only set on the
// tool-result and assistant legs of a tool-calling exchange.
type Message struct {
	Role       string
	Content    string
	ToolCallID string
	ToolCalls  []ToolCall
}

// Tool describes a callable capability offered to the model.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]interface{} // JSON Schema
}

// Response is an LLM generation response.
type Response struct {
	Content      string
	FinishReason string
	InputTokens  int
	OutputTokens int
	Model        string
	ToolCalls    []ToolCall
}

// ToolCall is a request from the model to invoke a named tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON object as emitted by the model
}
