package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Provider is the core abstraction for LLM interaction.
type Provider interface {
	// Generate sends a prompt to the LLM. When the request carries a Schema
	// the response Content is validated JSON; otherwise it is the raw text
	// the model produced.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt. The daily post prompts leave it empty and
	// carry all instructions in a single user message.
	System string

	Messages []Message

	// Schema is the JSON Schema the response must conform to.
	// When nil, the response Content is raw text.
	Schema *Schema

	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	// Zero leaves the provider default in place.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserPrompt builds the single-turn request used by most callers.
func UserPrompt(prompt string) []Message {
	return []Message{{Role: RoleUser, Content: prompt}}
}

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name identifies this schema (used as schema name for OpenAI and as
	// the validator cache key). Kebab-case, e.g. "question-variant".
	Name string

	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the LLM's output.
type Response struct {
	Content json.RawMessage

	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to: "end", "max_tokens".
	StopReason string
}

// Text returns the response content as trimmed plain text.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(string(r.Content))
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
