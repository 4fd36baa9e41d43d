// Package perception provides the language-model clients: single-shot
// completion for the mediation chains and a function-calling protocol for
// the orchestrator. Providers are hand-rolled HTTP clients behind one
// interface so the rest of the system never sees provider details.
package perception

import (
	"context"
	"time"
)

// Role values for chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn in a model conversation. Assistant turns may carry
// tool calls; tool turns carry the result for one call.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // Assistant turns only
	ToolCallID string     `json:"tool_call_id,omitempty"` // Tool turns only
}

// ToolDefinition describes a tool the model may invoke.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"` // JSON Schema for parameters
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID    string                 `json:"id"`
	Name  string                 `json:"name"`
	Input map[string]interface{} `json:"input"`
}

// ToolResult carries the outcome of executing one tool call.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error"`
}

// ToolResponse is the model's reply in a tool-calling exchange: either a
// final text, one or more tool calls, or both.
type ToolResponse struct {
	Text       string     `json:"text"`
	ToolCalls  []ToolCall `json:"tool_calls"`
	StopReason string     `json:"stop_reason"` // "end_turn", "tool_use", ...
}

// LLMClient is the interface every provider implements.
type LLMClient interface {
	// Complete sends a bare prompt and returns the first completion.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteWithSystem sends a prompt under a system instruction.
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// ChatWithTools sends a conversation with tool definitions and returns
	// text and/or tool calls. Messages may include prior assistant tool
	// calls and their tool results.
	ChatWithTools(ctx context.Context, systemPrompt string, messages []Message, tools []ToolDefinition) (*ToolResponse, error)

	// Model returns the model identifier in use.
	Model() string
}

// Provider identifies an LLM provider.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Config holds provider-independent client configuration.
type Config struct {
	Provider Provider      `yaml:"provider"`
	APIKey   string        `yaml:"api_key"`
	BaseURL  string        `yaml:"base_url"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
}
