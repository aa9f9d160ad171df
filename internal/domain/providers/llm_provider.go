package providers

import (
	"context"
)

// MessageRole identifies the speaker of a prior turn
type MessageRole string

const (
	RoleAssistant MessageRole = "assistant"
	RoleUser      MessageRole = "user"
)

// Message is one prior turn of the call
type Message struct {
	Role    MessageRole
	Content string
}

// ToolParameter describes one argument of a declared tool
type ToolParameter struct {
	Name        string
	Type        string // "string" or "integer"
	Description string
	Required    bool
}

// ToolSchema is a tool declaration in provider-neutral form
type ToolSchema struct {
	Name        string
	Description string
	Parameters  []ToolParameter
}

// ToolCall is a model request to invoke one tool
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]interface{}
}

// Step is a tool call made earlier in the current turn and its flattened result
type Step struct {
	Call   ToolCall
	Result string
}

// CompletionRequest carries everything the model sees for one reasoning step
type CompletionRequest struct {
	SystemPrompt string
	History      []Message
	Input        string
	Steps        []Step
	Tools        []ToolSchema
}

// CompletionType distinguishes a final answer from a tool request
type CompletionType string

const (
	CompletionFinal    CompletionType = "final"
	CompletionToolCall CompletionType = "tool_call"
)

// Completion is the model's decision for one reasoning step
type Completion struct {
	Type     CompletionType
	Text     string
	ToolCall *ToolCall
}

// LLMProvider produces either a final answer or a single tool call.
// Implementations return an EXTERNAL AppError when the model is unreachable.
type LLMProvider interface {
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)
	Name() string
}

// InstructionApplier applies a free-form member-information change for the
// given caller and reports the outcome as text.
type InstructionApplier interface {
	ApplyInstruction(ctx context.Context, phone, instruction string) (string, error)
}
