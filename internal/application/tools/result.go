package tools

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	apperrors "github.com/zatekoja/careline/pkg/errors"
)

// ToolError is the failure arm of a Result
type ToolError struct {
	Kind    apperrors.ErrorType
	Message string
}

// Result is the tagged outcome of a tool invocation: Ok carries Text or
// Structured data, Err carries a kind and a caller-safe message. A tool
// never returns a Go error to the orchestrator.
type Result struct {
	Text       string
	Structured map[string]interface{}
	Err        *ToolError
}

// Ok returns a successful text result
func Ok(text string) Result {
	return Result{Text: text}
}

// OkStructured returns a successful structured result
func OkStructured(data map[string]interface{}) Result {
	return Result{Structured: data}
}

// Fail returns a failed result
func Fail(kind apperrors.ErrorType, message string) Result {
	return Result{Err: &ToolError{Kind: kind, Message: message}}
}

// FromError converts an application error into a failed result, keeping
// its kind and its human-readable message. Internal causes are not exposed.
func FromError(err error) Result {
	kind := apperrors.TypeOf(err)
	if kind == apperrors.ErrorTypeInternal || kind == apperrors.ErrorTypeExternal {
		return Fail(kind, "a system error occurred, please try again or escalate the call")
	}
	return Fail(kind, apperrors.MessageOf(err))
}

// IsError reports whether the result is the Err arm
func (r Result) IsError() bool {
	return r.Err != nil
}

// Outcome labels the result for metrics and logs
func (r Result) Outcome() string {
	if r.Err != nil {
		return string(r.Err.Kind)
	}
	return "ok"
}

// Flatten renders the result as the text fed back to the language model.
// Structured payloads, including structured errors, are rendered as JSON.
func (r Result) Flatten() string {
	if r.Structured != nil {
		data, err := json.Marshal(r.Structured)
		if err == nil {
			return string(data)
		}
	}
	if r.Err != nil {
		return "Error: " + r.Err.Message
	}
	return r.Text
}

// ToMCP converts the result for the MCP tool server
func (r Result) ToMCP() *mcp.CallToolResult {
	if r.Err != nil {
		return mcp.NewToolResultError(r.Flatten())
	}
	return mcp.NewToolResultText(r.Flatten())
}
