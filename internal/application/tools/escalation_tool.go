package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zatekoja/careline/internal/domain/entities"
	apperrors "github.com/zatekoja/careline/pkg/errors"
)

const EscalateCallTool = "escalate_call"

// Escalator records a supervisor callback request
type Escalator interface {
	Escalate(ctx context.Context, phone, description string) (*entities.Escalation, error)
}

// EscalationTool hands the call to a human supervisor
type EscalationTool struct {
	escalator Escalator
}

// NewEscalationTool creates the escalate_call tool
func NewEscalationTool(escalator Escalator) *EscalationTool {
	return &EscalationTool{escalator: escalator}
}

// Definition returns the MCP tool definition
func (t *EscalationTool) Definition() mcp.Tool {
	return mcp.NewTool(EscalateCallTool,
		mcp.WithDescription("Escalate the call to a human supervisor who will call the member back. "+
			"Use when the caller asks for a person, is upset, or the request cannot be completed."),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("Short summary of the caller's issue for the supervisor"),
		),
		mcp.WithString("phone_number",
			mcp.Description("Phone number formatted as XXX-XXX-XXXX; defaults to the caller's number"),
		),
	)
}

// Invoke records the escalation
func (t *EscalationTool) Invoke(ctx context.Context, args map[string]interface{}) Result {
	description := strings.TrimSpace(stringArg(args, "description"))
	if description == "" {
		return Fail(apperrors.ErrorTypeValidation, "description is required")
	}

	phone, err := resolvePhone(ctx, args)
	if err != nil {
		return FromError(err)
	}

	escalation, err := t.escalator.Escalate(ctx, phone, description)
	if err != nil {
		return FromError(err)
	}
	return Ok(fmt.Sprintf("Call escalated. A supervisor will call %s back shortly. Escalation ID: %d",
		escalation.PhoneNumber, escalation.ID))
}
