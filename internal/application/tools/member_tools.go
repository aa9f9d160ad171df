package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zatekoja/careline/internal/domain/providers"
	apperrors "github.com/zatekoja/careline/pkg/errors"
)

// MemberContext returns the rendered member context for a phone
type MemberContext interface {
	Get(ctx context.Context, phone string) (string, error)
}

const (
	GetMemberInformationTool  = "get_member_information"
	UpdateViaInstructionTool  = "update_via_instruction"
	msgMemberInfoUnavailable  = "Member information is temporarily unavailable. Offer to escalate the call."
	msgUpdateNeedsCallerPhone = "the caller's phone number is not known for this call"
)

// MemberInfoTool returns the caller's profile and appointment history
type MemberInfoTool struct {
	members MemberContext
}

// NewMemberInfoTool creates the get_member_information tool
func NewMemberInfoTool(members MemberContext) *MemberInfoTool {
	return &MemberInfoTool{members: members}
}

// Definition returns the MCP tool definition
func (t *MemberInfoTool) Definition() mcp.Tool {
	return mcp.NewTool(GetMemberInformationTool,
		mcp.WithDescription("Look up the caller's profile and appointment history by phone number. "+
			"Always returns readable text, including when no member is on file."),
		mcp.WithString("phone_number",
			mcp.Description("Phone number formatted as XXX-XXX-XXXX; defaults to the caller's number"),
		),
	)
}

// Invoke never fails on a missing member: the absence is reported as text.
func (t *MemberInfoTool) Invoke(ctx context.Context, args map[string]interface{}) Result {
	phone, err := resolvePhone(ctx, args)
	if err != nil {
		return FromError(err)
	}

	info, err := t.members.Get(ctx, phone)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return Ok(fmt.Sprintf("No member record was found for phone number %s.", phone))
		}
		return Ok(msgMemberInfoUnavailable)
	}
	return Ok(info)
}

// InstructionTool applies a natural-language change to the caller's record
type InstructionTool struct {
	applier providers.InstructionApplier
}

// NewInstructionTool creates the update_via_instruction tool
func NewInstructionTool(applier providers.InstructionApplier) *InstructionTool {
	return &InstructionTool{applier: applier}
}

// Definition returns the MCP tool definition
func (t *InstructionTool) Definition() mcp.Tool {
	return mcp.NewTool(UpdateViaInstructionTool,
		mcp.WithDescription("Update the caller's email, address, gender or date of birth from a plain-language "+
			"instruction such as \"change my email to jane@example.com\". Only the caller's own record can change."),
		mcp.WithString("instruction",
			mcp.Required(),
			mcp.Description("The change the caller asked for, in their words"),
		),
		mcp.WithString("phone_number",
			mcp.Description("Phone number formatted as XXX-XXX-XXXX; defaults to the caller's number"),
		),
	)
}

// Invoke applies the instruction for the resolved caller
func (t *InstructionTool) Invoke(ctx context.Context, args map[string]interface{}) Result {
	instruction := strings.TrimSpace(stringArg(args, "instruction"))
	if instruction == "" {
		return Fail(apperrors.ErrorTypeValidation, "instruction is required")
	}

	phone, err := resolvePhone(ctx, args)
	if err != nil {
		if apperrors.MessageOf(err) == "phone_number is required" {
			return Fail(apperrors.ErrorTypeValidation, msgUpdateNeedsCallerPhone)
		}
		return FromError(err)
	}

	outcome, err := t.applier.ApplyInstruction(ctx, phone, instruction)
	if err != nil {
		return FromError(err)
	}
	return Ok(outcome)
}
