package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zatekoja/careline/internal/domain/repositories"
	apperrors "github.com/zatekoja/careline/pkg/errors"
)

const (
	GetProviderInformationTool = "get_provider_information"
	MsgProviderNotFound        = "Provider not found"
)

// ProviderInfoTool returns a provider's profile by id
type ProviderInfoTool struct {
	providers repositories.ProviderRepository
}

// NewProviderInfoTool creates the get_provider_information tool
func NewProviderInfoTool(providers repositories.ProviderRepository) *ProviderInfoTool {
	return &ProviderInfoTool{providers: providers}
}

// Definition returns the MCP tool definition
func (t *ProviderInfoTool) Definition() mcp.Tool {
	return mcp.NewTool(GetProviderInformationTool,
		mcp.WithDescription("Look up a provider's name, credentials, location and procedures by provider id."),
		mcp.WithNumber("provider_id",
			mcp.Required(),
			mcp.Description("Numeric provider id, as shown in appointment details"),
		),
	)
}

// Invoke returns the provider summary. A missing provider yields the
// structured error {"error": "Provider not found"}.
func (t *ProviderInfoTool) Invoke(ctx context.Context, args map[string]interface{}) Result {
	id, err := int64Arg(args, "provider_id")
	if err != nil {
		return FromError(err)
	}

	provider, err := t.providers.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return Result{
				Structured: map[string]interface{}{"error": MsgProviderNotFound},
				Err:        &ToolError{Kind: apperrors.ErrorTypeNotFound, Message: MsgProviderNotFound},
			}
		}
		return FromError(err)
	}

	procedures := provider.Procedures
	if procedures == nil {
		procedures = []string{}
	}
	return OkStructured(map[string]interface{}{
		"provider_id": provider.ID,
		"name":        provider.DisplayName(),
		"degree":      provider.Degree,
		"gender":      provider.Gender,
		"phone":       provider.PhoneNumber,
		"email":       provider.Email,
		"address":     provider.StreetAddress,
		"city":        provider.City,
		"state":       provider.State,
		"zip_code":    provider.ZipCode,
		"procedures":  procedures,
	})
}
