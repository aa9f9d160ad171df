package tools

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/careline/internal/domain/providers"
	"github.com/zatekoja/careline/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/careline/pkg/errors"
)

// Tool is one capability the agent may invoke. Invoke never returns a Go
// error: every failure is carried in the Result.
type Tool interface {
	Definition() mcp.Tool
	Invoke(ctx context.Context, args map[string]interface{}) Result
}

// Registry is the fixed tool set offered to the language model
type Registry struct {
	tools   map[string]Tool
	order   []string
	metrics *observability.Metrics
}

// NewRegistry creates a registry in declaration order
func NewRegistry(metrics *observability.Metrics, tools ...Tool) *Registry {
	r := &Registry{
		tools:   make(map[string]Tool, len(tools)),
		metrics: metrics,
	}
	for _, t := range tools {
		name := t.Definition().Name
		if _, dup := r.tools[name]; !dup {
			r.order = append(r.order, name)
		}
		r.tools[name] = t
	}
	return r
}

// Names returns tool names in declaration order
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Schemas converts the MCP definitions into provider-neutral declarations
func (r *Registry) Schemas() []providers.ToolSchema {
	schemas := make([]providers.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		schemas = append(schemas, toSchema(r.tools[name].Definition()))
	}
	return schemas
}

func toSchema(def mcp.Tool) providers.ToolSchema {
	required := make(map[string]bool, len(def.InputSchema.Required))
	for _, name := range def.InputSchema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(def.InputSchema.Properties))
	for name := range def.InputSchema.Properties {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if required[names[i]] != required[names[j]] {
			return required[names[i]]
		}
		return names[i] < names[j]
	})

	params := make([]providers.ToolParameter, 0, len(names))
	for _, name := range names {
		param := providers.ToolParameter{Name: name, Type: "string", Required: required[name]}
		if prop, ok := def.InputSchema.Properties[name].(map[string]interface{}); ok {
			if typ, _ := prop["type"].(string); typ == "number" || typ == "integer" {
				param.Type = "integer"
			}
			param.Description, _ = prop["description"].(string)
		}
		params = append(params, param)
	}

	return providers.ToolSchema{
		Name:        def.Name,
		Description: def.Description,
		Parameters:  params,
	}
}

// Invoke dispatches a tool call by name. Unknown tools and panics inside a
// tool surface as Err results.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]interface{}) (result Result) {
	ctx, span := observability.StartSpan(ctx, "tool."+name)
	defer span.End()

	logger := observability.LoggerFromContext(ctx)
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error().Str("tool", name).Interface("panic", rec).Msg("tool panicked")
			result = Fail(apperrors.ErrorTypeInternal, "a system error occurred, please try again or escalate the call")
		}
		observability.SetSpanAttributes(span,
			attribute.String("tool.name", name),
			attribute.String("tool.outcome", result.Outcome()),
		)
		observability.RecordToolInvocation(ctx, r.metrics, name, result.Outcome())
		logger.Info().
			Str("tool", name).
			Str("outcome", result.Outcome()).
			Dur("duration", time.Since(start)).
			Msg("tool invoked")
	}()

	tool, ok := r.tools[name]
	if !ok {
		return Fail(apperrors.ErrorTypeValidation, fmt.Sprintf("unknown tool %q", name))
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	return tool.Invoke(ctx, args)
}

// Handler adapts a registered tool to an MCP tool handler
func (r *Registry) Handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return r.Invoke(ctx, name, req.GetArguments()).ToMCP(), nil
	}
}

// Register adds every tool to an MCP server
func (r *Registry) Register(s *server.MCPServer) {
	for _, name := range r.order {
		s.AddTool(r.tools[name].Definition(), r.Handler(name))
	}
}
