package gemini

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/zatekoja/careline/internal/domain/providers"
	"github.com/zatekoja/careline/internal/infrastructure/observability"
	"github.com/zatekoja/careline/pkg/config"
	apperrors "github.com/zatekoja/careline/pkg/errors"
	"github.com/zatekoja/careline/pkg/retry"
)

const (
	defaultModel = "gemini-2.0-flash"
	providerName = "gemini"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements providers.LLMProvider on Google Gemini
type Client struct {
	models  contentGenerator
	model   string
	metrics *observability.Metrics
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, cfg *config.GeminiConfig, metrics *observability.Metrics) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{models: client.Models, model: model, metrics: metrics}, nil
}

// Name returns the provider name
func (c *Client) Name() string {
	return providerName
}

// Complete asks Gemini for the next step. Only the first function call of
// a response is honoured.
func (c *Client) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.Completion, error) {
	if req == nil {
		return nil, apperrors.NewValidationError("completion request is required")
	}

	contents := buildContents(req)
	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
	}
	if len(req.Tools) > 0 {
		genCfg.Tools = []*genai.Tool{{FunctionDeclarations: toDeclarations(req.Tools)}}
	}

	start := time.Now()
	var resp *genai.GenerateContentResponse
	err := retry.Do(ctx, retry.RequestConfig(isRetryable), "gemini", func() error {
		var genErr error
		resp, genErr = c.models.GenerateContent(ctx, c.model, contents, genCfg)
		return genErr
	})
	observability.RecordLLMRequest(ctx, c.metrics, providerName, c.model, time.Since(start), err)
	if err != nil {
		return nil, apperrors.NewExternalError("gemini request failed", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, apperrors.NewExternalError("gemini response contained no candidates", nil)
	}

	if calls := resp.FunctionCalls(); len(calls) > 0 {
		call := calls[0]
		args := call.Args
		if args == nil {
			args = map[string]interface{}{}
		}
		return &providers.Completion{
			Type:     providers.CompletionToolCall,
			ToolCall: &providers.ToolCall{ID: call.ID, Name: call.Name, Arguments: args},
		}, nil
	}

	return &providers.Completion{Type: providers.CompletionFinal, Text: resp.Text()}, nil
}

func isRetryable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func buildContents(req *providers.CompletionRequest) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1+2*len(req.Steps))
	for _, m := range req.History {
		var role genai.Role = genai.RoleUser
		if m.Role == providers.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(req.Input, genai.RoleUser))

	for _, step := range req.Steps {
		contents = append(contents,
			&genai.Content{
				Role: string(genai.RoleModel),
				Parts: []*genai.Part{{FunctionCall: &genai.FunctionCall{
					ID:   step.Call.ID,
					Name: step.Call.Name,
					Args: step.Call.Arguments,
				}}},
			},
			&genai.Content{
				Role: string(genai.RoleUser),
				Parts: []*genai.Part{{FunctionResponse: &genai.FunctionResponse{
					ID:       step.Call.ID,
					Name:     step.Call.Name,
					Response: map[string]interface{}{"output": step.Result},
				}}},
			},
		)
	}
	return contents
}

func toDeclarations(schemas []providers.ToolSchema) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(schemas))
	for _, s := range schemas {
		params := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: make(map[string]*genai.Schema, len(s.Parameters)),
		}
		for _, p := range s.Parameters {
			typ := genai.TypeString
			if strings.EqualFold(p.Type, "integer") {
				typ = genai.TypeInteger
			}
			params.Properties[p.Name] = &genai.Schema{Type: typ, Description: p.Description}
			if p.Required {
				params.Required = append(params.Required, p.Name)
			}
		}
		out = append(out, &genai.FunctionDeclaration{
			Name:        s.Name,
			Description: s.Description,
			Parameters:  params,
		})
	}
	return out
}
