package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/careline/internal/domain/providers"
	"github.com/zatekoja/careline/internal/infrastructure/observability"
	"github.com/zatekoja/careline/pkg/config"
	apperrors "github.com/zatekoja/careline/pkg/errors"
	"github.com/zatekoja/careline/pkg/retry"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	providerName   = "openai"
)

// Client implements providers.LLMProvider over the Chat Completions API
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	limiter    *tokenBucket
	metrics    *observability.Metrics
}

// NewClient creates a new OpenAI client.
func NewClient(cfg *config.OpenAIConfig, metrics *observability.Metrics) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: newTokenBucket(cfg.RateLimitRPM, cfg.RateLimitBurst),
		metrics: metrics,
	}, nil
}

// Name returns the provider name
func (c *Client) Name() string {
	return providerName
}

// Close stops the rate limiter
func (c *Client) Close() {
	if c.limiter != nil {
		c.limiter.Close()
	}
}

type chatFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function chatFunctionCall `json:"function"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    *string        `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatRequest struct {
	Model             string        `json:"model"`
	Messages          []chatMessage `json:"messages"`
	Tools             []chatTool    `json:"tools,omitempty"`
	ToolChoice        string        `json:"tool_choice,omitempty"`
	ParallelToolCalls *bool         `json:"parallel_tool_calls,omitempty"`
	Temperature       float64       `json:"temperature"`
}

type chatChoice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("openai request failed with status %d: %s", e.status, e.body)
}

// Complete asks the model for the next step: a final answer or a single
// tool call. 429 and 5xx responses are retried with backoff.
func (c *Client) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.Completion, error) {
	if req == nil {
		return nil, apperrors.NewValidationError("completion request is required")
	}

	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode openai request", err)
	}

	start := time.Now()
	var parsed chatResponse
	err = retry.Do(ctx, retry.RequestConfig(isRetryable), "openai", func() error {
		return c.send(ctx, body, &parsed)
	})
	observability.RecordLLMRequest(ctx, c.metrics, providerName, c.model, time.Since(start), err)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && (se.status == http.StatusUnauthorized || se.status == http.StatusForbidden) {
			return nil, apperrors.NewExternalError("openai rejected the configured credentials", err)
		}
		return nil, apperrors.NewExternalError("openai request failed", err)
	}

	if len(parsed.Choices) == 0 {
		return nil, apperrors.NewExternalError("openai response contained no choices", nil)
	}
	return toCompletion(parsed.Choices[0].Message), nil
}

func (c *Client) send(ctx context.Context, body []byte, out *chatResponse) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode openai response: %w", err)
	}
	return nil
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.status == http.StatusTooManyRequests || se.status >= 500
	}
	return true
}

func (c *Client) buildRequest(req *providers.CompletionRequest) chatRequest {
	messages := make([]chatMessage, 0, len(req.History)+2+2*len(req.Steps))
	messages = append(messages, textMessage("system", req.SystemPrompt))
	for _, m := range req.History {
		messages = append(messages, textMessage(string(m.Role), m.Content))
	}
	messages = append(messages, textMessage("user", req.Input))

	for _, step := range req.Steps {
		args, err := json.Marshal(step.Call.Arguments)
		if err != nil || step.Call.Arguments == nil {
			args = []byte("{}")
		}
		result := step.Result
		messages = append(messages,
			chatMessage{
				Role: "assistant",
				ToolCalls: []chatToolCall{{
					ID:       step.Call.ID,
					Type:     "function",
					Function: chatFunctionCall{Name: step.Call.Name, Arguments: string(args)},
				}},
			},
			chatMessage{
				Role:       "tool",
				Content:    &result,
				ToolCallID: step.Call.ID,
			},
		)
	}

	out := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0,
	}
	if len(req.Tools) > 0 {
		parallel := false
		out.Tools = toChatTools(req.Tools)
		out.ToolChoice = "auto"
		out.ParallelToolCalls = &parallel
	}
	return out
}

func textMessage(role, content string) chatMessage {
	return chatMessage{Role: role, Content: &content}
}

func toChatTools(schemas []providers.ToolSchema) []chatTool {
	out := make([]chatTool, 0, len(schemas))
	for _, s := range schemas {
		properties := make(map[string]interface{}, len(s.Parameters))
		required := make([]string, 0, len(s.Parameters))
		for _, p := range s.Parameters {
			properties[p.Name] = map[string]interface{}{
				"type":        p.Type,
				"description": p.Description,
			}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		out = append(out, chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        s.Name,
				Description: s.Description,
				Parameters: map[string]interface{}{
					"type":       "object",
					"properties": properties,
					"required":   required,
				},
			},
		})
	}
	return out
}

func toCompletion(msg chatMessage) *providers.Completion {
	if len(msg.ToolCalls) > 0 {
		call := msg.ToolCalls[0]
		args := map[string]interface{}{}
		if strings.TrimSpace(call.Function.Arguments) != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				log.Warn().Err(err).Str("tool", call.Function.Name).Msg("openai returned malformed tool arguments")
				args = map[string]interface{}{}
			}
		}
		return &providers.Completion{
			Type: providers.CompletionToolCall,
			ToolCall: &providers.ToolCall{
				ID:        call.ID,
				Name:      call.Function.Name,
				Arguments: args,
			},
		}
	}

	text := ""
	if msg.Content != nil {
		text = *msg.Content
	}
	return &providers.Completion{Type: providers.CompletionFinal, Text: text}
}
