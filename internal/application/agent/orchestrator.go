package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/careline/internal/application/tools"
	"github.com/zatekoja/careline/internal/domain/providers"
	"github.com/zatekoja/careline/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/careline/pkg/errors"
)

const (
	// DefaultMaxIterations bounds the reasoning steps of one turn
	DefaultMaxIterations = 8

	// MsgIterationLimit is the final answer when the model keeps calling tools
	MsgIterationLimit = "I'm sorry, I wasn't able to complete that request. Let me connect you with a supervisor who can help."
)

// ToolInvoker declares and executes the tool set
type ToolInvoker interface {
	Schemas() []providers.ToolSchema
	Invoke(ctx context.Context, name string, args map[string]interface{}) tools.Result
}

// MemberContext resolves the rendered member context for a phone
type MemberContext interface {
	Get(ctx context.Context, phone string) (string, error)
}

// Options configures an Orchestrator
type Options struct {
	MaxIterations int
	Organization  string
	Location      *time.Location
	Now           func() time.Time
}

// TurnResult is the outcome of one orchestrated turn
type TurnResult struct {
	Reply      string
	Iterations int
	ToolCalls  []string
	HitLimit   bool
}

type state int

const (
	stateBuildContext state = iota
	stateReasoning
	stateToolCall
	stateFinal
)

// Orchestrator runs BuildContext, Reasoning, {ToolCall, Reasoning}* and
// FinalAnswer for a single turn. It holds no per-call state.
type Orchestrator struct {
	llm     providers.LLMProvider
	tools   ToolInvoker
	members MemberContext
	opts    Options
	metrics *observability.Metrics
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(llm providers.LLMProvider, toolset ToolInvoker, members MemberContext, opts Options, metrics *observability.Metrics) *Orchestrator {
	if opts.MaxIterations < 1 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		llm:     llm,
		tools:   toolset,
		members: members,
		opts:    opts,
		metrics: metrics,
	}
}

// Run handles one turn for the caller at phone. It fails only when the
// transcript is malformed or the language model cannot be reached; tool
// failures are fed back to the model as text.
func (o *Orchestrator) Run(ctx context.Context, phone string, transcript []string) (*TurnResult, error) {
	history, input, err := SplitTranscript(transcript)
	if err != nil {
		return nil, err
	}

	ctx = tools.WithCaller(ctx, phone)
	logger := observability.LoggerFromContext(ctx)

	var (
		req        *providers.CompletionRequest
		completion *providers.Completion
		result     = &TurnResult{}
	)

	for current := stateBuildContext; current != stateFinal; {
		switch current {
		case stateBuildContext:
			req = &providers.CompletionRequest{
				SystemPrompt: BuildSystemPrompt(o.opts.Organization, o.opts.Now().In(o.opts.Location), o.memberContext(ctx, phone)),
				History:      history,
				Input:        input,
				Tools:        o.tools.Schemas(),
			}
			current = stateReasoning

		case stateReasoning:
			if result.Iterations >= o.opts.MaxIterations {
				logger.Warn().
					Int("iterations", result.Iterations).
					Strs("tools", result.ToolCalls).
					Msg("turn exceeded reasoning iteration limit")
				result.Reply = MsgIterationLimit
				result.HitLimit = true
				current = stateFinal
				continue
			}

			result.Iterations++
			completion, err = o.complete(ctx, req, result.Iterations)
			if err != nil {
				return nil, err
			}

			if completion.Type == providers.CompletionToolCall && completion.ToolCall != nil {
				current = stateToolCall
				continue
			}
			result.Reply = strings.TrimSpace(completion.Text)
			current = stateFinal

		case stateToolCall:
			call := *completion.ToolCall
			if call.ID == "" {
				call.ID = fmt.Sprintf("call_%d", result.Iterations)
			}

			res := o.tools.Invoke(ctx, call.Name, call.Arguments)
			result.ToolCalls = append(result.ToolCalls, call.Name)
			req.Steps = append(req.Steps, providers.Step{Call: call, Result: res.Flatten()})
			current = stateReasoning
		}
	}

	return result, nil
}

func (o *Orchestrator) complete(ctx context.Context, req *providers.CompletionRequest, iteration int) (*providers.Completion, error) {
	ctx, span := observability.StartSpan(ctx, "agent.reasoning")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("llm.provider", o.llm.Name()),
		attribute.Int("agent.iteration", iteration),
		attribute.Int("agent.steps", len(req.Steps)),
	)

	completion, err := o.llm.Complete(ctx, req)
	if err != nil {
		observability.RecordError(span, err)
		if apperrors.TypeOf(err) != apperrors.ErrorTypeExternal {
			err = apperrors.NewExternalError("language model request failed", err)
		}
		return nil, err
	}
	if completion == nil {
		return nil, apperrors.NewExternalError("language model returned no completion", nil)
	}
	return completion, nil
}

// memberContext never fails the turn: a missing or unreadable member is
// described to the model, which escalates per its instructions.
func (o *Orchestrator) memberContext(ctx context.Context, phone string) string {
	info, err := o.members.Get(ctx, phone)
	if err == nil {
		return info
	}
	if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return fmt.Sprintf("No member record was found for phone number %s.", phone)
	}
	observability.LoggerFromContext(ctx).Error().Err(err).Str("phone_number", phone).Msg("failed to load member context")
	return "Member information is currently unavailable due to a technical issue."
}
