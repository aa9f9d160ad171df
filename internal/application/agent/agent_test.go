package agent_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/careline/internal/application/agent"
	"github.com/zatekoja/careline/internal/application/tools"
	"github.com/zatekoja/careline/internal/domain/mocks"
	"github.com/zatekoja/careline/internal/domain/providers"
	apperrors "github.com/zatekoja/careline/pkg/errors"
)

const phone = "215-932-4488"

var fixedNow = time.Date(2025, time.March, 3, 14, 5, 0, 0, time.UTC)

type memberContext struct {
	info string
	err  error
}

func (m memberContext) Get(context.Context, string) (string, error) {
	return m.info, m.err
}

type invocation struct {
	name   string
	args   map[string]interface{}
	caller string
}

type fakeTools struct {
	mu      sync.Mutex
	results map[string]tools.Result
	calls   []invocation
}

func (f *fakeTools) Schemas() []providers.ToolSchema {
	return []providers.ToolSchema{{Name: tools.ScheduleAppointmentTool}, {Name: tools.GetMemberInformationTool}}
}

func (f *fakeTools) Invoke(ctx context.Context, name string, args map[string]interface{}) tools.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	caller, _ := tools.CallerFromContext(ctx)
	f.calls = append(f.calls, invocation{name: name, args: args, caller: caller})
	if res, ok := f.results[name]; ok {
		return res
	}
	return tools.Fail(apperrors.ErrorTypeValidation, "unknown tool")
}

func newOrchestrator(llm providers.LLMProvider, toolset agent.ToolInvoker, members agent.MemberContext, maxIterations int) *agent.Orchestrator {
	return agent.NewOrchestrator(llm, toolset, members, agent.Options{
		MaxIterations: maxIterations,
		Organization:  "Signify Health",
		Location:      time.UTC,
		Now:           func() time.Time { return fixedNow },
	}, nil)
}

func final(text string) *providers.Completion {
	return &providers.Completion{Type: providers.CompletionFinal, Text: text}
}

func toolCall(name string, args map[string]interface{}) *providers.Completion {
	return &providers.Completion{
		Type:     providers.CompletionToolCall,
		ToolCall: &providers.ToolCall{Name: name, Arguments: args},
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := agent.BuildSystemPrompt("Signify Health", fixedNow, "Name: David Jones\n")

	assert.Contains(t, prompt, "You are a call center agent at Signify Health.")
	assert.Contains(t, prompt, "Monday, March 03, 02:05PM")
	assert.Contains(t, prompt, "### Member Information:\nName: David Jones")
	assert.Contains(t, prompt, "Keep answers under 100 words")
	assert.Contains(t, prompt, "dial 911")
	assert.Contains(t, prompt, "ask for their last name")
}

func TestSplitTranscript(t *testing.T) {
	history, input, err := agent.SplitTranscript([]string{
		"Hello, can I get your name?",
		"David Jones",
		"Thanks David, how can I help?",
		"When is my next appointment?",
	})

	require.NoError(t, err)
	assert.Equal(t, "When is my next appointment?", input)
	assert.Equal(t, []providers.Message{
		{Role: providers.RoleAssistant, Content: "Hello, can I get your name?"},
		{Role: providers.RoleUser, Content: "David Jones"},
		{Role: providers.RoleAssistant, Content: "Thanks David, how can I help?"},
	}, history)
}

func TestSplitTranscript_SingleEntry(t *testing.T) {
	history, input, err := agent.SplitTranscript([]string{"Hi, can I get your name?"})

	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Equal(t, "Hi, can I get your name?", input)
}

func TestSplitTranscript_Empty(t *testing.T) {
	_, _, err := agent.SplitTranscript(nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, _, err = agent.SplitTranscript([]string{"Hello", "   "})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestOrchestrator_FinalAnswer(t *testing.T) {
	llm := &mocks.LLMProvider{}
	llm.On("Complete", mock.Anything, mock.MatchedBy(func(req *providers.CompletionRequest) bool {
		return strings.Contains(req.SystemPrompt, "Name: David Jones") &&
			strings.Contains(req.SystemPrompt, "Monday, March 03, 02:05PM") &&
			req.Input == "David Jones" &&
			len(req.History) == 1 &&
			len(req.Tools) == 2
	})).Return(final("  Thank you, David. How can I help you today?  "), nil).Once()

	o := newOrchestrator(llm, &fakeTools{}, memberContext{info: "Name: David Jones"}, 8)

	res, err := o.Run(context.Background(), phone, []string{"Hi, can I get your name?", "David Jones"})

	require.NoError(t, err)
	assert.Equal(t, "Thank you, David. How can I help you today?", res.Reply)
	assert.Equal(t, 1, res.Iterations)
	assert.Empty(t, res.ToolCalls)
	llm.AssertExpectations(t)
}

func TestOrchestrator_ToolCallFeedsResultBack(t *testing.T) {
	const noSlot = "No provider available at the specified date and time."
	toolset := &fakeTools{results: map[string]tools.Result{
		tools.ScheduleAppointmentTool: tools.Fail(apperrors.ErrorTypeConflict, noSlot),
	}}

	llm := &mocks.LLMProvider{}
	llm.On("Complete", mock.Anything, mock.MatchedBy(func(req *providers.CompletionRequest) bool {
		return len(req.Steps) == 0
	})).Return(toolCall(tools.ScheduleAppointmentTool, map[string]interface{}{
		"date": "2025-03-10", "time": "14:00",
	}), nil).Once()
	llm.On("Complete", mock.Anything, mock.MatchedBy(func(req *providers.CompletionRequest) bool {
		return len(req.Steps) == 1 &&
			req.Steps[0].Call.Name == tools.ScheduleAppointmentTool &&
			req.Steps[0].Call.ID != "" &&
			req.Steps[0].Result == "Error: "+noSlot
	})).Return(final("I'm sorry, no provider is available then. Would another time work?"), nil).Once()

	o := newOrchestrator(llm, toolset, memberContext{info: "Name: David Jones"}, 8)

	res, err := o.Run(context.Background(), phone, []string{
		"Hello", "David Jones", "How can I help?", "Book me for March 10 at 2pm",
	})

	require.NoError(t, err)
	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, []string{tools.ScheduleAppointmentTool}, res.ToolCalls)
	assert.Contains(t, res.Reply, "no provider is available")
	require.Len(t, toolset.calls, 1)
	assert.Equal(t, phone, toolset.calls[0].caller)
	llm.AssertExpectations(t)
}

func TestOrchestrator_IterationLimit(t *testing.T) {
	toolset := &fakeTools{results: map[string]tools.Result{
		tools.GetMemberInformationTool: tools.Ok("Name: David Jones"),
	}}
	llm := &mocks.LLMProvider{}
	llm.On("Complete", mock.Anything, mock.Anything).
		Return(toolCall(tools.GetMemberInformationTool, nil), nil)

	o := newOrchestrator(llm, toolset, memberContext{info: "Name: David Jones"}, 3)

	res, err := o.Run(context.Background(), phone, []string{"Hello", "what's on file for me?"})

	require.NoError(t, err)
	assert.True(t, res.HitLimit)
	assert.Equal(t, agent.MsgIterationLimit, res.Reply)
	assert.Equal(t, 3, res.Iterations)
	llm.AssertNumberOfCalls(t, "Complete", 3)
	assert.Len(t, toolset.calls, 3)
}

func TestOrchestrator_UnknownToolIsFedBack(t *testing.T) {
	toolset := &fakeTools{}
	llm := &mocks.LLMProvider{}
	llm.On("Complete", mock.Anything, mock.MatchedBy(func(req *providers.CompletionRequest) bool {
		return len(req.Steps) == 0
	})).Return(toolCall("transfer_funds", nil), nil).Once()
	llm.On("Complete", mock.Anything, mock.MatchedBy(func(req *providers.CompletionRequest) bool {
		return len(req.Steps) == 1 && strings.HasPrefix(req.Steps[0].Result, "Error:")
	})).Return(final("I can't do that."), nil).Once()

	o := newOrchestrator(llm, toolset, memberContext{info: "x"}, 8)

	res, err := o.Run(context.Background(), phone, []string{"Move my money"})

	require.NoError(t, err)
	assert.Equal(t, "I can't do that.", res.Reply)
}

func TestOrchestrator_LLMUnavailable(t *testing.T) {
	llm := &mocks.LLMProvider{}
	llm.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: connection refused"))

	o := newOrchestrator(llm, &fakeTools{}, memberContext{info: "x"}, 8)

	_, err := o.Run(context.Background(), phone, []string{"Hello"})

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestOrchestrator_MemberNotFoundStillAnswers(t *testing.T) {
	llm := &mocks.LLMProvider{}
	llm.On("Complete", mock.Anything, mock.MatchedBy(func(req *providers.CompletionRequest) bool {
		return strings.Contains(req.SystemPrompt, "No member record was found for phone number "+phone)
	})).Return(final("I'm sorry, I couldn't find your record."), nil)

	o := newOrchestrator(llm, &fakeTools{}, memberContext{err: apperrors.NewNotFoundError("member not found")}, 8)

	res, err := o.Run(context.Background(), phone, []string{"Hello"})

	require.NoError(t, err)
	assert.Equal(t, "I'm sorry, I couldn't find your record.", res.Reply)
}

type runnerFunc func(ctx context.Context, phone string, transcript []string) (*agent.TurnResult, error)

func (f runnerFunc) Run(ctx context.Context, phone string, transcript []string) (*agent.TurnResult, error) {
	return f(ctx, phone, transcript)
}

func TestTurnService_NormalizesPhone(t *testing.T) {
	var got string
	svc := agent.NewTurnService(runnerFunc(func(_ context.Context, p string, _ []string) (*agent.TurnResult, error) {
		got = p
		return &agent.TurnResult{Reply: "Hi David", Iterations: 1}, nil
	}), time.Second, nil)

	reply, err := svc.HandleTurn(context.Background(), []string{"Hello"}, "(215) 932-4488")

	require.NoError(t, err)
	assert.Equal(t, "Hi David", reply)
	assert.Equal(t, phone, got)
}

func TestTurnService_Validation(t *testing.T) {
	svc := agent.NewTurnService(runnerFunc(func(context.Context, string, []string) (*agent.TurnResult, error) {
		t.Fatal("runner must not be called")
		return nil, nil
	}), time.Second, nil)

	tests := []struct {
		name       string
		transcript []string
		phone      string
	}{
		{name: "empty transcript", transcript: nil, phone: phone},
		{name: "missing phone", transcript: []string{"Hello"}, phone: ""},
		{name: "malformed phone", transcript: []string{"Hello"}, phone: "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.HandleTurn(context.Background(), tt.transcript, tt.phone)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		})
	}
}

func TestTurnService_Timeout(t *testing.T) {
	svc := agent.NewTurnService(runnerFunc(func(ctx context.Context, _ string, _ []string) (*agent.TurnResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), 20*time.Millisecond, nil)

	_, err := svc.HandleTurn(context.Background(), []string{"Hello"}, phone)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}
