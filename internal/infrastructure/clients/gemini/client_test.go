package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/zatekoja/careline/internal/domain/providers"
	apperrors "github.com/zatekoja/careline/pkg/errors"
)

type fakeModels struct {
	resp     *genai.GenerateContentResponse
	err      error
	contents []*genai.Content
	cfg      *genai.GenerateContentConfig
	calls    int
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.contents = contents
	f.cfg = cfg
	return f.resp, f.err
}

func response(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: string(genai.RoleModel), Parts: parts},
		}},
	}
}

func request() *providers.CompletionRequest {
	return &providers.CompletionRequest{
		SystemPrompt: "You are a call center agent.",
		History: []providers.Message{
			{Role: providers.RoleAssistant, Content: "Can I get your name?"},
			{Role: providers.RoleUser, Content: "David Jones"},
		},
		Input: "Please escalate",
		Steps: []providers.Step{{
			Call:   providers.ToolCall{ID: "c1", Name: "get_member_information", Arguments: map[string]interface{}{}},
			Result: "Name: David Jones",
		}},
		Tools: []providers.ToolSchema{{
			Name: "escalate_call",
			Parameters: []providers.ToolParameter{
				{Name: "description", Type: "string", Required: true},
				{Name: "appointment_id", Type: "integer"},
			},
		}},
	}
}

func TestComplete_FunctionCall(t *testing.T) {
	models := &fakeModels{resp: response(&genai.Part{FunctionCall: &genai.FunctionCall{
		Name: "escalate_call",
		Args: map[string]interface{}{"description": "caller asked for a supervisor"},
	}})}
	client := &Client{models: models, model: defaultModel}

	completion, err := client.Complete(context.Background(), request())

	require.NoError(t, err)
	assert.Equal(t, providers.CompletionToolCall, completion.Type)
	assert.Equal(t, "escalate_call", completion.ToolCall.Name)
	assert.Equal(t, "caller asked for a supervisor", completion.ToolCall.Arguments["description"])

	require.Len(t, models.contents, 5)
	assert.Equal(t, string(genai.RoleModel), models.contents[0].Role)
	assert.Equal(t, string(genai.RoleUser), models.contents[1].Role)
	assert.Equal(t, "Please escalate", models.contents[2].Parts[0].Text)
	require.NotNil(t, models.contents[4].Parts[0].FunctionResponse)
	assert.Equal(t, "Name: David Jones", models.contents[4].Parts[0].FunctionResponse.Response["output"])

	require.Len(t, models.cfg.Tools, 1)
	decl := models.cfg.Tools[0].FunctionDeclarations[0]
	assert.Equal(t, []string{"description"}, decl.Parameters.Required)
	assert.Equal(t, genai.TypeInteger, decl.Parameters.Properties["appointment_id"].Type)
}

func TestComplete_Text(t *testing.T) {
	models := &fakeModels{resp: response(&genai.Part{Text: "A supervisor will call you shortly."})}
	client := &Client{models: models, model: defaultModel}

	completion, err := client.Complete(context.Background(), request())

	require.NoError(t, err)
	assert.Equal(t, providers.CompletionFinal, completion.Type)
	assert.Equal(t, "A supervisor will call you shortly.", completion.Text)
}

func TestComplete_Unavailable(t *testing.T) {
	models := &fakeModels{err: errors.New("rpc error: unavailable")}
	client := &Client{models: models, model: defaultModel}

	_, err := client.Complete(context.Background(), request())

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	assert.Equal(t, 3, models.calls)
}

func TestBuildContents_MultiTurnHistory(t *testing.T) {
	req := &providers.CompletionRequest{
		History: []providers.Message{
			{Role: providers.RoleAssistant, Content: "Hi, can I get your name?"},
			{Role: providers.RoleUser, Content: "David Jones"},
			{Role: providers.RoleAssistant, Content: "Thanks David, how can I help?"},
			{Role: providers.RoleUser, Content: "I need an appointment"},
		},
		Input: "March 10th at 2pm",
	}

	contents := buildContents(req)

	require.Len(t, contents, 5)
	wantRoles := []genai.Role{genai.RoleModel, genai.RoleUser, genai.RoleModel, genai.RoleUser, genai.RoleUser}
	for i, want := range wantRoles {
		assert.Equal(t, string(want), contents[i].Role, "content %d", i)
	}
	assert.Equal(t, "Thanks David, how can I help?", contents[2].Parts[0].Text)
	assert.Equal(t, "March 10th at 2pm", contents[4].Parts[0].Text)
}
