package draft

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/autopotter/autopotter/internal/config"
	"github.com/autopotter/autopotter/internal/services/openai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockCompleter mocks openai.Servicer for generator tests
type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, messages []openai.Message, opts openai.CompletionOptions) (*openai.Response, error) {
	args := m.Called(ctx, messages, opts)
	if resp := args.Get(0); resp != nil {
		return resp.(*openai.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCompleter) GetContent(ctx context.Context, messages []openai.Message, opts openai.CompletionOptions) (string, error) {
	args := m.Called(ctx, messages, opts)
	return args.String(0), args.Error(1)
}

const draftResponse = `{
	"videos": [
		{
			"title": "Throwing a bowl",
			"video_strategy": "process",
			"video_caption": "Fresh off the wheel",
			"json2video_config_str": "{\"scenes\": [{\"elements\": [{\"type\": \"video\", \"src\": \"x\"}]}]}"
		}
	]
}`

func TestGenerateParsesCandidates(t *testing.T) {
	svc := &mockCompleter{}
	svc.On("GetContent", mock.Anything, mock.Anything, mock.Anything).Return(draftResponse, nil)

	gen := NewGenerator(svc, config.OpenAIConfig{Model: "gpt-4o", Instructions: "be creative"})
	list, err := gen.Generate(context.Background(), "five ideas please", nil)

	require.NoError(t, err)
	require.Len(t, list.Videos, 1)
	assert.Equal(t, "Throwing a bowl", list.Videos[0].Title)
	assert.False(t, list.Videos[0].Config().IsEmpty())
	svc.AssertExpectations(t)
}

func TestGeneratePassesContextDataToModel(t *testing.T) {
	svc := &mockCompleter{}
	var seenInstructions string
	svc.On("GetContent", mock.Anything, mock.MatchedBy(func(msgs []openai.Message) bool {
		if len(msgs) != 2 || msgs[0].Role != "developer" {
			return false
		}
		seenInstructions = msgs[0].Content
		return true
	}), mock.Anything).Return(draftResponse, nil)

	gen := NewGenerator(svc, config.OpenAIConfig{Model: "gpt-4o", Instructions: "base"})
	_, err := gen.Generate(context.Background(), "go", map[string]interface{}{
		"gcs_inventory": map[string]int{"video_uploads": 3},
	})

	require.NoError(t, err)
	assert.Contains(t, seenInstructions, "base")
	assert.Contains(t, seenInstructions, "CONTEXT DATA")
	assert.Contains(t, seenInstructions, "video_uploads")
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	gen := NewGenerator(&mockCompleter{}, config.OpenAIConfig{})
	_, err := gen.Generate(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestGeneratePropagatesServiceError(t *testing.T) {
	svc := &mockCompleter{}
	svc.On("GetContent", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("rate limited"))

	gen := NewGenerator(svc, config.OpenAIConfig{Model: "gpt-4o"})
	_, err := gen.Generate(context.Background(), "go", nil)
	assert.ErrorContains(t, err, "rate limited")
}

func TestGenerateRecoversProseWrappedAnswer(t *testing.T) {
	svc := &mockCompleter{}
	svc.On("GetContent", mock.Anything, mock.Anything, mock.Anything).
		Return("Sure! "+draftResponse+" Enjoy.", nil)

	gen := NewGenerator(svc, config.OpenAIConfig{Model: "gpt-4o"})
	list, err := gen.Generate(context.Background(), "go", nil)

	require.NoError(t, err)
	assert.Len(t, list.Videos, 1)
}

func TestSaveAndLoadOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafts", "output.json")
	list := List{Videos: []Candidate{{Title: "a", Caption: "cap", RawConfig: "{}"}}}

	require.NoError(t, SaveOutput(path, "prompt", list))

	out, err := LoadOutput(path)
	require.NoError(t, err)
	assert.Equal(t, "prompt", out.Prompt)
	assert.Equal(t, "a", out.ParsedOutput.Videos[0].Title)
}

func TestLoadOutputRejectsEmptyDraftFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.json")
	require.NoError(t, SaveOutput(path, "prompt", List{}))

	_, err := LoadOutput(path)
	assert.Error(t, err)
}
