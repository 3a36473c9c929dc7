package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"budgetbot/internal/core"
)

type fakeModel struct {
	got      []llms.MessageContent
	opts     llms.CallOptions
	deadline bool
	resp     *llms.ContentResponse
	err      error
}

func (f *fakeModel) GenerateContent(ctx context.Context, ms []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.got = ms
	for _, o := range options {
		o(&f.opts)
	}
	_, f.deadline = ctx.Deadline()
	return f.resp, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestCompleteMapsRolesAndOptions(t *testing.T) {
	m := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "Hi there"}}}}
	c := NewWithModel(m, Config{Temperature: 0.7, MaxTokens: 256, Timeout: time.Second})

	out, err := c.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "You are a budget assistant."},
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi"},
		{Role: RoleUser, Content: "how much is left?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", out)

	require.Len(t, m.got, 4)
	assert.Equal(t, llms.ChatMessageTypeSystem, m.got[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, m.got[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, m.got[2].Role)
	assert.Equal(t, llms.TextContent{Text: "how much is left?"}, m.got[3].Parts[0])

	assert.InDelta(t, 0.7, m.opts.Temperature, 1e-9)
	assert.Equal(t, 256, m.opts.MaxTokens)
	assert.True(t, m.deadline, "timeout should bound the call")
}

func TestCompleteWrapsFailures(t *testing.T) {
	c := NewWithModel(&fakeModel{err: errors.New("503")}, Config{})
	_, err := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "x"}})
	assert.ErrorIs(t, err, core.ErrGeneration)

	c = NewWithModel(&fakeModel{resp: &llms.ContentResponse{}}, Config{})
	_, err = c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "x"}})
	assert.ErrorIs(t, err, core.ErrGeneration)
}

func TestDisabledGenerator(t *testing.T) {
	_, err := Disabled{}.Complete(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrGeneration)
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{Model: "llama-3.3-70b-versatile"})
	assert.Error(t, err)
}
