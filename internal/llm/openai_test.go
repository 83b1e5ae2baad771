package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/testutil"
)

func TestOpenAIProvider_Classify(t *testing.T) {
	mock := testutil.NewMockLLMServer("GUIDE")
	t.Cleanup(mock.Close)

	p := NewOpenAIProviderWithBaseURL("test-key", mock.URL(), "gpt-4o-mini", "gpt-4o")
	out, err := p.Classify(context.Background(), "classify this")
	require.NoError(t, err)
	assert.Equal(t, "GUIDE", out)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "gpt-4o-mini", reqs[0].Model)
	require.Len(t, reqs[0].Messages, 1)
	assert.Equal(t, "user", reqs[0].Messages[0].Role)
	assert.Equal(t, "classify this", reqs[0].Messages[0].Content)
}

func TestOpenAIProvider_Chat_MessageOrder(t *testing.T) {
	mock := testutil.NewMockLLMServer("the reply")
	t.Cleanup(mock.Close)

	p := NewOpenAIProviderWithBaseURL("test-key", mock.URL(), "gpt-4o-mini", "gpt-4o")
	turns := []Message{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi, how can I help?"},
	}
	out, err := p.Chat(context.Background(), "system rules", turns, "new question")
	require.NoError(t, err)
	assert.Equal(t, "the reply", out)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "gpt-4o", reqs[0].Model)
	require.Len(t, reqs[0].Messages, 4)
	assert.Equal(t, "system", reqs[0].Messages[0].Role)
	assert.Equal(t, "system rules", reqs[0].Messages[0].Content)
	assert.Equal(t, "user", reqs[0].Messages[1].Role)
	assert.Equal(t, "assistant", reqs[0].Messages[2].Role)
	assert.Equal(t, "user", reqs[0].Messages[3].Role)
	assert.Equal(t, "new question", reqs[0].Messages[3].Content)
}

func TestOpenAIProvider_Chat_Error(t *testing.T) {
	p := NewOpenAIProviderWithBaseURL("test-key", "http://127.0.0.1:1", "gpt-4o-mini", "gpt-4o")
	_, err := p.Chat(context.Background(), "sys", nil, "msg")
	assert.Error(t, err)
}
