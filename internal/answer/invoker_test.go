package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/conversation"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/llm"
)

type fakeProvider struct {
	reply   string
	err     error
	system  string
	turns   []llm.Message
	message string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Classify(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeProvider) Chat(ctx context.Context, system string, turns []llm.Message, message string) (string, error) {
	f.system = system
	f.turns = turns
	f.message = message
	return f.reply, f.err
}

func TestAnswer_ReturnsReplyVerbatim(t *testing.T) {
	p := &fakeProvider{reply: "  Delta Green is diluted 1:40.  "}
	inv := New(p)

	out, err := inv.Answer(context.Background(), "how do I dilute it", nil, "context here")
	require.NoError(t, err)
	assert.Equal(t, "  Delta Green is diluted 1:40.  ", out, "no post-processing")
}

func TestAnswer_SystemEmbedsContextAndRules(t *testing.T) {
	p := &fakeProvider{reply: "ok"}
	inv := New(p)

	_, err := inv.Answer(context.Background(), "q", nil, "THE CONTEXT BLOCK")
	require.NoError(t, err)
	assert.Contains(t, p.system, "THE CONTEXT BLOCK")
	assert.Contains(t, p.system, "premium product data, then the technical record, then policy text")
	assert.Equal(t, "q", p.message)
}

func TestAnswer_ErrorPropagates(t *testing.T) {
	p := &fakeProvider{err: errors.New("model down")}
	inv := New(p)
	_, err := inv.Answer(context.Background(), "q", nil, "ctx")
	assert.Error(t, err)
}

func TestMapHistory_DropsLeadingAssistantTurns(t *testing.T) {
	history := []conversation.Turn{
		{Role: conversation.RoleAssistant, Content: "welcome"},
		{Role: conversation.RoleUser, Content: "hi"},
		{Role: conversation.RoleAssistant, Content: "hello"},
	}
	turns := MapHistory(history)
	require.Len(t, turns, 2)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "hi"}, turns[0])
	assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: "hello"}, turns[1])
}

func TestMapHistory_AllAssistantBecomesEmpty(t *testing.T) {
	history := []conversation.Turn{
		{Role: conversation.RoleAssistant, Content: "a"},
		{Role: conversation.RoleAssistant, Content: "b"},
	}
	assert.Empty(t, MapHistory(history))
}
