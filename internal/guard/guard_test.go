package guard

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/conversation"
)

func testLimits() Limits {
	return Limits{MaxMessageChars: 100, MaxHistoryItems: 5, HistoryCharBudget: 200}
}

func newTestGuard(t *testing.T, limits Limits) *Guard {
	t.Helper()
	quota := NewQuotaStore(1000, time.Minute)
	t.Cleanup(quota.Close)
	return New(limits, quota, nil)
}

func rawHistory(turns ...conversation.Turn) []json.RawMessage {
	raw := make([]json.RawMessage, len(turns))
	for i, turn := range turns {
		b, _ := json.Marshal(turn)
		raw[i] = b
	}
	return raw
}

func TestAdmit_ConfigurationError(t *testing.T) {
	quota := NewQuotaStore(10, time.Minute)
	t.Cleanup(quota.Close)
	g := New(testLimits(), quota, []string{"openai_api_key"})

	_, _, err := g.Admit("client", "hello", nil)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Missing, "openai_api_key")
	assert.False(t, g.Configured())
	assert.True(t, newTestGuard(t, testLimits()).Configured())
}

func TestAdmit_EmptyMessage(t *testing.T) {
	g := newTestGuard(t, testLimits())
	_, _, err := g.Admit("client", "   ", nil)
	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestAdmit_OversizedMessage(t *testing.T) {
	g := newTestGuard(t, testLimits())
	_, _, err := g.Admit("client", strings.Repeat("x", 101), nil)
	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestAdmit_TrimsMessage(t *testing.T) {
	g := newTestGuard(t, testLimits())
	msg, _, err := g.Admit("client", "  is it toxic  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "is it toxic", msg)
}

func TestAdmit_RateLimitWindow(t *testing.T) {
	quota := NewQuotaStore(3, time.Minute)
	t.Cleanup(quota.Close)
	now := time.Now()
	quota.now = func() time.Time { return now }
	g := New(testLimits(), quota, nil)

	for i := 0; i < 3; i++ {
		_, _, err := g.Admit("client-a", "hello", nil)
		require.NoError(t, err, "request %d within quota", i+1)
	}

	_, _, err := g.Admit("client-a", "hello", nil)
	assert.ErrorIs(t, err, ErrRateLimited)

	// Other clients are unaffected.
	_, _, err = g.Admit("client-b", "hello", nil)
	assert.NoError(t, err)

	// A new window admits again.
	now = now.Add(2 * time.Minute)
	_, _, err = g.Admit("client-a", "hello", nil)
	assert.NoError(t, err)
}

func TestSanitizeHistory_DropsNonObjects(t *testing.T) {
	g := newTestGuard(t, testLimits())
	raw := []json.RawMessage{
		json.RawMessage(`"just a string"`),
		json.RawMessage(`42`),
		json.RawMessage(`{"role":"user","content":"real entry"}`),
	}
	_, history, err := g.Admit("client", "hello", raw)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "real entry", history[0].Content)
}

func TestSanitizeHistory_CoercesRoles(t *testing.T) {
	g := newTestGuard(t, testLimits())
	raw := []json.RawMessage{
		json.RawMessage(`{"role":"system","content":"sneaky"}`),
		json.RawMessage(`{"role":"assistant","content":"reply"}`),
	}
	_, history, err := g.Admit("client", "hello", raw)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, conversation.RoleUser, history[0].Role)
	assert.Equal(t, conversation.RoleAssistant, history[1].Role)
}

func TestSanitizeHistory_TruncatesAndDropsEmpty(t *testing.T) {
	g := newTestGuard(t, testLimits())
	raw := rawHistory(
		conversation.Turn{Role: "user", Content: strings.Repeat("a", 150)},
		conversation.Turn{Role: "user", Content: "   "},
	)
	_, history, err := g.Admit("client", "hello", raw)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Len(t, history[0].Content, 100)
}

func TestSanitizeHistory_KeepsMostRecentN(t *testing.T) {
	g := newTestGuard(t, testLimits())
	var turns []conversation.Turn
	for i := 0; i < 9; i++ {
		turns = append(turns, conversation.Turn{Role: "user", Content: fmt.Sprintf("turn %d", i)})
	}
	_, history, err := g.Admit("client", "hello", rawHistory(turns...))
	require.NoError(t, err)
	require.Len(t, history, 5)
	for i, turn := range history {
		assert.Equal(t, fmt.Sprintf("turn %d", i+4), turn.Content, "relative order preserved")
	}
}

func TestSanitizeHistory_CharBudgetKeepsSuffix(t *testing.T) {
	g := newTestGuard(t, Limits{MaxMessageChars: 100, MaxHistoryItems: 10, HistoryCharBudget: 120})
	raw := rawHistory(
		conversation.Turn{Role: "user", Content: strings.Repeat("a", 90)},
		conversation.Turn{Role: "user", Content: strings.Repeat("b", 90)},
		conversation.Turn{Role: "user", Content: strings.Repeat("c", 90)},
	)
	_, history, err := g.Admit("client", "hello", raw)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, strings.Repeat("c", 90), history[0].Content, "most recent retained preferentially")
	assert.LessOrEqual(t, conversation.TotalChars(history), 120)
}

func TestSanitizeHistory_NeverStartsWithAssistant(t *testing.T) {
	g := newTestGuard(t, testLimits())
	raw := rawHistory(
		conversation.Turn{Role: "assistant", Content: "welcome!"},
		conversation.Turn{Role: "assistant", Content: "anyone there?"},
		conversation.Turn{Role: "user", Content: "hi"},
		conversation.Turn{Role: "assistant", Content: "hello"},
	)
	_, history, err := g.Admit("client", "hello", raw)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, conversation.RoleUser, history[0].Role)
}

func TestQuotaStore_EvictsExpiredEntries(t *testing.T) {
	q := NewQuotaStore(5, time.Minute)
	t.Cleanup(q.Close)
	now := time.Now()
	q.now = func() time.Time { return now }

	q.Allow("a")
	q.Allow("b")
	now = now.Add(2 * time.Minute)
	q.evictExpired()

	q.mu.Lock()
	defer q.mu.Unlock()
	assert.Empty(t, q.entries)
}
