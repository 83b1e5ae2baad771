// Package guard validates and bounds inbound requests: message length,
// history shape and size, and the per-client request quota. No other
// component performs admission control.
package guard

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/conversation"
)

// ErrRateLimited rejects a client that exhausted its window quota.
// Client-correctable by waiting for the next window.
var ErrRateLimited = errors.New("request quota exceeded for this client")

// ValidationError rejects malformed or oversized input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + e.Reason
}

// ConfigurationError rejects all requests while required external
// credentials are missing. No processing is attempted.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("service not configured: missing %s", strings.Join(e.Missing, ", "))
}

// Limits bounds a single inbound request.
type Limits struct {
	MaxMessageChars   int // Per-message rune cap, also applied to history entries
	MaxHistoryItems   int // Most-recent entries retained
	HistoryCharBudget int // Cumulative history rune budget
}

// Guard admits or rejects inbound requests.
type Guard struct {
	limits       Limits
	quota        *QuotaStore
	missingCreds []string
}

// New creates a Guard. missingCreds comes from config.MissingCredentials();
// when non-empty every request is rejected with a ConfigurationError.
func New(limits Limits, quota *QuotaStore, missingCreds []string) *Guard {
	return &Guard{limits: limits, quota: quota, missingCreds: missingCreds}
}

// Configured reports whether all required external credentials are present.
func (g *Guard) Configured() bool {
	return len(g.missingCreds) == 0
}

// Admit validates one inbound request and returns the trimmed message and
// sanitized history, or a typed rejection. It is the only mutator of the
// per-client quota store.
func (g *Guard) Admit(clientID, rawMessage string, rawHistory []json.RawMessage) (string, []conversation.Turn, error) {
	if len(g.missingCreds) > 0 {
		return "", nil, &ConfigurationError{Missing: g.missingCreds}
	}

	if !g.quota.Allow(clientID) {
		return "", nil, ErrRateLimited
	}

	message := strings.TrimSpace(rawMessage)
	if message == "" {
		return "", nil, &ValidationError{Reason: "message is empty"}
	}
	if len([]rune(message)) > g.limits.MaxMessageChars {
		return "", nil, &ValidationError{
			Reason: fmt.Sprintf("message exceeds %d characters", g.limits.MaxMessageChars),
		}
	}

	return message, g.sanitizeHistory(rawHistory), nil
}

// sanitizeHistory applies, in order: drop non-object entries, coerce roles,
// truncate and drop empty content, keep the most recent entry-count cap,
// trim oldest-first to the character budget, and drop leading assistant
// turns so the answering call opens on a user turn.
func (g *Guard) sanitizeHistory(raw []json.RawMessage) []conversation.Turn {
	turns := make([]conversation.Turn, 0, len(raw))
	for _, entry := range raw {
		var t conversation.Turn
		if err := json.Unmarshal(entry, &t); err != nil {
			continue
		}
		if t.Role != conversation.RoleAssistant {
			t.Role = conversation.RoleUser
		}
		t.Content = strings.TrimSpace(truncateRunes(t.Content, g.limits.MaxMessageChars))
		if t.Content == "" {
			continue
		}
		turns = append(turns, t)
	}

	if len(turns) > g.limits.MaxHistoryItems {
		turns = turns[len(turns)-g.limits.MaxHistoryItems:]
	}

	for len(turns) > 0 && conversation.TotalChars(turns) > g.limits.HistoryCharBudget {
		turns = turns[1:]
	}

	for len(turns) > 0 && turns[0].Role == conversation.RoleAssistant {
		turns = turns[1:]
	}

	return turns
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
