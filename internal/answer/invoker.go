// Package answer builds the final instruction/context bundle, invokes the
// answering model, and returns its reply verbatim.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/conversation"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/llm"
)

// governanceRules is the fixed rule block injected into every answering
// call. Source-of-truth precedence: premium data outranks the technical
// record, which outranks policy text.
const governanceRules = `Rules:
1. Answer only from the context above. Precedence when sources disagree:
   premium product data, then the technical record, then policy text.
2. Never invent dilution ratios, safety classifications, or delivery
   coverage. If the context does not contain it, say so.
3. Disclose hazmat handling requirements whenever the technical record
   mentions them.
4. If the customer reports an exposure incident or asks for medical advice,
   tell them to contact poison control and escalate to a human agent.
5. Act on any STATUS marker in the context before anything else.`

// Invoker runs the multi-turn answering call.
type Invoker struct {
	provider llm.Provider
}

// New creates an Invoker on the given model provider.
func New(provider llm.Provider) *Invoker {
	return &Invoker{provider: provider}
}

// Answer sends the governance instruction, mapped history, and new user
// message to the model and returns its text verbatim, with no
// post-processing or truncation. Any model failure is unrecoverable for the
// request.
func (i *Invoker) Answer(ctx context.Context, message string, history []conversation.Turn, contextBlock string) (string, error) {
	reply, err := i.provider.Chat(ctx, buildSystem(contextBlock), MapHistory(history), message)
	if err != nil {
		return "", fmt.Errorf("answering call: %w", err)
	}
	return reply, nil
}

// MapHistory converts sanitized history into the external turn format. The
// external API requires conversations to open on a user turn, so leading
// assistant turns are dropped until the first turn is a user turn or the
// sequence is empty.
func MapHistory(history []conversation.Turn) []llm.Message {
	start := 0
	for start < len(history) && history[start].Role == conversation.RoleAssistant {
		start++
	}
	turns := make([]llm.Message, 0, len(history)-start)
	for _, t := range history[start:] {
		role := llm.RoleUser
		if t.Role == conversation.RoleAssistant {
			role = llm.RoleAssistant
		}
		turns = append(turns, llm.Message{Role: role, Content: t.Content})
	}
	return turns
}

func buildSystem(contextBlock string) string {
	var sb strings.Builder
	sb.WriteString("You are the product assistant for United Formulas, a cleaning chemicals supplier.\n\n")
	sb.WriteString("Context:\n")
	sb.WriteString(contextBlock)
	sb.WriteString("\n\n")
	sb.WriteString(governanceRules)
	return sb.String()
}
