// Package conversation defines the conversation history model shared by the
// request pipeline.
package conversation

// Turn roles. Exactly these two tags survive sanitization.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one accepted conversation entry. Immutable once admitted.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TotalChars returns the cumulative content length of the history in runes.
func TotalChars(turns []Turn) int {
	total := 0
	for _, t := range turns {
		total += len([]rune(t.Content))
	}
	return total
}
