package assistant

import (
	"strings"
)

// Turn is one prior conversation entry supplied by the chat caller.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Speaker labels used in the classifier prompt. The assistant speaks German.
var speakerLabels = map[string]string{
	"user":      "Nutzer",
	"assistant": "Assistent",
}

// BuildConversationPrompt prefixes the new message with the most recent
// conversation turns, speaker-labeled. Only the last `limit` turns with a
// recognized role and non-empty content participate; everything else is
// silently dropped — history comes from the caller and is not trusted to
// be well-formed.
func BuildConversationPrompt(message string, history []Turn, limit int) string {
	if len(history) == 0 || limit <= 0 {
		return message
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}

	var snippets []string
	for _, turn := range history {
		label, ok := speakerLabels[turn.Role]
		if !ok || turn.Content == "" {
			continue
		}
		snippets = append(snippets, label+": "+turn.Content)
	}
	if len(snippets) == 0 {
		return message
	}

	var b strings.Builder
	b.WriteString("Bisheriger Dialog:\n")
	b.WriteString(strings.Join(snippets, "\n"))
	b.WriteString("\nNeue Nutzeranfrage: ")
	b.WriteString(message)
	return b.String()
}
