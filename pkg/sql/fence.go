package sql

import "strings"

// StripCodeFence removes markdown code fence wrapping from a generative
// backend response, leaving the bare SQL text. Responses without fences pass
// through with surrounding whitespace trimmed.
func StripCodeFence(response string) string {
	text := strings.TrimSpace(response)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	switch {
	case strings.HasPrefix(text, "```sql"):
		text = strings.TrimPrefix(text, "```sql")
	case strings.HasPrefix(text, "```SQL"):
		text = strings.TrimPrefix(text, "```SQL")
	default:
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	return strings.TrimSpace(text)
}
