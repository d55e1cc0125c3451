package common

import (
	"strings"
)

const (
	// EditSystemFraming opens every edit instruction sent upstream.
	EditSystemFraming = "You are a professional photo editor."

	// EditRules is appended after the user's task. Keep the numbering stable;
	// prompt regressions are easier to spot in logs that way.
	EditRules = `RULES:
1. Modify ONLY the region(s) of the image described in the task.
2. Keep every untouched pixel identical and preserve the original style, lighting and texture exactly.
3. If the task asks to add an object, integrate it naturally into the scene (perspective, light, shadows).
4. Return only the edited image.`
)

// BuildEditPrompt renders the fixed-format instruction payload for one edit.
// The user's instruction is interpolated verbatim apart from surrounding whitespace.
func BuildEditPrompt(instruction string) string {
	var b strings.Builder
	b.WriteString(EditSystemFraming)
	b.WriteString("\nTASK: ")
	b.WriteString(strings.TrimSpace(instruction))
	b.WriteString("\n")
	b.WriteString(EditRules)
	return b.String()
}
