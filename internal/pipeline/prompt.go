package pipeline

import "strings"

// ComposePrompt appends the style prompt and the job-wide prompt to the scene
// prompt, skipping blank parts.
func ComposePrompt(prompt, style, global string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{prompt, style, global} {
		part = strings.TrimSpace(part)
		part = strings.TrimRight(part, ", ")
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}
