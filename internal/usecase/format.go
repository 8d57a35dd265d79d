package usecase

import (
	"fmt"
	"strings"
)

// BasicFormat is the deterministic text used when the publication formatter fails.
func BasicFormat(title, body, url, sourceName string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(title))
	if body = strings.TrimSpace(body); body != "" {
		b.WriteString("\n\n")
		b.WriteString(body)
	}
	if sourceName != "" {
		fmt.Fprintf(&b, "\n\nSource: %s", sourceName)
	}
	if url != "" {
		fmt.Fprintf(&b, "\n%s", url)
	}
	return b.String()
}
