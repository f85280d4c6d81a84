package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Fixed placeholders so the model never sees an empty prompt section.
const (
	noContextSentinel = "No relevant documents found."
	noHistorySentinel = "No previous conversation history."
)

// renderHistory formats turns as "role: content" lines, oldest first.
func renderHistory(turns []domain.Turn) string {
	if len(turns) == 0 {
		return noHistorySentinel
	}
	var b strings.Builder
	for _, t := range turns {
		b.WriteString(t.Role)
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// renderContext formats parents as attributed blocks in retrieval order.
func renderContext(parents []domain.Parent) string {
	if len(parents) == 0 {
		return noContextSentinel
	}
	blocks := make([]string, 0, len(parents))
	for _, p := range parents {
		blocks = append(blocks, fmt.Sprintf("[Source: %s, Page: %d]\n%s", p.Source, p.Page, p.Content))
	}
	return strings.Join(blocks, "\n\n")
}
