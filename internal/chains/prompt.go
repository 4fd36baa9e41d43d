package chains

import (
	"strings"

	"netquery/internal/corpus"
)

// formatExamples renders retrieved examples as few-shot blocks.
func formatExamples(examples []corpus.Scored) string {
	var b strings.Builder
	for i, ex := range examples {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Question: ")
		b.WriteString(ex.Question)
		b.WriteString("\nInvocation: ")
		b.WriteString(ex.Invocation)
	}
	return b.String()
}
