package chains

import (
	"context"
	"fmt"
	"strings"

	"netquery/internal/perception"
)

// Explainer turns a tabular query result into a short prose analysis.
type Explainer struct {
	client perception.LLMClient
}

// NewExplainer creates an explainer bound to the given model.
func NewExplainer(client perception.LLMClient) *Explainer {
	return &Explainer{client: client}
}

const explainTemplate = `You are a network engineer. You received a query from a network operator regarding the network status.
They executed a verification query and provided the results in Markdown table format.
Analyze the table and explain the problem to the operator.

Markdown Table:

` + "```" + `
%s
` + "```" + `

Short and concise analysis:
`

// Explain returns the model's first completion verbatim. Single-shot,
// no retries.
func (e *Explainer) Explain(ctx context.Context, resultMarkdown string) (string, error) {
	resp, err := e.client.Complete(ctx, fmt.Sprintf(explainTemplate, resultMarkdown))
	if err != nil {
		return "", fmt.Errorf("result explanation failed: %w", err)
	}
	return strings.TrimSpace(resp), nil
}
