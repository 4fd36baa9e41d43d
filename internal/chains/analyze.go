package chains

import (
	"context"
	"fmt"
	"strings"

	"netquery/internal/perception"
	"netquery/internal/table"
)

// TableAnalyzer answers ad-hoc questions about an already-retrieved
// result table: filtering, counting, aggregation. It re-parses the
// rendered Markdown so the model works from structured data, not from
// whatever formatting the table happened to carry.
type TableAnalyzer struct {
	client perception.LLMClient
}

// NewTableAnalyzer creates an analyzer bound to the given model.
func NewTableAnalyzer(client perception.LLMClient) *TableAnalyzer {
	return &TableAnalyzer{client: client}
}

const analyzeTemplate = `You are a data analyst working on network verification results.
The table below has columns: %s.
It contains %d rows.

Table:

%s

Answer the following question about this table. If the answer is itself tabular, respond with a Markdown table and nothing else; otherwise respond with a short text answer.

Question: %s`

// Analyze parses the Markdown table and asks the model the question
// against it. The response is either prose or a Markdown table.
func (a *TableAnalyzer) Analyze(ctx context.Context, resultMarkdown, question string) (string, error) {
	tbl, err := table.ParseMarkdown(resultMarkdown)
	if err != nil {
		return "", fmt.Errorf("table analysis failed: %w", err)
	}

	prompt := fmt.Sprintf(analyzeTemplate,
		strings.Join(tbl.Columns, ", "), tbl.NumRows(), tbl.RenderMarkdown(), question)

	resp, err := a.client.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("table analysis failed: %w", err)
	}
	return strings.TrimSpace(resp), nil
}
