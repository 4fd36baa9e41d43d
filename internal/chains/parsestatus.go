package chains

import (
	"context"
	"fmt"
	"strings"

	"netquery/internal/perception"
	"netquery/internal/table"
)

// ParseStatusSummarizer turns the analyzer's snapshot-ingestion
// diagnostics into an operator-facing status message.
type ParseStatusSummarizer struct {
	client perception.LLMClient
}

// NewParseStatusSummarizer creates a summarizer bound to the given model.
func NewParseStatusSummarizer(client perception.LLMClient) *ParseStatusSummarizer {
	return &ParseStatusSummarizer{client: client}
}

const parseStatusTemplate = `You are a network engineer. You executed a parsing of configuration files and got the results in Markdown table format.
Analyze the tables and explain the current status to the operator in a short and concise response.

Markdown Tables:


%s`

// Summarize concatenates both diagnostics tables and asks for a concise
// status.
func (p *ParseStatusSummarizer) Summarize(ctx context.Context, parseStatus, initIssues table.Table) (string, error) {
	data := fmt.Sprintf("File parse status:\n%s\n\nInit issues:\n%s",
		parseStatus.RenderMarkdown(), initIssues.RenderMarkdown())

	resp, err := p.client.Complete(ctx, fmt.Sprintf(parseStatusTemplate, data))
	if err != nil {
		return "", fmt.Errorf("parse status summary failed: %w", err)
	}
	return strings.TrimSpace(resp), nil
}
