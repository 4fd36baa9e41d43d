package chat

import (
	"context"
	"fmt"

	"netquery/internal/agent"
	"netquery/internal/perception"
)

// buildRegistry assembles the agent's tool set. Every handler closes
// over this session only; nothing here is shared across sessions.
func (s *Session) buildRegistry() *agent.Registry {
	registry := agent.NewRegistry()

	mustRegister(registry, agent.Tool{
		Definition: perception.ToolDefinition{
			Name:        "process_query",
			Description: "Useful to answer text queries about the network's configuration or forwarding analysis.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"task": map[string]interface{}{
						"type":        "string",
						"description": "The natural-language verification task to run.",
					},
				},
				"required": []string{"task"},
			},
		},
		Handler: func(ctx context.Context, input map[string]interface{}) (string, error) {
			task, err := stringArg(input, "task")
			if err != nil {
				return "", err
			}
			return s.ProcessQuery(ctx, task)
		},
	})

	mustRegister(registry, agent.Tool{
		Definition: perception.ToolDefinition{
			Name:        "explain_result",
			Description: "Useful to explain the Markdown table resulting from a query.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"table": map[string]interface{}{
						"type":        "string",
						"description": "The Markdown table to analyze.",
					},
				},
				"required": []string{"table"},
			},
		},
		Handler: func(ctx context.Context, input map[string]interface{}) (string, error) {
			tbl, err := stringArg(input, "table")
			if err != nil {
				return "", err
			}
			return s.explainer.Explain(ctx, tbl)
		},
	})

	mustRegister(registry, agent.Tool{
		Definition: perception.ToolDefinition{
			Name:        "analyze_table",
			Description: "Useful to filter and manipulate a Markdown table using text queries.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"table": map[string]interface{}{
						"type":        "string",
						"description": "The Markdown table to analyze.",
					},
					"question": map[string]interface{}{
						"type":        "string",
						"description": "The question to answer about the table.",
					},
				},
				"required": []string{"table", "question"},
			},
		},
		Handler: func(ctx context.Context, input map[string]interface{}) (string, error) {
			tbl, err := stringArg(input, "table")
			if err != nil {
				return "", err
			}
			question, err := stringArg(input, "question")
			if err != nil {
				return "", err
			}
			return s.tableAnlz.Analyze(ctx, tbl, question)
		},
	})

	return registry
}

func mustRegister(r *agent.Registry, t agent.Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

func stringArg(input map[string]interface{}, key string) (string, error) {
	v, ok := input[key]
	if !ok {
		return "", fmt.Errorf("missing argument %q", key)
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q is not a string", key)
	}
	return str, nil
}
