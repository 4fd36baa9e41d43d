package chains

import (
	"context"
	"fmt"
	"strings"

	"netquery/internal/corpus"
	"netquery/internal/logging"
	"netquery/internal/perception"
)

// Verdict is the outcome of a sufficiency check.
type Verdict struct {
	// Sufficient is true when the task carries enough information to
	// synthesize a query without guessing.
	Sufficient bool

	// Detail holds the model's explanation of what is missing plus a
	// corrected phrasing. Empty when Sufficient.
	Detail string
}

// SufficiencyChecker judges whether a task is specific enough to run.
// It is a pure classification step: no query is ever executed.
type SufficiencyChecker struct {
	store  *corpus.Store
	client perception.LLMClient
	topK   int
}

// NewSufficiencyChecker creates a checker over the given corpus and model.
func NewSufficiencyChecker(store *corpus.Store, client perception.LLMClient) *SufficiencyChecker {
	return &SufficiencyChecker{store: store, client: client, topK: 3}
}

// SetTopK overrides how many corpus examples ground the check.
func (c *SufficiencyChecker) SetTopK(k int) {
	if k > 0 {
		c.topK = k
	}
}

const sufficiencyPrefix = `You are the co-pilot of a network engineer.
Pick the simplest case from the examples below and check if the input query contains the minimal information to generate the analyzer invocation.
First try to infer implicit information or find default values.
Then, if the query has the minimal information, answer with 'OK'. Otherwise, answer by giving:
    - the missing minimal information.
    - an example of correct formulation for the query with minimal information.

Examples:`

// Check classifies the task. A retrieval failure degrades to a zero-shot
// prompt rather than failing the turn.
func (c *SufficiencyChecker) Check(ctx context.Context, task string) (Verdict, error) {
	examples, err := c.store.Retrieve(ctx, task, c.topK)
	if err != nil {
		logging.Retrieval("Sufficiency retrieval failed, continuing without examples: %v", err)
	}

	var b strings.Builder
	b.WriteString(sufficiencyPrefix)
	b.WriteString("\n\n")
	b.WriteString(formatExamples(examples))
	fmt.Fprintf(&b, "\n\nInput query: %s.\n\nDo not include analyzer invocations in your answer.", task)

	resp, err := c.client.Complete(ctx, b.String())
	if err != nil {
		return Verdict{}, fmt.Errorf("sufficiency check failed: %w", err)
	}

	resp = strings.TrimSpace(resp)
	if resp == "OK" {
		return Verdict{Sufficient: true}, nil
	}
	return Verdict{Sufficient: false, Detail: resp}, nil
}
