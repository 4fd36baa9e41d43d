package chains

import (
	"context"
	"fmt"
	"strings"

	"netquery/internal/corpus"
	"netquery/internal/logging"
	"netquery/internal/perception"
)

// Synthesizer turns a natural-language task into an executable query
// program. The output is raw program text; the caller runs it in the
// sandbox and must never trust it beyond that boundary.
type Synthesizer struct {
	store  *corpus.Store
	client perception.LLMClient
	topK   int
}

// NewSynthesizer creates a synthesizer over the given corpus and model.
func NewSynthesizer(store *corpus.Store, client perception.LLMClient) *Synthesizer {
	return &Synthesizer{store: store, client: client, topK: 3}
}

// SetTopK overrides how many corpus examples ground the synthesis.
func (s *Synthesizer) SetTopK(k int) {
	if k > 0 {
		s.topK = k
	}
}

const synthesisPrefix = `You are the co-pilot of a network engineer. Given the input task, complete the Go function template with the correct analyzer invocation and return a table.

Function template:
` + "```" + `
func Run() nql.Table {
	answer, err := bf.Q("<question name>", map[string]interface{}{<parameters>}).Answer(ctx)
	if err != nil {
		return nql.EmptyTable()
	}
	if !answer.HasFrame() {
		return nql.EmptyTable()
	}
	return answer.Frame()
}
` + "```" + `

Rely on the examples below to generate the correct analyzer invocation:`

// Synthesize produces the program for a task. The result has code-fence
// markup already stripped but is otherwise unvalidated.
func (s *Synthesizer) Synthesize(ctx context.Context, task string) (string, error) {
	examples, err := s.store.Retrieve(ctx, task, s.topK)
	if err != nil {
		logging.Retrieval("Synthesis retrieval failed, continuing without examples: %v", err)
	}

	var b strings.Builder
	b.WriteString(synthesisPrefix)
	b.WriteString("\n\n")
	b.WriteString(formatExamples(examples))
	fmt.Fprintf(&b, "\n\nInput task: %s\n\nAnswer only with the completed function, --no initialization, no explanation, and no code fences.", task)

	resp, err := s.client.Complete(ctx, b.String())
	if err != nil {
		return "", fmt.Errorf("query synthesis failed: %w", err)
	}

	program := StripCodeFence(strings.TrimSpace(resp))
	logging.AgentDebug("Synthesized program for task %q:\n%s", task, program)
	return program, nil
}
