package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"netquery/internal/logging"
	"netquery/internal/perception"
)

// State tracks where a turn is in its lifecycle.
type State int

const (
	StateAwaitingInput State = iota
	StateReasoning
	StateToolCall
	StateFinalAnswer
)

func (s State) String() string {
	switch s {
	case StateAwaitingInput:
		return "awaiting_input"
	case StateReasoning:
		return "reasoning"
	case StateToolCall:
		return "tool_call"
	case StateFinalAnswer:
		return "final_answer"
	default:
		return "unknown"
	}
}

const systemPrompt = `You are the co-pilot of a network engineer.
Answer the query you are asked using the provided tools.
You can ask the human for more clarifications if the task is ambiguous or if you are not sure about what to do next.`

// Orchestrator runs the per-turn tool-calling loop. Each turn is one
// call to HandleTurn: the model may request zero or more tool
// invocations before producing its final answer, bounded by
// maxIterations because the model-driven loop has no termination
// guarantee of its own.
type Orchestrator struct {
	client        perception.LLMClient
	registry      *Registry
	memory        *Memory
	maxIterations int

	state State
}

// NewOrchestrator creates an orchestrator with its own empty memory.
func NewOrchestrator(client perception.LLMClient, registry *Registry, maxIterations int) *Orchestrator {
	if maxIterations < 1 {
		maxIterations = 4
	}
	return &Orchestrator{
		client:        client,
		registry:      registry,
		memory:        NewMemory(),
		maxIterations: maxIterations,
		state:         StateAwaitingInput,
	}
}

// Memory exposes the conversation log, mostly for inspection in tests.
func (o *Orchestrator) Memory() *Memory {
	return o.memory
}

// State returns the current turn state.
func (o *Orchestrator) State() State {
	return o.state
}

// HandleTurn processes one user message and returns the final answer.
// Memory is mutated only on success, and only with the final
// user/assistant pair; a failed turn leaves memory untouched.
func (o *Orchestrator) HandleTurn(ctx context.Context, input string) (string, error) {
	turnID := uuid.NewString()
	logging.Agent("Turn %s started (%d messages in memory)", turnID, o.memory.Len())

	messages := append(o.memory.Turns(), perception.Message{
		Role:    perception.RoleUser,
		Content: input,
	})

	o.state = StateReasoning
	defer func() { o.state = StateAwaitingInput }()

	var final string
	for iteration := 0; iteration < o.maxIterations; iteration++ {
		resp, err := o.client.ChatWithTools(ctx, systemPrompt, messages, o.registry.Definitions())
		if err != nil {
			return "", fmt.Errorf("turn failed: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			o.state = StateFinalAnswer
			final = resp.Text
			break
		}

		o.state = StateToolCall
		messages = append(messages, perception.Message{
			Role:      perception.RoleAssistant,
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			messages = append(messages, o.runTool(ctx, turnID, call))
		}
		o.state = StateReasoning
	}

	if o.state != StateFinalAnswer {
		// Iteration budget exhausted mid-loop. Force a final answer
		// by withdrawing the tools.
		logging.Agent("Turn %s hit the tool iteration limit (%d)", turnID, o.maxIterations)
		resp, err := o.client.ChatWithTools(ctx, systemPrompt, messages, nil)
		if err != nil {
			return "", fmt.Errorf("turn failed: %w", err)
		}
		o.state = StateFinalAnswer
		final = resp.Text
	}

	o.memory.AppendExchange(input, final)
	logging.Agent("Turn %s completed", turnID)
	return final, nil
}

// runTool executes one tool call and wraps the outcome as a tool-result
// message. Handler failures are reported to the model, not raised.
func (o *Orchestrator) runTool(ctx context.Context, turnID string, call perception.ToolCall) perception.Message {
	logging.Agent("Turn %s: tool call %s(%v)", turnID, call.Name, call.Input)

	tool, ok := o.registry.Get(call.Name)
	if !ok {
		return perception.Message{
			Role:       perception.RoleTool,
			ToolCallID: call.ID,
			Content:    fmt.Sprintf("Error: unknown tool %q", call.Name),
		}
	}

	out, err := tool.Handler(ctx, call.Input)
	if err != nil {
		logging.Agent("Turn %s: tool %s failed: %v", turnID, call.Name, err)
		return perception.Message{
			Role:       perception.RoleTool,
			ToolCallID: call.ID,
			Content:    fmt.Sprintf("Error: %v", err),
		}
	}
	return perception.Message{
		Role:       perception.RoleTool,
		ToolCallID: call.ID,
		Content:    out,
	}
}
