package agent

import (
	"netquery/internal/perception"
)

// Memory is the append-only conversation log for one chat session.
// Only the final user/assistant pair of each turn is retained; tool
// calls and tool results never enter memory, so the model has no
// durable record of intermediate reasoning across turns.
type Memory struct {
	turns []perception.Message
}

// NewMemory returns an empty conversation log.
func NewMemory() *Memory {
	return &Memory{}
}

// AppendExchange records one completed turn. Mutation is turn-granular:
// a turn that fails before producing a final answer records nothing.
func (m *Memory) AppendExchange(user, assistant string) {
	m.turns = append(m.turns,
		perception.Message{Role: perception.RoleUser, Content: user},
		perception.Message{Role: perception.RoleAssistant, Content: assistant},
	)
}

// Turns returns a copy of the log in order.
func (m *Memory) Turns() []perception.Message {
	out := make([]perception.Message, len(m.turns))
	copy(out, m.turns)
	return out
}

// Len returns the number of recorded messages.
func (m *Memory) Len() int {
	return len(m.turns)
}
