package chains

import (
	"context"
	"fmt"
	"strings"

	"netquery/internal/perception"
	"netquery/internal/table"
)

// TaskSuggester proposes verification tasks grounded in the loaded
// network, so a first-time user sees questions that will actually run.
type TaskSuggester struct {
	client    perception.LLMClient
	taskCount int
}

// NewTaskSuggester creates a suggester bound to the given model.
func NewTaskSuggester(client perception.LLMClient) *TaskSuggester {
	return &TaskSuggester{client: client, taskCount: 5}
}

// SetTaskCount overrides how many tasks one call proposes.
func (s *TaskSuggester) SetTaskCount(n int) {
	if n > 0 {
		s.taskCount = n
	}
}

const suggestTemplate = `You are a network engineer doing a demonstration of a network verification software. Rely on the network information below and the example questions to generate %d network verification tasks with actual values.
Answer only with the %d tasks, --no explanation, no expected result, and no additional text.

Nodes:
%s

Interfaces:
%s

Example questions:
1- Show the routing table of node x.
2- Retrieve routes in the BGP RIB.
3- Examine the longest prefix match routes for IP=X on node Y.
4- Retrieve all Layer 3 links in the network.
5- List the properties of BGP peers for node X.
6- Retrieve configuration parameters for all OSPF areas.
7- List defined structures of type 'bgp neighbor' on node A.
8- Identify nodes with defined but unused structures.
9- How is the flow with source IP=X and destination IP=Y for DNS traffic processed by the router A?
10- Find filter lines matching DNS traffic.
11- Trace the paths for a flow from source IP=X to destination IP=Y starting at interface I?
12- What is the compatibility of configured BGP sessions?`

// Suggest produces concrete tasks instantiated with node and interface
// values from the topology sample.
func (s *TaskSuggester) Suggest(ctx context.Context, devices, interfaces table.Table) (string, error) {
	prompt := fmt.Sprintf(suggestTemplate, s.taskCount, s.taskCount, devices.RenderMarkdown(), interfaces.RenderMarkdown())

	resp, err := s.client.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("task suggestion failed: %w", err)
	}
	return strings.TrimSpace(resp), nil
}
