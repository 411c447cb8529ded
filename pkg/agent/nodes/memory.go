package nodes

import (
	"context"
	"fmt"

	"github.com/entrhq/webpilot/pkg/agent/graph"
	"github.com/entrhq/webpilot/pkg/agent/state"
	"github.com/entrhq/webpilot/pkg/types"
)

// memoryNode compacts the conversation when reasoning detects token
// pressure, then hands control straight back to reasoning.
type memoryNode struct {
	deps *Deps
}

func (n *memoryNode) ID() graph.NodeID { return NodeMemory }

func (n *memoryNode) Run(ctx context.Context, st *state.TaskState) (graph.Transition, error) {
	if n.deps.Compactor == nil {
		return graph.Continue(NodeReasoning), nil
	}

	compacted, summary, changed, err := n.deps.Compactor.Compact(ctx, st.History)
	if err != nil {
		return graph.Transition{}, fmt.Errorf("history compaction: %w", err)
	}
	if !changed {
		return graph.Continue(NodeReasoning), nil
	}

	folded := len(st.History) - len(compacted) + 1
	n.deps.emit(&types.AgentEvent{
		Type:    types.EventTypeCompaction,
		Node:    string(NodeMemory),
		Step:    st.Step,
		Content: fmt.Sprintf("folded %d messages", folded),
	})

	boundary := len(compacted) - 1
	return graph.Continue(NodeReasoning, func(st *state.TaskState) {
		st.History = compacted
		st.Compactions++
		st.LastSummary = &state.SummaryContext{Boundary: boundary, Summary: summary}
	}), nil
}
