package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/webpilot/pkg/agent/graph"
	"github.com/entrhq/webpilot/pkg/agent/state"
	"github.com/entrhq/webpilot/pkg/types"
)

const roundTo = time.Second

// reportNode surfaces a progress snapshot to observers. It changes no state
// and always returns to reasoning.
type reportNode struct {
	deps *Deps
}

func (n *reportNode) ID() graph.NodeID { return NodeReport }

func (n *reportNode) Run(_ context.Context, st *state.TaskState) (graph.Transition, error) {
	total, failed := st.ActionStats()
	snapshot := fmt.Sprintf("step %d, %s elapsed, %d actions (%d failed), progress %.2f",
		st.Step, st.Elapsed().Round(roundTo), total, failed, st.ProgressScore)

	lastAction := ""
	if msg := st.LastAssistant(); msg != nil && len(msg.Actions) > 0 {
		lastAction = msg.Actions[len(msg.Actions)-1].Name
	}

	n.deps.Logger.Infof("progress report: %s", snapshot)
	event := types.NewProgressReportEvent(st.Step, lastAction, st.ProgressScore)
	event.Content = snapshot
	n.deps.emit(event)

	return graph.Continue(NodeReasoning), nil
}
