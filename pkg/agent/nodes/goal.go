package nodes

import (
	"context"

	"github.com/entrhq/webpilot/pkg/agent/graph"
	"github.com/entrhq/webpilot/pkg/agent/reflect"
	"github.com/entrhq/webpilot/pkg/agent/state"
	"github.com/entrhq/webpilot/pkg/types"
)

// goalRejectionLimit bounds how often a completion claim can be sent back
// for evidence before the run fails as unverified.
const goalRejectionLimit = 2

// goalNode is the completion gate: a claim only becomes a successful
// terminal once the evidence in the record backs it.
type goalNode struct {
	deps *Deps
}

func (n *goalNode) ID() graph.NodeID { return NodeGoal }

func (n *goalNode) Run(_ context.Context, st *state.TaskState) (graph.Transition, error) {
	verdict := reflect.ValidateGoal(st)

	if verdict.Achieved {
		summary := ""
		if msg := st.LastAssistant(); msg != nil {
			summary = msg.Content
		}
		n.deps.Logger.Infof("goal validated: %s", verdict.Reason)
		return graph.Terminal(graph.Outcome{
			Status:  graph.StatusCompleted,
			Reason:  verdict.Reason,
			Summary: summary,
		}, func(st *state.TaskState) {
			st.GoalAchieved = true
		}), nil
	}

	if st.GoalRejections >= goalRejectionLimit {
		n.deps.Logger.Errorf("completion claim rejected %d times, failing run: %s", st.GoalRejections, verdict.Reason)
		return graph.Terminal(graph.Outcome{
			Status:  graph.StatusFailed,
			Reason:  ReasonUnverifiedGoal,
			Summary: "the task was claimed complete but the claim could not be verified: " + verdict.Reason,
		}), nil
	}

	n.deps.Logger.Warnf("completion claim rejected: %s", verdict.Reason)
	feedback := types.NewUserMessage(
		"Your completion claim was rejected: " + verdict.Reason +
			". Continue working on the task and only declare completion once the work is actually done.")
	return graph.Continue(NodeReasoning, func(st *state.TaskState) {
		st.GoalRejections++
		st.Append(feedback)
	}), nil
}
