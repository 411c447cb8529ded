package nodes

import (
	"context"

	"github.com/entrhq/webpilot/pkg/agent/graph"
	"github.com/entrhq/webpilot/pkg/agent/reflect"
	"github.com/entrhq/webpilot/pkg/agent/state"
	"github.com/entrhq/webpilot/pkg/types"
)

// qualityRetryLimit is how many times a thin answer is sent back for
// improvement before it proceeds to goal validation as-is.
const qualityRetryLimit = 1

// qualityNode grades a claimed completion before goal validation. A poor
// answer gets one chance at improvement; after that the claim moves on and
// goal validation has the final word.
type qualityNode struct {
	deps *Deps
}

func (n *qualityNode) ID() graph.NodeID { return NodeQuality }

func (n *qualityNode) Run(_ context.Context, st *state.TaskState) (graph.Transition, error) {
	quality := reflect.QualityScore(st)
	n.deps.Logger.Infof("completion quality: %.2f", quality)

	if quality <= reflect.QualityPoor && st.QualityRetries < qualityRetryLimit {
		feedback := types.NewUserMessage(
			"Your final answer is too thin. Provide a complete answer to the original task, " +
				"including the concrete information or confirmation the task asked for.")
		return graph.Continue(NodeReasoning, func(st *state.TaskState) {
			st.QualityScore = quality
			st.QualityRetries++
			st.Append(feedback)
		}), nil
	}

	return graph.Continue(NodeGoal, func(st *state.TaskState) {
		st.QualityScore = quality
	}), nil
}
