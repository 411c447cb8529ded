package nodes

import (
	"context"
	"fmt"

	"github.com/entrhq/webpilot/pkg/agent/classify"
	"github.com/entrhq/webpilot/pkg/agent/graph"
	"github.com/entrhq/webpilot/pkg/agent/state"
	"github.com/entrhq/webpilot/pkg/types"
)

// correctNode turns a failed batch into recovery guidance. Categories that
// retrying cannot fix, and runs that keep failing past the retry budget,
// escalate to the strategy adapter instead of looping on hints.
type correctNode struct {
	deps *Deps
}

func (n *correctNode) ID() graph.NodeID { return NodeCorrect }

func (n *correctNode) Run(_ context.Context, st *state.TaskState) (graph.Transition, error) {
	kind := st.LastErrorKind

	if kind == classify.KindCaptcha || kind == classify.KindAuth {
		n.deps.Logger.Warnf("blocking failure (%s), escalating to strategy change", kind)
		return graph.Continue(NodeAdapt), nil
	}

	if n.deps.Loop.RetryLimit > 0 && st.ConsecutiveFailures >= n.deps.Loop.RetryLimit {
		n.deps.Logger.Warnf("%d consecutive failed batches, escalating to strategy change", st.ConsecutiveFailures)
		return graph.Continue(NodeAdapt), nil
	}

	hint := classify.Hint(kind)
	n.deps.Logger.Infof("failure classified as %s, injecting recovery hint (attempt %d/%d)",
		kind, st.ConsecutiveFailures, n.deps.Loop.RetryLimit)

	guidance := types.NewUserMessage(fmt.Sprintf("The last action failed (%s). %s", kind, hint))
	return graph.Continue(NodeReasoning, func(st *state.TaskState) {
		st.Append(guidance)
	}), nil
}
