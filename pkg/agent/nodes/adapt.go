package nodes

import (
	"context"
	"fmt"

	"github.com/entrhq/webpilot/pkg/agent/classify"
	"github.com/entrhq/webpilot/pkg/agent/graph"
	"github.com/entrhq/webpilot/pkg/agent/state"
	"github.com/entrhq/webpilot/pkg/types"
)

// maxStrategyChanges bounds how often the approach can be reworked before
// the run is declared unwinnable.
const maxStrategyChanges = 3

// adaptNode injects a strategy change when the current approach has stopped
// working, and terminates the run once the adaptation budget is spent.
type adaptNode struct {
	deps *Deps
}

func (n *adaptNode) ID() graph.NodeID { return NodeAdapt }

func (n *adaptNode) Run(_ context.Context, st *state.TaskState) (graph.Transition, error) {
	if st.StrategyChanges >= maxStrategyChanges {
		reason := ReasonNoStrategy
		if st.ConsecutiveFailures > 0 && st.LastErrorKind != classify.KindNone {
			// Failure-driven escalation keeps the error category in the
			// terminal reason; stuck-driven escalation has no single cause.
			reason = fmt.Sprintf("retry_exhausted:%s", st.LastErrorKind)
		}
		n.deps.Logger.Errorf("strategy budget exhausted after %d changes, terminating (%s)", st.StrategyChanges, reason)
		return graph.Terminal(graph.Outcome{
			Status:  graph.StatusFailed,
			Reason:  reason,
			Summary: fmt.Sprintf("gave up after %d strategy changes without progress", st.StrategyChanges),
		}), nil
	}

	guidance := strategyGuidance(st)
	n.deps.Logger.Infof("strategy change %d/%d: %s", st.StrategyChanges+1, maxStrategyChanges, guidance)

	msg := types.NewUserMessage("STRATEGY CHANGE REQUIRED: " + guidance)
	return graph.Continue(NodeReasoning, func(st *state.TaskState) {
		st.StrategyChanges++
		st.StuckCounter = 0
		st.ConsecutiveFailures = 0
		st.Append(msg)
	}), nil
}

// strategyGuidance picks the adaptation message for the failure mode that
// triggered escalation.
func strategyGuidance(st *state.TaskState) string {
	switch st.LastErrorKind {
	case classify.KindCaptcha:
		return "A bot challenge is blocking this path. Abandon the current site or flow and try a different source for the same goal."
	case classify.KindAuth:
		return "The current path requires credentials you do not have. Find a route that does not need authentication, or report what is accessible without it."
	case classify.KindNetwork:
		return "The site is unreliable. Navigate to an alternative page or source instead of retrying the same request."
	case classify.KindElementNotFound, classify.KindStaleRef:
		return "Interacting with this page structure keeps failing. Re-extract the page, reconsider the layout, and use different elements or a different navigation path."
	default:
		return "The current approach is not making progress. Step back, reconsider the task, and try a substantially different sequence of actions."
	}
}
