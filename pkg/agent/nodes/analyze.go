package nodes

import (
	"context"

	"github.com/entrhq/webpilot/pkg/agent/graph"
	"github.com/entrhq/webpilot/pkg/agent/reflect"
	"github.com/entrhq/webpilot/pkg/agent/state"
)

// analyzeNode recomputes the progress estimate on its cadence and watches
// for stagnation: enough consecutive low scores escalate to the strategy
// adapter.
type analyzeNode struct {
	deps *Deps
}

func (n *analyzeNode) ID() graph.NodeID { return NodeAnalyze }

func (n *analyzeNode) Run(_ context.Context, st *state.TaskState) (graph.Transition, error) {
	quality := reflect.QualityScore(st)
	progress := reflect.ProgressScore(st.SuccessRate(), len(st.History), st.ErrorCount, quality)

	stuck := st.StuckCounter
	if progress < n.deps.Loop.StuckScoreThreshold {
		stuck++
	} else {
		stuck = 0
	}

	n.deps.Logger.Infof("progress analysis: score=%.2f quality=%.2f stuck=%d", progress, quality, stuck)

	next := NodeReport
	if stuck > n.deps.Loop.StuckLimit {
		next = NodeAdapt
	}
	return graph.Continue(next, func(st *state.TaskState) {
		st.ProgressScore = progress
		st.QualityScore = quality
		st.StuckCounter = stuck
	}), nil
}
