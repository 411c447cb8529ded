package nodes

import (
	"context"
	"sync"

	"github.com/entrhq/webpilot/pkg/agent/graph"
	"github.com/entrhq/webpilot/pkg/agent/state"
	"github.com/entrhq/webpilot/pkg/tools"
	"github.com/entrhq/webpilot/pkg/types"
)

// executeNode runs the pending batch against the executor. Batches marked
// parallel are dispatched concurrently; results always land in batch order
// so the record is deterministic either way.
type executeNode struct {
	deps *Deps
}

func (n *executeNode) ID() graph.NodeID { return NodeExecute }

func (n *executeNode) Run(ctx context.Context, st *state.TaskState) (graph.Transition, error) {
	batch := st.PendingBatch
	if len(batch) == 0 {
		// A decision with prose but no actions just feeds back into
		// reasoning; nothing to execute.
		return graph.Continue(NodeReasoning, func(st *state.TaskState) {
			st.ClearBatch()
		}), nil
	}

	results := n.dispatch(ctx, batch, st.Parallel)

	failed := false
	for _, res := range results {
		n.deps.emit(&types.AgentEvent{
			Type:    types.EventTypeActionResult,
			Node:    string(NodeExecute),
			Step:    st.Step,
			Content: res.Name + ": " + res.Text(),
		})
		if res.Failed() {
			failed = true
			n.deps.Logger.Warnf("action %s failed: %s", res.Name, res.Error)
		} else {
			n.deps.Logger.Debugf("action %s ok", res.Name)
		}
	}

	next := n.route(st, failed)
	return graph.Continue(next, func(st *state.TaskState) {
		st.RecordResults(results)
		st.ClearBatch()
	}), nil
}

func (n *executeNode) dispatch(ctx context.Context, batch []tools.Action, parallel bool) []tools.Result {
	results := make([]tools.Result, len(batch))

	if !parallel || len(batch) == 1 {
		for i, action := range batch {
			n.emitStart(action)
			results[i] = n.deps.Executor.Execute(ctx, action)
		}
		return results
	}

	var wg sync.WaitGroup
	for i, action := range batch {
		n.emitStart(action)
		wg.Add(1)
		go func(i int, action tools.Action) {
			defer wg.Done()
			results[i] = n.deps.Executor.Execute(ctx, action)
		}(i, action)
	}
	wg.Wait()
	return results
}

func (n *executeNode) emitStart(action tools.Action) {
	n.deps.emit(&types.AgentEvent{
		Type:    types.EventTypeActionStart,
		Node:    string(NodeExecute),
		Content: action.Name,
	})
}

// route picks the post-execution node: failures go to self-correction,
// otherwise the analysis and reporting cadences take their turns, and the
// default is straight back to reasoning.
func (n *executeNode) route(st *state.TaskState, failed bool) graph.NodeID {
	if failed {
		return NodeCorrect
	}
	nextStep := st.Step + 1
	if n.deps.Loop.AnalyzeCadence > 0 && nextStep%n.deps.Loop.AnalyzeCadence == 0 {
		return NodeAnalyze
	}
	if n.deps.Loop.ReportCadence > 0 && nextStep%n.deps.Loop.ReportCadence == 0 {
		return NodeReport
	}
	return NodeReasoning
}
