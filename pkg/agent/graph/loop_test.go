package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/webpilot/pkg/agent/state"
	"github.com/entrhq/webpilot/pkg/tools"
	"github.com/entrhq/webpilot/pkg/types"
)

type stubNode struct {
	id  NodeID
	run func(ctx context.Context, st *state.TaskState) (Transition, error)
}

func (n *stubNode) ID() NodeID { return n.id }

func (n *stubNode) Run(ctx context.Context, st *state.TaskState) (Transition, error) {
	return n.run(ctx, st)
}

func node(id NodeID, run func(ctx context.Context, st *state.TaskState) (Transition, error)) Node {
	return &stubNode{id: id, run: run}
}

func TestNewRegistry(t *testing.T) {
	a := node("a", nil)
	b := node("b", nil)

	t.Run("valid", func(t *testing.T) {
		reg, err := NewRegistry("a", a, b)
		require.NoError(t, err)
		assert.Equal(t, NodeID("a"), reg.Entry())

		resolved, ok := reg.Resolve("b")
		assert.True(t, ok)
		assert.Equal(t, NodeID("b"), resolved.ID())
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := NewRegistry("a", a, node("a", nil))
		assert.ErrorContains(t, err, "duplicate node id")
	})

	t.Run("missing entry", func(t *testing.T) {
		_, err := NewRegistry("missing", a)
		assert.ErrorContains(t, err, "not registered")
	})
}

func TestLoopRoutesAndCountsSteps(t *testing.T) {
	// a -> b -> terminal; deltas applied in order before the step advances.
	var visited []NodeID
	a := node("a", func(_ context.Context, _ *state.TaskState) (Transition, error) {
		visited = append(visited, "a")
		return Continue("b", func(st *state.TaskState) { st.StrategyChanges = 7 }), nil
	})
	b := node("b", func(_ context.Context, st *state.TaskState) (Transition, error) {
		visited = append(visited, "b")
		assert.Equal(t, 7, st.StrategyChanges, "delta from previous transition should be applied")
		return Terminal(Outcome{Status: StatusCompleted, Summary: "done"}), nil
	})

	reg, err := NewRegistry("a", a, b)
	require.NoError(t, err)

	st := state.New("task", "")
	result, err := NewLoop(reg, 10, nil, nil).Run(context.Background(), st)
	require.NoError(t, err)

	assert.Equal(t, []NodeID{"a", "b"}, visited)
	assert.Equal(t, StatusCompleted, result.Outcome.Status)
	assert.Nil(t, result.Suspended)
	assert.Equal(t, 2, st.Step)
}

func TestLoopStepCeiling(t *testing.T) {
	spin := node("spin", func(_ context.Context, _ *state.TaskState) (Transition, error) {
		return Continue("spin"), nil
	})
	reg, err := NewRegistry("spin", spin)
	require.NoError(t, err)

	st := state.New("task", "")
	result, err := NewLoop(reg, 5, nil, nil).Run(context.Background(), st)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, result.Outcome.Status)
	assert.Equal(t, ReasonStepLimit, result.Outcome.Reason)
	assert.Equal(t, 5, st.Step)
}

func TestLoopSuspension(t *testing.T) {
	ask := node("ask", func(_ context.Context, st *state.TaskState) (Transition, error) {
		if st.PendingReply != "" {
			return Terminal(Outcome{Status: StatusCompleted, Summary: st.PendingReply}), nil
		}
		return Suspend(&Suspension{Question: "proceed?", Resume: "ask"}), nil
	})
	reg, err := NewRegistry("ask", ask)
	require.NoError(t, err)

	loop := NewLoop(reg, 10, nil, nil)
	st := state.New("task", "")

	result, err := loop.Run(context.Background(), st)
	require.NoError(t, err)
	require.NotNil(t, result.Suspended)
	assert.Equal(t, NodeID("ask"), result.Suspended.Resume)
	assert.Equal(t, "proceed?", result.Suspended.Suspension.Question)
	// Suspended iterations do not consume a step.
	assert.Equal(t, 0, st.Step)

	st.PendingReply = "yes"
	resumed, err := loop.Resume(context.Background(), st, result.Suspended.Resume)
	require.NoError(t, err)
	require.Nil(t, resumed.Suspended)
	assert.Equal(t, StatusCompleted, resumed.Outcome.Status)
	assert.Equal(t, "yes", resumed.Outcome.Summary)
	assert.Equal(t, 1, st.Step)
}

func TestLoopSuspendUnknownResumeNode(t *testing.T) {
	ask := node("ask", func(_ context.Context, _ *state.TaskState) (Transition, error) {
		return Suspend(&Suspension{Question: "?", Resume: "nowhere"}), nil
	})
	reg, err := NewRegistry("ask", ask)
	require.NoError(t, err)

	_, err = NewLoop(reg, 10, nil, nil).Run(context.Background(), state.New("task", ""))
	assert.ErrorContains(t, err, "unknown resume node")
}

func TestLoopUnknownTarget(t *testing.T) {
	a := node("a", func(_ context.Context, _ *state.TaskState) (Transition, error) {
		return Continue("ghost"), nil
	})
	reg, err := NewRegistry("a", a)
	require.NoError(t, err)

	_, err = NewLoop(reg, 10, nil, nil).Run(context.Background(), state.New("task", ""))
	assert.ErrorContains(t, err, `unknown node "ghost"`)
}

func TestLoopNodeError(t *testing.T) {
	boom := node("boom", func(_ context.Context, _ *state.TaskState) (Transition, error) {
		return Transition{}, errors.New("provider unavailable")
	})
	reg, err := NewRegistry("boom", boom)
	require.NoError(t, err)

	_, err = NewLoop(reg, 10, nil, nil).Run(context.Background(), state.New("task", ""))
	assert.ErrorContains(t, err, "node boom: provider unavailable")
}

func TestLoopCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	step := node("step", func(_ context.Context, _ *state.TaskState) (Transition, error) {
		cancel()
		return Continue("step", func(st *state.TaskState) {
			st.PendingBatch = []tools.Action{{ID: "a1", Name: "submit_form"}}
		}), nil
	})
	reg, err := NewRegistry("step", step)
	require.NoError(t, err)

	st := state.New("task", "")
	result, err := NewLoop(reg, 10, nil, nil).Run(ctx, st)
	require.NoError(t, err)

	assert.Equal(t, StatusCanceled, result.Outcome.Status)
	// The undelivered batch leaves an abort record and is cleared.
	assert.Empty(t, st.PendingBatch)
	last := st.History[len(st.History)-1]
	require.Equal(t, types.RoleTool, last.Role)
	require.NotNil(t, last.Result)
	assert.Equal(t, "a1", last.Result.ActionID)
	assert.Contains(t, last.Result.Error, "aborted before execution")
}

func TestLoopEmitsEvents(t *testing.T) {
	done := node("done", func(_ context.Context, _ *state.TaskState) (Transition, error) {
		return Terminal(Outcome{Status: StatusCompleted}), nil
	})
	reg, err := NewRegistry("done", done)
	require.NoError(t, err)

	var events []*types.AgentEvent
	collect := func(ev *types.AgentEvent) { events = append(events, ev) }

	_, err = NewLoop(reg, 10, nil, collect).Run(context.Background(), state.New("task", ""))
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, types.EventTypeNodeEnter, events[0].Type)
	assert.Equal(t, "done", events[0].Node)
	assert.Equal(t, types.EventTypeTerminal, events[1].Type)
}
