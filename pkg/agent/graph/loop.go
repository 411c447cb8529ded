package graph

import (
	"context"
	"fmt"

	"github.com/entrhq/webpilot/pkg/agent/state"
	"github.com/entrhq/webpilot/pkg/logging"
	"github.com/entrhq/webpilot/pkg/types"
)

// ReasonStepLimit is the failure reason reported when the step ceiling is
// reached before the task completes.
const ReasonStepLimit = "step_limit_exceeded"

// EventFunc receives loop events as they happen. Implementations must not
// block; the loop calls them inline.
type EventFunc func(*types.AgentEvent)

// Result is what a run produces: either a terminal outcome or a suspension
// carrying everything needed to resume.
type Result struct {
	Outcome   Outcome
	Suspended *SuspensionRecord
	State     *state.TaskState
}

// SuspensionRecord is the serializable continuation of a suspended run.
// Persisting it and later calling Loop.Resume with the recorded state and
// node continues the run as if it never stopped.
type SuspensionRecord struct {
	State      *state.TaskState `json:"state"`
	Resume     NodeID           `json:"resume"`
	Suspension *Suspension      `json:"suspension"`
}

// Loop drives the node registry until a terminal or suspend transition.
type Loop struct {
	registry *Registry
	maxSteps int
	logger   *logging.Logger
	onEvent  EventFunc
}

// NewLoop creates a loop over the registry. maxSteps bounds the number of
// node dispatches; zero or negative means unbounded.
func NewLoop(registry *Registry, maxSteps int, logger *logging.Logger, onEvent EventFunc) *Loop {
	return &Loop{
		registry: registry,
		maxSteps: maxSteps,
		logger:   logger,
		onEvent:  onEvent,
	}
}

// Run drives the loop from the registry entry point.
func (l *Loop) Run(ctx context.Context, st *state.TaskState) (*Result, error) {
	return l.run(ctx, st, l.registry.Entry())
}

// Resume continues a suspended run at the recorded node. The caller is
// expected to have placed the operator's answer on the state beforehand.
func (l *Loop) Resume(ctx context.Context, st *state.TaskState, at NodeID) (*Result, error) {
	return l.run(ctx, st, at)
}

func (l *Loop) run(ctx context.Context, st *state.TaskState, current NodeID) (*Result, error) {
	for {
		if err := ctx.Err(); err != nil {
			return l.cancel(st, err), nil
		}
		if l.maxSteps > 0 && st.Step >= l.maxSteps {
			outcome := Outcome{
				Status:  StatusFailed,
				Reason:  ReasonStepLimit,
				Summary: fmt.Sprintf("stopped after %d steps without completing the task", st.Step),
			}
			l.emit(types.NewTerminalEvent(st.Step, outcome.Summary))
			l.logger.Warnf("step ceiling reached at %d, terminating", st.Step)
			return &Result{Outcome: outcome, State: st}, nil
		}

		node, ok := l.registry.Resolve(current)
		if !ok {
			return nil, fmt.Errorf("transition targets unknown node %q", current)
		}

		l.emit(types.NewNodeEnterEvent(string(current), st.Step))
		l.logger.Debugf("step %d: dispatching node %s", st.Step, current)

		transition, err := node.Run(ctx, st)
		if err != nil {
			if ctx.Err() != nil {
				return l.cancel(st, ctx.Err()), nil
			}
			l.logger.Errorf("node %s failed: %v", current, err)
			l.emit(types.NewErrorEvent(err))
			return nil, fmt.Errorf("node %s: %w", current, err)
		}

		transition.Apply(st)

		switch {
		case transition.IsSuspend():
			susp := transition.Suspension()
			if _, ok := l.registry.Resolve(susp.Resume); !ok {
				return nil, fmt.Errorf("suspension from %s targets unknown resume node %q", current, susp.Resume)
			}
			l.logger.Infof("suspending at step %d, resume at %s", st.Step, susp.Resume)
			return &Result{
				Suspended: &SuspensionRecord{State: st, Resume: susp.Resume, Suspension: susp},
				State:     st,
			}, nil

		case transition.IsTerminal():
			st.Step++
			outcome := transition.Outcome()
			l.logger.Infof("terminal at step %d: %s (%s)", st.Step, outcome.Status, outcome.Reason)
			l.emit(types.NewTerminalEvent(st.Step, outcome.Summary))
			return &Result{Outcome: outcome, State: st}, nil

		default:
			st.Step++
			current = transition.Next()
		}
	}
}

// cancel produces the canceled outcome. An undelivered batch is noted on the
// history so a later resume or audit sees that those actions never ran.
func (l *Loop) cancel(st *state.TaskState, cause error) *Result {
	if len(st.PendingBatch) > 0 {
		for _, action := range st.PendingBatch {
			st.Append(types.NewToolMessage(types.ActionResult{
				ActionID: action.ID,
				Name:     action.Name,
				Error:    "aborted before execution: run canceled",
			}))
		}
		st.ClearBatch()
	}
	l.logger.Infof("run canceled at step %d: %v", st.Step, cause)
	outcome := Outcome{
		Status:  StatusCanceled,
		Reason:  cause.Error(),
		Summary: fmt.Sprintf("canceled at step %d", st.Step),
	}
	l.emit(types.NewTerminalEvent(st.Step, outcome.Summary))
	return &Result{Outcome: outcome, State: st}
}

func (l *Loop) emit(event *types.AgentEvent) {
	if l.onEvent != nil {
		l.onEvent(event)
	}
}
