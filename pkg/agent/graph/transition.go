// Package graph implements the explicitly-routed control loop: nodes are
// dispatched one at a time from an immutable registry, and every node hands
// control back with a Transition naming what happens next. The full route is
// reconstructable from the transition log alone.
package graph

import (
	"github.com/entrhq/webpilot/pkg/agent/state"
	"github.com/entrhq/webpilot/pkg/tools"
)

// NodeID names a node in the registry.
type NodeID string

// Delta is a deferred state mutation. Nodes return deltas instead of
// mutating state directly; the loop applies them in order between
// dispatches.
type Delta func(*state.TaskState)

// Status is the terminal disposition of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Outcome is the payload of a terminal transition.
type Outcome struct {
	Status  Status `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// Suspension is the payload of a suspend transition: the question to put to
// the operator, the replies the resuming node understands, the batch
// awaiting the verdict, and the node that resumes once an answer arrives.
type Suspension struct {
	Question string         `json:"question"`
	Options  []string       `json:"options,omitempty"`
	Batch    []tools.Action `json:"batch,omitempty"`
	Resume   NodeID         `json:"resume"`
}

type transitionKind int

const (
	kindContinue transitionKind = iota
	kindSuspend
	kindTerminal
)

// Transition is a node's routing verdict. Exactly one of the three
// constructors produces it.
type Transition struct {
	kind       transitionKind
	next       NodeID
	suspension *Suspension
	outcome    Outcome
	deltas     []Delta
}

// Continue routes to the named node after applying the deltas.
func Continue(next NodeID, deltas ...Delta) Transition {
	return Transition{kind: kindContinue, next: next, deltas: deltas}
}

// Suspend applies the deltas, then halts the loop with a serializable
// continuation. The run resumes at susp.Resume once an answer is recorded.
func Suspend(susp *Suspension, deltas ...Delta) Transition {
	return Transition{kind: kindSuspend, suspension: susp, deltas: deltas}
}

// Terminal applies the deltas and ends the run with the outcome.
func Terminal(outcome Outcome, deltas ...Delta) Transition {
	return Transition{kind: kindTerminal, outcome: outcome, deltas: deltas}
}

// IsSuspend reports whether the transition halts for external input.
func (t Transition) IsSuspend() bool { return t.kind == kindSuspend }

// IsTerminal reports whether the transition ends the run.
func (t Transition) IsTerminal() bool { return t.kind == kindTerminal }

// Next returns the continue target, empty unless IsSuspend and IsTerminal
// are both false.
func (t Transition) Next() NodeID { return t.next }

// Suspension returns the suspend payload, nil unless IsSuspend.
func (t Transition) Suspension() *Suspension { return t.suspension }

// Outcome returns the terminal payload, zero unless IsTerminal.
func (t Transition) Outcome() Outcome { return t.outcome }

// Apply runs the transition's deltas against the state, in order. The loop
// calls this once per dispatch.
func (t Transition) Apply(st *state.TaskState) {
	for _, delta := range t.deltas {
		delta(st)
	}
}
