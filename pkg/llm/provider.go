// Package llm defines the reasoning-collaborator contract.
//
// Providers are replayable: the control loop depends only on this interface,
// so tests drive the full routing machinery with scripted stub providers.
package llm

import (
	"context"

	"github.com/entrhq/webpilot/pkg/tools"
	"github.com/entrhq/webpilot/pkg/types"
)

// Decision is the classified output of one reasoning call: either a set of
// requested actions or a completion signal (Done with no actions).
type Decision struct {
	// Content is the assistant's textual reasoning, possibly empty when the
	// model only requests actions.
	Content string

	// Actions are the requested operations for this step, in request order.
	Actions []tools.Action

	// Parallel is the static independence hint for the batch: when true the
	// actions may be dispatched concurrently. It is set by the provider, not
	// inferred by the loop.
	Parallel bool

	// Done signals the model considers the task complete.
	Done bool
}

// Provider is the reasoning collaborator.
type Provider interface {
	// Infer sends the conversation and the available action surface to the
	// model and returns its classified decision.
	Infer(ctx context.Context, history []*types.Message, specs []tools.ActionSpec) (*Decision, error)

	// Complete runs a plain, single-prompt completion. Used for auxiliary
	// generation such as history summaries.
	Complete(ctx context.Context, prompt string) (string, error)
}
