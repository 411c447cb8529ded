// Package approval collects human verdicts on critical action batches. The
// loop suspends with a question; a Responder turns that question into an
// approve/reject decision, either interactively or through a programmatic
// manager that an embedding application answers from its own UI.
package approval

import (
	"context"
	"time"

	"github.com/entrhq/webpilot/pkg/tools"
)

// DefaultTimeout bounds how long a verdict is awaited before the request is
// treated as rejected.
const DefaultTimeout = 5 * time.Minute

// Decision is a human verdict on a pending batch.
type Decision struct {
	Approved bool
	Note     string
}

// Request is a pending approval visible to embedding applications.
type Request struct {
	ID        string
	Question  string
	Batch     []tools.Action
	CreatedAt time.Time
}

// Responder obtains a verdict for a suspended batch. Ask blocks until a
// decision is available, the timeout elapses, or ctx is canceled.
type Responder interface {
	Ask(ctx context.Context, question string, batch []tools.Action) (Decision, error)
}

// Reject is the decision recorded when no human answers in time. A silent
// operator never approves a critical action.
func Reject(note string) Decision {
	return Decision{Approved: false, Note: note}
}
