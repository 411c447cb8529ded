package approval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/webpilot/pkg/tools"
)

type pendingRequest struct {
	request  Request
	response chan Decision
}

// Manager is a channel-based Responder for embedding applications: Ask
// parks the request in a pending table, and the application resolves it from
// its own event loop with Respond. An unanswered request is rejected when
// the timeout elapses.
type Manager struct {
	mu      sync.Mutex
	pending map[string]*pendingRequest
	timeout time.Duration
}

// NewManager creates a manager. A non-positive timeout falls back to
// DefaultTimeout.
func NewManager(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{
		pending: make(map[string]*pendingRequest),
		timeout: timeout,
	}
}

// Ask registers the request and blocks for a verdict.
func (m *Manager) Ask(ctx context.Context, question string, batch []tools.Action) (Decision, error) {
	req := &pendingRequest{
		request: Request{
			ID:        uuid.New().String(),
			Question:  question,
			Batch:     batch,
			CreatedAt: time.Now(),
		},
		// Buffered so a Respond racing with cleanup never blocks.
		response: make(chan Decision, 1),
	}

	m.mu.Lock()
	m.pending[req.request.ID] = req
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.pending, req.request.ID)
		m.mu.Unlock()
	}()

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case decision := <-req.response:
		return decision, nil
	case <-timer.C:
		return Reject("approval timed out"), nil
	case <-ctx.Done():
		return Decision{}, ctx.Err()
	}
}

// Respond resolves a pending request by id.
func (m *Manager) Respond(id string, approved bool, note string) error {
	m.mu.Lock()
	req, ok := m.pending[id]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("no pending approval with id %s", id)
	}

	select {
	case req.response <- Decision{Approved: approved, Note: note}:
		return nil
	default:
		return fmt.Errorf("approval %s already resolved", id)
	}
}

// Pending lists unresolved requests, for display.
func (m *Manager) Pending() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Request, 0, len(m.pending))
	for _, req := range m.pending {
		out = append(out, req.request)
	}
	return out
}
