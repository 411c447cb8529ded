package types

// AgentEventType defines the type of event emitted by the agent.
type AgentEventType string

const (
	EventTypeNodeEnter       AgentEventType = "node_enter"       // EventTypeNodeEnter indicates the loop is about to run a node.
	EventTypeActionStart     AgentEventType = "action_start"     // EventTypeActionStart indicates a tool action is being dispatched.
	EventTypeActionResult    AgentEventType = "action_result"    // EventTypeActionResult indicates a tool action completed.
	EventTypeProgressReport  AgentEventType = "progress_report"  // EventTypeProgressReport carries a progress snapshot for observers.
	EventTypeApprovalRequest AgentEventType = "approval_request" // EventTypeApprovalRequest indicates the loop is suspended on human input.
	EventTypeCompaction      AgentEventType = "compaction"       // EventTypeCompaction indicates history was compacted.
	EventTypeTerminal        AgentEventType = "terminal"         // EventTypeTerminal indicates the run reached a terminal outcome.
	EventTypeError           AgentEventType = "error"            // EventTypeError indicates an internal error worth surfacing.
)

// AgentEvent is an observability record. Events are fire-and-forget: emitters
// must never block the control loop on a slow or absent consumer.
type AgentEvent struct {
	// Type indicates the kind of event.
	Type AgentEventType

	// Node is the node id involved, when applicable.
	Node string

	// Step is the loop step at emission time.
	Step int

	// Content holds free-form text (action name, reason, report line).
	Content string

	// Progress is the last computed progress score, for progress reports.
	Progress float64

	// Err carries error details for error events.
	Err error

	// Metadata holds optional additional fields.
	Metadata map[string]any
}

// NewNodeEnterEvent records that the loop dispatched to a node.
func NewNodeEnterEvent(node string, step int) *AgentEvent {
	return &AgentEvent{Type: EventTypeNodeEnter, Node: node, Step: step}
}

// NewProgressReportEvent carries a progress snapshot.
func NewProgressReportEvent(step int, lastAction string, progress float64) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeProgressReport,
		Step:     step,
		Content:  lastAction,
		Progress: progress,
	}
}

// NewTerminalEvent records the run's terminal outcome.
func NewTerminalEvent(step int, reason string) *AgentEvent {
	return &AgentEvent{Type: EventTypeTerminal, Step: step, Content: reason}
}

// NewErrorEvent wraps an internal error.
func NewErrorEvent(err error) *AgentEvent {
	return &AgentEvent{Type: EventTypeError, Err: err}
}
