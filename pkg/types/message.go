// Package types defines the shared data records exchanged between the control
// loop, the LLM provider, and the tool executor: conversation messages, action
// requests and results, and observability events.
package types

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"    // RoleSystem is guidance injected by the agent itself.
	RoleUser      Role = "user"      // RoleUser is the human (task text, confirmations, feedback).
	RoleAssistant Role = "assistant" // RoleAssistant is reasoning output from the LLM.
	RoleTool      Role = "tool"      // RoleTool is a tool-execution result record.
)

// ActionRequest is a structured action the assistant asked to perform.
// ID correlates the request with its eventual ActionResult.
type ActionRequest struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// ActionResult is the outcome of one executed action. Failures are carried as
// text in Error, never as a Go error; the classifier pattern-matches on it.
type ActionResult struct {
	ActionID string `json:"action_id"`
	Name     string `json:"name"`
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Failed reports whether this result carries an error.
func (r *ActionResult) Failed() bool {
	return r.Error != ""
}

// Text returns the content the error classifier should inspect: the error
// text when present, the output otherwise.
func (r *ActionResult) Text() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Output
}

// Message is a single record in the task history. History is append-only;
// the compactor is the only component allowed to replace a prefix of it.
type Message struct {
	// Role indicates who authored this message.
	Role Role `json:"role"`

	// Content is the textual body of the message.
	Content string `json:"content"`

	// Actions holds structured action requests (assistant messages only).
	Actions []ActionRequest `json:"actions,omitempty"`

	// Result holds a structured action result (tool messages only).
	Result *ActionResult `json:"result,omitempty"`

	// Metadata holds optional annotations (e.g. "summarized": true).
	Metadata map[string]any `json:"metadata,omitempty"`

	// Timestamp records when the message was appended.
	Timestamp time.Time `json:"timestamp"`
}

// NewSystemMessage creates a system-role message.
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content, Timestamp: time.Now()}
}

// NewUserMessage creates a user-role message.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content, Timestamp: time.Now()}
}

// NewAssistantMessage creates an assistant-role message.
func NewAssistantMessage(content string) *Message {
	return &Message{Role: RoleAssistant, Content: content, Timestamp: time.Now()}
}

// NewToolMessage creates a tool-role message wrapping an action result.
func NewToolMessage(result ActionResult) *Message {
	return &Message{
		Role:      RoleTool,
		Content:   result.Text(),
		Result:    &result,
		Timestamp: time.Now(),
	}
}

// WithActions attaches action requests and returns the message for chaining.
func (m *Message) WithActions(actions []ActionRequest) *Message {
	m.Actions = actions
	return m
}

// WithMetadata sets a metadata key and returns the message for chaining.
func (m *Message) WithMetadata(key string, value any) *Message {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
	return m
}

// IsSummary reports whether this message is a compaction summary.
func (m *Message) IsSummary() bool {
	if m.Metadata == nil {
		return false
	}
	summarized, ok := m.Metadata["summarized"].(bool)
	return ok && summarized
}
