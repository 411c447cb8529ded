// Package tools defines the contract between the control loop and the
// tool-execution collaborator. The loop never talks to a browser (or any
// other backend) directly: it dispatches Actions to an Executor and receives
// Results whose failures are plain text, classified downstream.
package tools

import "context"

// Action is a single requested operation: a name plus free-form arguments.
type Action struct {
	// ID correlates the action with its result across a batch.
	ID string `json:"id"`

	// Name is the operation identifier (e.g. "navigate", "click").
	Name string `json:"name"`

	// Args holds the operation arguments as decoded by the provider.
	Args map[string]any `json:"args,omitempty"`
}

// ActionSpec describes one available action for the reasoning collaborator.
// Parameters is a JSON-schema object in the shape LLM tool-calling expects.
type ActionSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Result is the outcome of one executed action. Backends that know the
// failure category set Kind directly; when Kind is empty the classifier
// pattern-matches over the Error text instead.
type Result struct {
	ActionID string
	Name     string
	Output   string
	Error    string

	// Kind is the structured failure category, using the classifier's
	// vocabulary. Optional: browser drivers mostly return unstructured
	// failure text and leave it empty.
	Kind string
}

// Failed reports whether the result carries an error.
func (r Result) Failed() bool {
	return r.Error != ""
}

// Text returns the content the classifier should inspect.
func (r Result) Text() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Output
}

// Executor runs actions against the live environment. Implementations must be
// safe for concurrent Execute calls: the loop dispatches independent actions
// of a batch in parallel.
type Executor interface {
	// Execute performs one action. Failures are reported inside the Result,
	// not as an error return; the error text is the classifier's input.
	Execute(ctx context.Context, action Action) Result

	// Describe lists the action surface advertised to the reasoning
	// collaborator.
	Describe() []ActionSpec
}

// ObjectSchema builds a JSON-schema object for an ActionSpec's Parameters.
func ObjectSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
