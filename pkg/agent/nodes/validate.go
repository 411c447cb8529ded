package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/webpilot/pkg/agent/graph"
	"github.com/entrhq/webpilot/pkg/agent/state"
	"github.com/entrhq/webpilot/pkg/tools"
	"github.com/entrhq/webpilot/pkg/types"
)

// validateNode checks a flagged batch before execution: every action must be
// a declared tool with its required arguments present, and a batch touching
// the critical set is routed to human confirmation instead of straight to
// execution.
type validateNode struct {
	deps *Deps
}

func (n *validateNode) ID() graph.NodeID { return NodeValidate }

func (n *validateNode) Run(_ context.Context, st *state.TaskState) (graph.Transition, error) {
	specs := specIndex(n.deps.Executor.Describe())

	var problems []string
	for _, action := range st.PendingBatch {
		spec, ok := specs[action.Name]
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: unknown action", action.Name))
			continue
		}
		for _, missing := range missingRequired(spec, action) {
			problems = append(problems, fmt.Sprintf("%s: missing required argument %q", action.Name, missing))
		}
	}

	if len(problems) > 0 {
		n.deps.Logger.Warnf("batch rejected by validation: %s", strings.Join(problems, "; "))
		summary := strings.Join(problems, "; ")
		rejection := types.NewUserMessage(
			"The planned actions were rejected before execution:\n- " +
				strings.Join(problems, "\n- ") +
				"\nPlan again with valid actions and complete arguments.")
		return graph.Continue(NodeReasoning, func(st *state.TaskState) {
			// Every requested action gets a rejection record so the
			// conversation never carries an unanswered action request.
			for _, action := range st.PendingBatch {
				st.Append(types.NewToolMessage(types.ActionResult{
					ActionID: action.ID,
					Name:     action.Name,
					Error:    "not executed, batch rejected by validation: " + summary,
				}))
			}
			st.ClearBatch()
			st.Append(rejection)
		}), nil
	}

	if st.RequiresApproval {
		return graph.Continue(NodeConfirm), nil
	}
	return graph.Continue(NodeExecute, func(st *state.TaskState) {
		st.NeedsValidation = false
	}), nil
}

func specIndex(specs []tools.ActionSpec) map[string]tools.ActionSpec {
	index := make(map[string]tools.ActionSpec, len(specs))
	for _, spec := range specs {
		index[spec.Name] = spec
	}
	return index
}

// missingRequired returns the required parameter names absent from the
// action's arguments, per the action schema's "required" list.
func missingRequired(spec tools.ActionSpec, action tools.Action) []string {
	required, ok := spec.Parameters["required"].([]string)
	if !ok {
		// Schemas decoded from JSON carry []any.
		anyList, ok := spec.Parameters["required"].([]any)
		if !ok {
			return nil
		}
		for _, item := range anyList {
			if name, ok := item.(string); ok {
				required = append(required, name)
			}
		}
	}

	var missing []string
	for _, name := range required {
		if _, present := action.Args[name]; !present {
			missing = append(missing, name)
		}
	}
	return missing
}
