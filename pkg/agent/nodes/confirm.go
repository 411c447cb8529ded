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

// Reply values the runner places on the state when resuming a suspended
// confirmation. Anything that is not an approval is a rejection; text after
// the rejection prefix is operator guidance fed back to the model.
const (
	ReplyApprove      = "approve"
	ReplyRejectPrefix = "reject"
)

// confirmNode gates critical batches behind a human verdict. With no reply
// on the state it suspends; with one it consumes the reply and either
// releases the batch to execution or records the rejection.
type confirmNode struct {
	deps *Deps
}

func (n *confirmNode) ID() graph.NodeID { return NodeConfirm }

func (n *confirmNode) Run(_ context.Context, st *state.TaskState) (graph.Transition, error) {
	if st.PendingReply == "" {
		critical := n.deps.Policy.CriticalIn(st.PendingBatch)
		question := confirmQuestion(critical)
		n.deps.emit(&types.AgentEvent{
			Type:    types.EventTypeApprovalRequest,
			Node:    string(NodeConfirm),
			Step:    st.Step,
			Content: question,
		})
		return graph.Suspend(&graph.Suspension{
			Question: question,
			Options:  []string{ReplyApprove, ReplyRejectPrefix},
			Batch:    st.PendingBatch,
			Resume:   NodeConfirm,
		}), nil
	}

	reply := strings.TrimSpace(st.PendingReply)

	if strings.EqualFold(reply, ReplyApprove) {
		n.deps.Logger.Infof("critical batch approved by operator")
		return graph.Continue(NodeExecute, func(st *state.TaskState) {
			st.PendingReply = ""
			st.RequiresApproval = false
			st.NeedsValidation = false
		}), nil
	}

	note := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(reply, ReplyRejectPrefix), ":"))
	n.deps.Logger.Infof("critical batch rejected by operator: %s", note)

	feedback := "The operator rejected the planned actions."
	if note != "" {
		feedback += " Guidance: " + note
	}
	feedback += " Do not retry them as planned; choose a different approach or report why the task cannot proceed."
	rejection := types.NewUserMessage(feedback)

	return graph.Continue(NodeReasoning, func(st *state.TaskState) {
		for _, action := range st.PendingBatch {
			st.Append(types.NewToolMessage(types.ActionResult{
				ActionID: action.ID,
				Name:     action.Name,
				Error:    "not executed, rejected by operator",
			}))
		}
		st.ClearBatch()
		st.PendingReply = ""
		st.Append(rejection)
	}), nil
}

func confirmQuestion(critical []tools.Action) string {
	var b strings.Builder
	b.WriteString("The agent wants to execute actions that cannot be undone:\n")
	for _, action := range critical {
		fmt.Fprintf(&b, "  %s %v\n", action.Name, action.Args)
	}
	b.WriteString("Approve execution?")
	return b.String()
}
