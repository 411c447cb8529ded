package nodes

import (
	"context"

	"github.com/entrhq/webpilot/pkg/agent/graph"
	"github.com/entrhq/webpilot/pkg/agent/state"
	"github.com/entrhq/webpilot/pkg/tools"
	"github.com/entrhq/webpilot/pkg/types"
)

// reasoningNode runs one model inference over the conversation and decides
// what the batch routing should be. It is the loop's entry point and the
// node every recovery path eventually returns to.
type reasoningNode struct {
	deps *Deps
}

func (n *reasoningNode) ID() graph.NodeID { return NodeReasoning }

func (n *reasoningNode) Run(ctx context.Context, st *state.TaskState) (graph.Transition, error) {
	// Memory pressure is handled before inference so the model never sees a
	// conversation over budget.
	if n.deps.Compactor != nil && n.deps.Compactor.ShouldCompact(st.History) {
		return graph.Continue(NodeMemory), nil
	}

	decision, err := n.deps.Provider.Infer(ctx, n.promptTier(st), n.deps.Executor.Describe())
	if err != nil {
		return graph.Transition{}, err
	}

	assistant := types.NewAssistantMessage(decision.Content)
	if len(decision.Actions) > 0 {
		requests := make([]types.ActionRequest, 0, len(decision.Actions))
		for _, action := range decision.Actions {
			requests = append(requests, types.ActionRequest{
				ID:   action.ID,
				Name: action.Name,
				Args: action.Args,
			})
		}
		assistant.WithActions(requests)
	}

	if decision.Done {
		n.deps.Logger.Infof("model claims completion at step %d", st.Step)
		return graph.Continue(NodeQuality, func(st *state.TaskState) {
			st.Append(assistant)
		}), nil
	}

	batch := decision.Actions
	needsValidation, critical := n.deps.Policy.Screen(batch)
	parallel := decision.Parallel

	next := NodeExecute
	if needsValidation {
		next = NodeValidate
	}
	return graph.Continue(next, func(st *state.TaskState) {
		st.Append(assistant)
		st.PendingBatch = append([]tools.Action(nil), batch...)
		st.Parallel = parallel
		st.NeedsValidation = needsValidation
		st.RequiresApproval = critical
	}), nil
}

// promptTier selects the guidance variant for this inference: the full
// system prompt early on, the minimal one past the step limit. The history
// itself is never mutated; later compactions still see the original head.
func (n *reasoningNode) promptTier(st *state.TaskState) []*types.Message {
	limit := n.deps.Loop.GuidanceStepLimit
	if limit <= 0 || st.Step <= limit {
		return st.History
	}
	if len(st.History) == 0 || st.History[0].Role != types.RoleSystem {
		return st.History
	}
	tiered := make([]*types.Message, len(st.History))
	copy(tiered, st.History)
	tiered[0] = types.NewSystemMessage(minimalGuidance)
	return tiered
}
