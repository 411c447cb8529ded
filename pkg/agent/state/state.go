// Package state holds the task-state aggregate threaded through the control
// loop. Nodes never mutate it directly; they return deltas that the loop
// applies between dispatches, which keeps every state change attributable to
// exactly one transition.
package state

import (
	"time"

	"github.com/entrhq/webpilot/pkg/agent/classify"
	"github.com/entrhq/webpilot/pkg/tools"
	"github.com/entrhq/webpilot/pkg/types"
)

// SummaryContext records the most recent history compaction: everything
// before Boundary has been folded into Summary.
type SummaryContext struct {
	Boundary int    `json:"boundary"`
	Summary  string `json:"summary"`
}

// TaskState is the aggregate a task run accumulates. It is fully
// serializable so a suspended run can round-trip through storage.
type TaskState struct {
	// Task is the original user objective, kept verbatim for goal
	// validation even as the conversation gets compacted.
	Task string `json:"task"`

	// History is the conversation: system prompt, user task, assistant
	// decisions, and action results in order.
	History []*types.Message `json:"history"`

	// Step counts completed loop iterations. Suspended iterations do not
	// count until they resume and finish.
	Step int `json:"step"`

	// PendingBatch holds actions decided but not yet executed. It survives
	// the validator and approval hops so execution sees the original batch.
	PendingBatch []tools.Action `json:"pending_batch,omitempty"`

	// Parallel carries the decision's independent-batch hint to execution.
	Parallel bool `json:"parallel,omitempty"`

	// NeedsValidation flags a batch containing policy-matched candidates
	// for the validator hop.
	NeedsValidation bool `json:"needs_validation,omitempty"`

	// RequiresApproval flags a batch containing a critical action; the
	// loop suspends for a human verdict before execution.
	RequiresApproval bool `json:"requires_approval,omitempty"`

	// PendingReply carries the human's answer into the resumed iteration.
	// Consumed (cleared) by the node that resumes.
	PendingReply string `json:"pending_reply,omitempty"`

	// ProgressScore is the most recent progress estimate in [0, 1].
	ProgressScore float64 `json:"progress_score"`

	// QualityScore is the most recent output-quality estimate in [0, 1].
	QualityScore float64 `json:"quality_score"`

	// ErrorCount is the total number of failed actions across the run.
	ErrorCount int `json:"error_count"`

	// ConsecutiveFailures counts back-to-back iterations whose batch had
	// at least one failure. Reset on any clean batch; stale-reference
	// batches leave it unchanged.
	ConsecutiveFailures int `json:"consecutive_failures"`

	// LastErrorKind is the classified category of the most recent failure.
	LastErrorKind classify.Kind `json:"last_error_kind"`

	// StuckCounter counts consecutive low-progress analyses.
	StuckCounter int `json:"stuck_counter"`

	// StrategyChanges counts adaptations injected by the strategy node.
	StrategyChanges int `json:"strategy_changes"`

	// GoalAchieved is set once goal validation accepts the outcome.
	GoalAchieved bool `json:"goal_achieved"`

	// GoalRejections counts completion claims that goal validation sent
	// back for more work.
	GoalRejections int `json:"goal_rejections"`

	// QualityRetries counts answers sent back for improvement by the
	// quality gate.
	QualityRetries int `json:"quality_retries"`

	// LastSummary records the most recent compaction, if any.
	LastSummary *SummaryContext `json:"last_summary,omitempty"`

	// Compactions counts history compactions across the run.
	Compactions int `json:"compactions"`

	// StartedAt is when the run began, for elapsed-time reporting.
	StartedAt time.Time `json:"started_at"`
}

// New creates a task state seeded with the system prompt and the user task.
func New(task, systemPrompt string) *TaskState {
	st := &TaskState{
		Task:          task,
		LastErrorKind: classify.KindNone,
		StartedAt:     time.Now(),
	}
	if systemPrompt != "" {
		st.Append(types.NewSystemMessage(systemPrompt))
	}
	st.Append(types.NewUserMessage(task))
	return st
}

// Append adds a message to the history.
func (st *TaskState) Append(msg *types.Message) {
	st.History = append(st.History, msg)
}

// LastAssistant returns the most recent assistant message, or nil.
func (st *TaskState) LastAssistant() *types.Message {
	for i := len(st.History) - 1; i >= 0; i-- {
		if st.History[i].Role == types.RoleAssistant {
			return st.History[i]
		}
	}
	return nil
}

// ActionStats tallies executed actions from the history.
func (st *TaskState) ActionStats() (total, failed int) {
	for _, msg := range st.History {
		if msg.Role == types.RoleTool && msg.Result != nil {
			total++
			if msg.Result.Failed() {
				failed++
			}
		}
	}
	return total, failed
}

// SuccessRate is the fraction of executed actions that succeeded.
// A run with no actions yet reports zero.
func (st *TaskState) SuccessRate() float64 {
	total, failed := st.ActionStats()
	if total == 0 {
		return 0
	}
	return float64(total-failed) / float64(total)
}

// RecordResults folds a batch of execution results into the counters and
// appends the result messages to the history.
func (st *TaskState) RecordResults(results []tools.Result) {
	for _, res := range results {
		st.Append(types.NewToolMessage(types.ActionResult{
			ActionID: res.ActionID,
			Name:     res.Name,
			Output:   res.Output,
			Error:    res.Error,
		}))
		if res.Failed() {
			st.ErrorCount++
		}
	}
	batchKind := classify.ResolveBatch(results)
	st.LastErrorKind = batchKind
	switch batchKind {
	case classify.KindNone:
		st.ConsecutiveFailures = 0
	case classify.KindStaleRef:
		// A stale reference clears on the next re-extract, so it keeps the
		// hint flowing without consuming retry budget.
	default:
		st.ConsecutiveFailures++
	}
}

// ClearBatch drops the pending batch and its routing flags after execution
// or rejection.
func (st *TaskState) ClearBatch() {
	st.PendingBatch = nil
	st.Parallel = false
	st.NeedsValidation = false
	st.RequiresApproval = false
}

// Elapsed is the wall-clock duration since the run began.
func (st *TaskState) Elapsed() time.Duration {
	if st.StartedAt.IsZero() {
		return 0
	}
	return time.Since(st.StartedAt)
}
