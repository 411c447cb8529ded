package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/webpilot/pkg/agent/classify"
	"github.com/entrhq/webpilot/pkg/tools"
	"github.com/entrhq/webpilot/pkg/types"
)

func TestNew(t *testing.T) {
	st := New("find the cheapest flight", "you are a browser agent")

	require.Len(t, st.History, 2)
	assert.Equal(t, types.RoleSystem, st.History[0].Role)
	assert.Equal(t, types.RoleUser, st.History[1].Role)
	assert.Equal(t, "find the cheapest flight", st.Task)
	assert.Equal(t, classify.KindNone, st.LastErrorKind)
	assert.False(t, st.StartedAt.IsZero())
}

func TestNewWithoutSystemPrompt(t *testing.T) {
	st := New("task", "")
	require.Len(t, st.History, 1)
	assert.Equal(t, types.RoleUser, st.History[0].Role)
}

func TestLastAssistant(t *testing.T) {
	st := New("task", "prompt")
	assert.Nil(t, st.LastAssistant())

	st.Append(types.NewAssistantMessage("first"))
	st.Append(types.NewUserMessage("interjection"))
	st.Append(types.NewAssistantMessage("second"))

	msg := st.LastAssistant()
	require.NotNil(t, msg)
	assert.Equal(t, "second", msg.Content)
}

func TestRecordResults(t *testing.T) {
	st := New("task", "prompt")

	st.RecordResults([]tools.Result{
		{ActionID: "a1", Name: "navigate", Output: "ok"},
		{ActionID: "a2", Name: "click", Error: "element not found"},
	})

	assert.Equal(t, 1, st.ErrorCount)
	assert.Equal(t, 1, st.ConsecutiveFailures)
	assert.Equal(t, classify.KindElementNotFound, st.LastErrorKind)

	total, failed := st.ActionStats()
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, failed)
	assert.InDelta(t, 0.5, st.SuccessRate(), 0.001)

	// Clean batch resets the consecutive counter but not the total.
	st.RecordResults([]tools.Result{
		{ActionID: "a3", Name: "extract_content", Output: "page text"},
	})
	assert.Equal(t, 1, st.ErrorCount)
	assert.Equal(t, 0, st.ConsecutiveFailures)
	assert.Equal(t, classify.KindNone, st.LastErrorKind)
}

func TestRecordResultsBatchClassification(t *testing.T) {
	st := New("task", "")

	// First failure in batch order decides the category.
	st.RecordResults([]tools.Result{
		{ActionID: "a1", Name: "click", Output: "ok"},
		{ActionID: "a2", Name: "fill", Error: "connection refused"},
		{ActionID: "a3", Name: "click", Error: "stale element reference"},
	})
	assert.Equal(t, classify.KindNetwork, st.LastErrorKind)
}

func TestRecordResultsStructuredKind(t *testing.T) {
	st := New("task", "")

	// A backend-supplied category beats text classification.
	st.RecordResults([]tools.Result{
		{ActionID: "a1", Name: "click", Error: "connection refused", Kind: string(classify.KindCaptcha)},
	})
	assert.Equal(t, classify.KindCaptcha, st.LastErrorKind)
}

func TestRecordResultsStaleRefKeepsRetryBudget(t *testing.T) {
	st := New("task", "")

	st.RecordResults([]tools.Result{
		{ActionID: "a1", Name: "click", Error: "element not found"},
	})
	require.Equal(t, 1, st.ConsecutiveFailures)

	// A stale reference surfaces as the error kind but neither extends nor
	// resets the consecutive-failure streak.
	st.RecordResults([]tools.Result{
		{ActionID: "a2", Name: "click", Error: "element is no longer attached"},
	})
	assert.Equal(t, classify.KindStaleRef, st.LastErrorKind)
	assert.Equal(t, 1, st.ConsecutiveFailures)
	assert.Equal(t, 2, st.ErrorCount)
}

func TestSuccessRateNoActions(t *testing.T) {
	st := New("task", "")
	assert.Zero(t, st.SuccessRate())
}

func TestClearBatch(t *testing.T) {
	st := New("task", "")
	st.PendingBatch = []tools.Action{{ID: "a1", Name: "click"}}
	st.Parallel = true
	st.NeedsValidation = true
	st.RequiresApproval = true

	st.ClearBatch()

	assert.Nil(t, st.PendingBatch)
	assert.False(t, st.Parallel)
	assert.False(t, st.NeedsValidation)
	assert.False(t, st.RequiresApproval)
}
