package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/webpilot/pkg/tools"
	"github.com/entrhq/webpilot/pkg/types"
)

func TestNewProviderRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewProvider("", "")
	assert.ErrorContains(t, err, "API key is required")
}

func TestNewProviderOptions(t *testing.T) {
	p, err := NewProvider("test-key", "", WithModel("gpt-4o-mini"), WithTemperature(0.3))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", p.model)
	assert.InDelta(t, 0.3, p.temperature, 0.001)
}

func TestConvertSpecs(t *testing.T) {
	specs := []tools.ActionSpec{{
		Name:        "navigate",
		Description: "Open a URL.",
		Parameters: tools.ObjectSchema(map[string]any{
			"url": map[string]any{"type": "string"},
		}, []string{"url"}),
	}}

	out := convertSpecs(specs)
	require.Len(t, out, 1)
	assert.Equal(t, "navigate", out[0].Function.Name)
	assert.Equal(t, "object", out[0].Function.Parameters["type"])
	assert.Equal(t, []string{"url"}, out[0].Function.Parameters["required"])
}

func TestConvertMessagesKeepsToolCallPairing(t *testing.T) {
	assistant := types.NewAssistantMessage("clicking the link").WithActions([]types.ActionRequest{{
		ID:   "call_1",
		Name: "click",
		Args: map[string]any{"selector": "#go"},
	}})

	history := []*types.Message{
		types.NewSystemMessage("rules"),
		types.NewUserMessage("task"),
		assistant,
		types.NewToolMessage(types.ActionResult{ActionID: "call_1", Name: "click", Output: "ok"}),
	}

	out := convertMessages(history)
	require.Len(t, out, 4)

	assert.NotNil(t, out[0].OfSystem)
	assert.NotNil(t, out[1].OfUser)

	require.NotNil(t, out[2].OfAssistant)
	calls := out[2].OfAssistant.ToolCalls
	require.Len(t, calls, 1)
	assert.Equal(t, "call_1", calls[0].ID)
	assert.Equal(t, "click", calls[0].Function.Name)
	assert.JSONEq(t, `{"selector":"#go"}`, calls[0].Function.Arguments)

	require.NotNil(t, out[3].OfTool)
	assert.Equal(t, "call_1", out[3].OfTool.ToolCallID)
}

func TestConvertMessagesSummaryBecomesUserContext(t *testing.T) {
	// Tool-role records without an action id (compaction summaries, synthetic
	// notes) cannot be replayed as tool results.
	history := []*types.Message{
		{Role: types.RoleTool, Content: "earlier progress summary"},
	}

	out := convertMessages(history)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].OfTool)
	require.NotNil(t, out[0].OfUser)
}
