package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/webpilot/pkg/tools"
)

func TestDescribeCoversDispatchTable(t *testing.T) {
	e := NewExecutor(nil, nil)
	specs := e.Describe()

	names := make(map[string]tools.ActionSpec, len(specs))
	for _, spec := range specs {
		assert.NotEmpty(t, spec.Description, "%s needs a description", spec.Name)
		assert.Equal(t, "object", spec.Parameters["type"])
		names[spec.Name] = spec
	}

	for _, expected := range []string{
		"navigate", "back", "click", "fill", "submit_form",
		"extract_title", "extract_content", "wait", "scroll",
		"open_tab", "switch_tab", "list_tabs",
	} {
		_, ok := names[expected]
		assert.True(t, ok, "spec missing for %s", expected)
	}

	required, _ := names["fill"].Parameters["required"].([]string)
	assert.ElementsMatch(t, []string{"selector", "value"}, required)
}

func TestExecuteUnknownAction(t *testing.T) {
	e := NewExecutor(nil, nil)
	res := e.Execute(context.Background(), tools.Action{ID: "a1", Name: "teleport"})
	assert.True(t, res.Failed())
	assert.Contains(t, res.Error, `unknown action "teleport"`)
	assert.Equal(t, "a1", res.ActionID)
}

func TestExecuteCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewExecutor(nil, nil)
	res := e.Execute(ctx, tools.Action{ID: "a1", Name: "navigate", Args: map[string]any{"url": "https://example.com"}})
	assert.True(t, res.Failed())
	assert.Contains(t, res.Error, "context canceled")
}

func TestWaitActionBounds(t *testing.T) {
	e := NewExecutor(nil, nil)

	start := time.Now()
	res := e.Execute(context.Background(), tools.Action{ID: "a1", Name: "wait", Args: map[string]any{"seconds": float64(1)}})
	require.False(t, res.Failed())
	assert.Contains(t, res.Output, "Waited 1 seconds")
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
}

func TestWaitActionContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	e := NewExecutor(nil, nil)
	res := e.Execute(ctx, tools.Action{ID: "a1", Name: "wait", Args: map[string]any{"seconds": float64(30)}})
	assert.True(t, res.Failed())
}

func TestArgHelpers(t *testing.T) {
	t.Run("stringArg", func(t *testing.T) {
		_, err := stringArg(map[string]any{}, "url")
		assert.ErrorContains(t, err, `argument "url" is required`)

		v, err := stringArg(map[string]any{"url": "https://x"}, "url")
		require.NoError(t, err)
		assert.Equal(t, "https://x", v)
	})

	t.Run("intArg accepts json numbers", func(t *testing.T) {
		assert.Equal(t, 5, intArg(map[string]any{"n": float64(5)}, "n", 0))
		assert.Equal(t, 5, intArg(map[string]any{"n": 5}, "n", 0))
		assert.Equal(t, 9, intArg(map[string]any{}, "n", 9))
	})

	t.Run("boolArg", func(t *testing.T) {
		assert.True(t, boolArg(map[string]any{"f": true}, "f"))
		assert.False(t, boolArg(map[string]any{}, "f"))
		assert.False(t, boolArg(map[string]any{"f": "yes"}, "f"))
	})
}
