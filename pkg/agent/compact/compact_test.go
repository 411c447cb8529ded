package compact

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/types"
)

type stubCounter struct {
	tokens int
}

func (s *stubCounter) CountMessagesTokens(_ []*types.Message) int { return s.tokens }

type stubSummarizer struct {
	summary string
	err     error
	prompt  string
}

func (s *stubSummarizer) Complete(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.summary, s.err
}

func testConfig() config.MemoryConfig {
	return config.MemoryConfig{MaxTokens: 1000, ThresholdPercent: 80, KeepRecent: 2}
}

func buildHistory(turns int) []*types.Message {
	history := []*types.Message{
		types.NewSystemMessage("you are a browser agent"),
		types.NewUserMessage("find the price"),
	}
	for i := 0; i < turns; i++ {
		history = append(history,
			types.NewAssistantMessage(fmt.Sprintf("step %d reasoning", i)),
			types.NewToolMessage(types.ActionResult{
				ActionID: fmt.Sprintf("a%d", i),
				Name:     "click",
				Output:   "ok",
			}),
		)
	}
	return history
}

func TestShouldCompact(t *testing.T) {
	t.Run("below threshold", func(t *testing.T) {
		c := New(&stubCounter{tokens: 700}, testConfig(), nil, nil)
		assert.False(t, c.ShouldCompact(buildHistory(3)))
	})

	t.Run("at threshold", func(t *testing.T) {
		c := New(&stubCounter{tokens: 800}, testConfig(), nil, nil)
		assert.True(t, c.ShouldCompact(buildHistory(3)))
	})
}

func TestShouldCompactFractionalThreshold(t *testing.T) {
	cfg := config.MemoryConfig{MaxTokens: 1000, ThresholdPercent: 77.5, KeepRecent: 2}

	c := New(&stubCounter{tokens: 774}, cfg, nil, nil)
	assert.False(t, c.ShouldCompact(buildHistory(3)))

	c = New(&stubCounter{tokens: 775}, cfg, nil, nil)
	assert.True(t, c.ShouldCompact(buildHistory(3)))
}

func TestCompactSummaryAnnotations(t *testing.T) {
	c := New(&stubCounter{}, testConfig(), &stubSummarizer{summary: "s"}, nil)

	compacted, _, changed, err := c.Compact(context.Background(), buildHistory(5))
	require.NoError(t, err)
	require.True(t, changed)

	summaryMsg := compacted[2]
	require.True(t, summaryMsg.IsSummary())
	assert.Equal(t, 8, summaryMsg.Metadata["folded_messages"])
}

func TestCompactPreservesHeadAndWindow(t *testing.T) {
	c := New(&stubCounter{}, testConfig(), &stubSummarizer{summary: "visited three pages"}, nil)
	history := buildHistory(5) // 2 head + 10

	compacted, summary, changed, err := c.Compact(context.Background(), history)
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, "visited three pages", summary)

	// head + summary + kept window
	require.Len(t, compacted, 5)
	assert.Equal(t, types.RoleSystem, compacted[0].Role)
	assert.Equal(t, "find the price", compacted[1].Content)
	assert.True(t, compacted[2].IsSummary())
	assert.Contains(t, compacted[2].Content, "visited three pages")
	assert.Equal(t, history[10], compacted[3])
	assert.Equal(t, history[11], compacted[4])
}

func TestCompactKeptWindowNeverStartsOnResults(t *testing.T) {
	cfg := testConfig()
	cfg.KeepRecent = 1 // cut would land on a tool result
	c := New(&stubCounter{}, cfg, &stubSummarizer{summary: "s"}, nil)

	compacted, _, changed, err := c.Compact(context.Background(), buildHistory(5))
	require.NoError(t, err)
	require.True(t, changed)

	// The message after the summary must not be an orphaned action result.
	assert.NotEqual(t, types.RoleTool, compacted[3].Role)
	assert.Equal(t, types.RoleAssistant, compacted[3].Role)
}

func TestCompactShortHistoryIsNoop(t *testing.T) {
	c := New(&stubCounter{}, testConfig(), &stubSummarizer{summary: "s"}, nil)
	history := buildHistory(1)

	compacted, _, changed, err := c.Compact(context.Background(), history)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, history, compacted)
}

func TestCompactIsIdempotent(t *testing.T) {
	c := New(&stubCounter{}, testConfig(), &stubSummarizer{summary: "first pass"}, nil)

	once, _, changed, err := c.Compact(context.Background(), buildHistory(5))
	require.NoError(t, err)
	require.True(t, changed)

	twice, _, changed, err := c.Compact(context.Background(), once)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, once, twice)
}

func TestCompactExtractiveFallback(t *testing.T) {
	t.Run("nil summarizer", func(t *testing.T) {
		c := New(&stubCounter{}, testConfig(), nil, nil)
		history := buildHistory(4)
		history = append(history, types.NewToolMessage(types.ActionResult{
			ActionID: "f1", Name: "fill", Error: "element not found",
		}))

		_, summary, changed, err := c.Compact(context.Background(), history)
		require.NoError(t, err)
		require.True(t, changed)
		assert.Contains(t, summary, "succeeded")
		assert.Contains(t, summary, "step 0 reasoning")
	})

	t.Run("summarizer error falls back", func(t *testing.T) {
		c := New(&stubCounter{}, testConfig(), &stubSummarizer{err: errors.New("api down")}, nil)

		_, summary, changed, err := c.Compact(context.Background(), buildHistory(5))
		require.NoError(t, err)
		require.True(t, changed)
		assert.Contains(t, summary, "actions succeeded")
	})
}

func TestSummaryPromptContainsHistory(t *testing.T) {
	summarizer := &stubSummarizer{summary: "ok"}
	c := New(&stubCounter{}, testConfig(), summarizer, nil)

	_, _, _, err := c.Compact(context.Background(), buildHistory(5))
	require.NoError(t, err)
	assert.Contains(t, summarizer.prompt, "step 0 reasoning")
	assert.Contains(t, summarizer.prompt, "Summarize")
}
