// Package compact bounds conversation growth. When token usage crosses a
// threshold, the middle of the history is folded into a summary message
// while the system prompt, the original task, and the most recent window
// survive verbatim.
package compact

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/logging"
	"github.com/entrhq/webpilot/pkg/types"
)

// Summarizer produces a prose summary from a prompt. llm.Provider satisfies
// it; a nil Summarizer selects the extractive fallback.
type Summarizer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// TokenCounter measures history size. tokenizer.Tokenizer satisfies it.
type TokenCounter interface {
	CountMessagesTokens(messages []*types.Message) int
}

// Compactor folds old history into summaries once token usage crosses the
// configured threshold.
type Compactor struct {
	tokenizer  TokenCounter
	summarizer Summarizer
	logger     *logging.Logger

	maxTokens        int
	thresholdPercent float64
	keepRecent       int
}

// New creates a compactor. summarizer may be nil.
func New(tok TokenCounter, cfg config.MemoryConfig, summarizer Summarizer, logger *logging.Logger) *Compactor {
	return &Compactor{
		tokenizer:        tok,
		summarizer:       summarizer,
		logger:           logger,
		maxTokens:        cfg.MaxTokens,
		thresholdPercent: cfg.ThresholdPercent,
		keepRecent:       cfg.KeepRecent,
	}
}

// ShouldCompact reports whether the history has crossed the token threshold
// and a compaction would actually shrink it.
func (c *Compactor) ShouldCompact(history []*types.Message) bool {
	used := c.tokenizer.CountMessagesTokens(history)
	limit := int(float64(c.maxTokens) * c.thresholdPercent / 100)
	return used >= limit && c.compactable(history)
}

// compactable reports whether Compact would change anything: there must be a
// foldable middle that is not already a lone summary.
func (c *Compactor) compactable(history []*types.Message) bool {
	head, cut := c.window(history)
	if cut <= head {
		return false
	}
	middle := history[head:cut]
	return len(middle) != 1 || !middle[0].IsSummary()
}

// window computes the preserved head and the start of the kept recent
// window for the current history.
func (c *Compactor) window(history []*types.Message) (head, cut int) {
	head = preservedHead(history)
	cut = len(history) - c.keepRecent
	// Never start the kept window on orphaned action results.
	for cut > head && cut < len(history) && history[cut].Role == types.RoleTool {
		cut--
	}
	return head, cut
}

// Compact rewrites the history, folding everything between the preserved
// head and the recent window into one summary message. It reports whether
// anything changed; calling it on an already-compact history is a no-op.
func (c *Compactor) Compact(ctx context.Context, history []*types.Message) ([]*types.Message, string, bool, error) {
	head, cut := c.window(history)
	if cut <= head {
		return history, "", false, nil
	}

	middle := history[head:cut]
	// Re-summarizing a window that is already just a summary gains nothing.
	if len(middle) == 1 && middle[0].IsSummary() {
		return history, "", false, nil
	}

	summary, err := c.summarize(ctx, middle)
	if err != nil {
		return history, "", false, err
	}

	summaryMsg := types.NewUserMessage("Summary of earlier progress:\n" + summary).
		WithMetadata("summarized", true).
		WithMetadata("folded_messages", len(middle))

	compacted := make([]*types.Message, 0, head+1+len(history)-cut)
	compacted = append(compacted, history[:head]...)
	compacted = append(compacted, summaryMsg)
	compacted = append(compacted, history[cut:]...)

	c.logger.Infof("compacted %d messages into summary, history now %d messages",
		len(middle), len(compacted))
	return compacted, summary, true, nil
}

// preservedHead counts the leading messages that always survive: the system
// prompt and the original task statement.
func preservedHead(history []*types.Message) int {
	head := 0
	if head < len(history) && history[head].Role == types.RoleSystem {
		head++
	}
	if head < len(history) && history[head].Role == types.RoleUser && !history[head].IsSummary() {
		head++
	}
	return head
}

func (c *Compactor) summarize(ctx context.Context, middle []*types.Message) (string, error) {
	if c.summarizer != nil {
		prompt := summaryPrompt(middle)
		summary, err := c.summarizer.Complete(ctx, prompt)
		if err == nil && strings.TrimSpace(summary) != "" {
			return strings.TrimSpace(summary), nil
		}
		if err != nil {
			c.logger.Warnf("summary completion failed, using extractive fallback: %v", err)
		}
	}
	return extractiveSummary(middle), nil
}

func summaryPrompt(middle []*types.Message) string {
	var b strings.Builder
	b.WriteString("Summarize the following browser-automation progress. ")
	b.WriteString("Keep concrete facts: pages visited, data extracted, actions that failed and why. ")
	b.WriteString("Be brief.\n\n")
	for _, msg := range middle {
		b.WriteString(string(msg.Role))
		b.WriteString(": ")
		b.WriteString(truncate(msg.Content, 500))
		b.WriteString("\n")
	}
	return b.String()
}

// extractiveSummary builds a summary without a model: assistant reasoning
// snippets plus a tally of action outcomes.
func extractiveSummary(middle []*types.Message) string {
	var lines []string
	succeeded, failed := 0, 0
	var failures []string

	for _, msg := range middle {
		switch msg.Role {
		case types.RoleAssistant:
			if text := strings.TrimSpace(msg.Content); text != "" {
				lines = append(lines, "- "+truncate(text, 200))
			}
		case types.RoleTool:
			if msg.Result == nil {
				continue
			}
			if msg.Result.Failed() {
				failed++
				failures = append(failures, fmt.Sprintf("%s: %s", msg.Result.Name, truncate(msg.Result.Error, 120)))
			} else {
				succeeded++
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d actions succeeded, %d failed.", succeeded, failed)
	for _, f := range failures {
		b.WriteString("\nFailed: " + f)
	}
	if len(lines) > 0 {
		b.WriteString("\nKey reasoning:\n" + strings.Join(lines, "\n"))
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
