// Package reflect holds the deterministic self-assessment rules: progress
// scoring, output-quality grading, and goal validation. Everything here is a
// pure function of the task state, so every verdict is replayable.
package reflect

import (
	"strings"

	"github.com/entrhq/webpilot/pkg/agent/state"
	"github.com/entrhq/webpilot/pkg/types"
)

// Quality grades for the most recent answer.
const (
	QualityGood       = 1.0
	QualityAcceptable = 0.7
	QualityPoor       = 0.5
)

// ProgressScore estimates task progress in [0, 1]. It rewards successful
// actions and accumulated conversation depth, penalizes errors, and folds in
// the quality grade of the latest answer.
func ProgressScore(successRate float64, historyLen, errorCount int, quality float64) float64 {
	score := successRate * 0.5
	score += min(float64(historyLen)/40.0, 0.5)
	score -= min(float64(errorCount)*0.1, 0.4)
	score += quality * 0.2
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// QualityScore grades the most recent assistant answer. A substantial answer
// backed by a mostly-clean action record is good; a short but present answer
// is acceptable; anything else is poor.
func QualityScore(st *state.TaskState) float64 {
	answer := st.LastAssistant()
	if answer == nil {
		return QualityPoor
	}
	content := strings.TrimSpace(answer.Content)
	switch {
	case len(content) >= 80 && st.SuccessRate() >= 0.7:
		return QualityGood
	case len(content) >= 20:
		return QualityAcceptable
	default:
		return QualityPoor
	}
}

// researchMarkers are task phrasings that ask for information rather than a
// side effect. Matching is case-insensitive substring.
var researchMarkers = []string{
	"find", "search", "look up", "extract", "list", "compare", "research",
	"what is", "what are", "how many", "how much", "price of", "summarize",
}

// IsResearchTask reports whether the task asks for information. Tasks that
// are not research are treated as action tasks.
func IsResearchTask(task string) bool {
	lower := strings.ToLower(task)
	for _, marker := range researchMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// GoalVerdict is the outcome of goal validation.
type GoalVerdict struct {
	Achieved bool
	Reason   string
}

// ValidateGoal checks whether the claimed completion is backed by evidence.
// Research tasks need at least one successful extraction feeding the answer;
// action tasks need an executed action record whose final batch succeeded.
func ValidateGoal(st *state.TaskState) GoalVerdict {
	answer := st.LastAssistant()
	if answer == nil || strings.TrimSpace(answer.Content) == "" {
		return GoalVerdict{Reason: "no final answer was produced"}
	}

	if IsResearchTask(st.Task) {
		if !hasExtractionEvidence(st) {
			return GoalVerdict{Reason: "answer is not backed by any extracted page content"}
		}
		return GoalVerdict{Achieved: true, Reason: "answer backed by extracted content"}
	}

	total, _ := st.ActionStats()
	if total == 0 {
		return GoalVerdict{Reason: "completion claimed without executing any action"}
	}
	if lastResultFailed(st) {
		return GoalVerdict{Reason: "the final action failed"}
	}
	return GoalVerdict{Achieved: true, Reason: "final action succeeded"}
}

func hasExtractionEvidence(st *state.TaskState) bool {
	for _, msg := range st.History {
		if msg.Role != types.RoleTool || msg.Result == nil {
			continue
		}
		if strings.HasPrefix(msg.Result.Name, "extract") &&
			!msg.Result.Failed() &&
			strings.TrimSpace(msg.Result.Output) != "" {
			return true
		}
	}
	return false
}

func lastResultFailed(st *state.TaskState) bool {
	for i := len(st.History) - 1; i >= 0; i-- {
		msg := st.History[i]
		if msg.Role == types.RoleTool && msg.Result != nil {
			return msg.Result.Failed()
		}
	}
	return false
}
