// Package nodes implements the control-loop nodes: reasoning, batch
// screening, human confirmation, execution, self-correction, and the
// reflection family. Each node reads the task state and hands back a routing
// verdict; all shared services arrive through Deps, so the wiring is visible
// in one place and swappable in tests.
package nodes

import (
	"fmt"

	"github.com/entrhq/webpilot/pkg/agent/compact"
	"github.com/entrhq/webpilot/pkg/agent/graph"
	"github.com/entrhq/webpilot/pkg/agent/policy"
	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/llm"
	"github.com/entrhq/webpilot/pkg/logging"
	"github.com/entrhq/webpilot/pkg/tools"
	"github.com/entrhq/webpilot/pkg/types"
)

// Node ids. NodeReasoning is the loop entry point.
const (
	NodeReasoning graph.NodeID = "reasoning"
	NodeValidate  graph.NodeID = "validate"
	NodeConfirm   graph.NodeID = "confirm"
	NodeExecute   graph.NodeID = "execute"
	NodeCorrect   graph.NodeID = "correct"
	NodeAnalyze   graph.NodeID = "analyze"
	NodeAdapt     graph.NodeID = "adapt"
	NodeQuality   graph.NodeID = "quality"
	NodeGoal      graph.NodeID = "goal"
	NodeMemory    graph.NodeID = "memory"
	NodeReport    graph.NodeID = "report"
)

// Terminal failure reasons.
const (
	ReasonNoStrategy     = "no_viable_strategy"
	ReasonUnverifiedGoal = "unverified_completion"
)

// Deps carries the services the nodes share. Compactor and Emit may be nil;
// everything else is required.
type Deps struct {
	Provider  llm.Provider
	Executor  tools.Executor
	Policy    *policy.Policy
	Compactor *compact.Compactor
	Logger    *logging.Logger
	Loop      config.LoopConfig
	Emit      graph.EventFunc
}

func (d *Deps) emit(event *types.AgentEvent) {
	if d.Emit != nil {
		d.Emit(event)
	}
}

// NewRegistry wires the full node set with NodeReasoning as entry.
func NewRegistry(deps *Deps) (*graph.Registry, error) {
	if deps.Provider == nil {
		return nil, fmt.Errorf("nodes: provider is required")
	}
	if deps.Executor == nil {
		return nil, fmt.Errorf("nodes: executor is required")
	}
	if deps.Policy == nil {
		return nil, fmt.Errorf("nodes: policy is required")
	}
	return graph.NewRegistry(NodeReasoning,
		&reasoningNode{deps},
		&validateNode{deps},
		&confirmNode{deps},
		&executeNode{deps},
		&correctNode{deps},
		&analyzeNode{deps},
		&adaptNode{deps},
		&qualityNode{deps},
		&goalNode{deps},
		&memoryNode{deps},
		&reportNode{deps},
	)
}
