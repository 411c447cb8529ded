package graph

import (
	"context"
	"fmt"

	"github.com/entrhq/webpilot/pkg/agent/state"
)

// Node is a unit of the control loop. Run inspects the state and returns a
// Transition; it must not mutate the state except through deltas.
type Node interface {
	ID() NodeID
	Run(ctx context.Context, st *state.TaskState) (Transition, error)
}

// Registry is the immutable node table the loop dispatches from. All nodes
// are registered up front; there is no runtime mutation.
type Registry struct {
	entry NodeID
	nodes map[NodeID]Node
}

// NewRegistry builds a registry with the given entry point. Duplicate ids
// and a missing entry node are construction errors.
func NewRegistry(entry NodeID, nodes ...Node) (*Registry, error) {
	table := make(map[NodeID]Node, len(nodes))
	for _, node := range nodes {
		id := node.ID()
		if _, exists := table[id]; exists {
			return nil, fmt.Errorf("duplicate node id %q", id)
		}
		table[id] = node
	}
	if _, ok := table[entry]; !ok {
		return nil, fmt.Errorf("entry node %q is not registered", entry)
	}
	return &Registry{entry: entry, nodes: table}, nil
}

// Entry returns the entry node id.
func (r *Registry) Entry() NodeID { return r.entry }

// Resolve looks up a node by id.
func (r *Registry) Resolve(id NodeID) (Node, bool) {
	node, ok := r.nodes[id]
	return node, ok
}
