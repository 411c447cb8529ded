// Package policy decides how much scrutiny a decided action batch gets
// before execution. It is two tiers: glob patterns flag candidates for the
// validator hop, and an exact-name critical set forces a human verdict.
package policy

import (
	"fmt"

	"github.com/gobwas/glob"

	"github.com/entrhq/webpilot/pkg/tools"
)

// Policy is an immutable screening table compiled at construction.
type Policy struct {
	critical map[string]struct{}
	patterns []glob.Glob
}

// New compiles a policy. Pattern syntax follows glob matching with `*`
// wildcards; a malformed pattern is a construction error.
func New(criticalActions, validatePatterns []string) (*Policy, error) {
	p := &Policy{critical: make(map[string]struct{}, len(criticalActions))}
	for _, name := range criticalActions {
		p.critical[name] = struct{}{}
	}
	for _, pattern := range validatePatterns {
		compiled, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid validate pattern %q: %w", pattern, err)
		}
		p.patterns = append(p.patterns, compiled)
	}
	return p, nil
}

// IsCritical reports whether the action name is in the exact critical set.
func (p *Policy) IsCritical(name string) bool {
	_, ok := p.critical[name]
	return ok
}

// IsCandidate reports whether the action name matches any validate pattern.
// Critical names are always candidates, matched pattern or not.
func (p *Policy) IsCandidate(name string) bool {
	if p.IsCritical(name) {
		return true
	}
	for _, pattern := range p.patterns {
		if pattern.Match(name) {
			return true
		}
	}
	return false
}

// Screen classifies a decided batch. needsValidation means at least one
// action matched a pattern; critical means at least one action is in the
// exact critical set and the batch must not execute without approval.
func (p *Policy) Screen(batch []tools.Action) (needsValidation, critical bool) {
	for _, action := range batch {
		if p.IsCritical(action.Name) {
			return true, true
		}
		if p.IsCandidate(action.Name) {
			needsValidation = true
		}
	}
	return needsValidation, false
}

// CriticalIn returns the batch members that are in the critical set, in
// batch order.
func (p *Policy) CriticalIn(batch []tools.Action) []tools.Action {
	var out []tools.Action
	for _, action := range batch {
		if p.IsCritical(action.Name) {
			out = append(out, action)
		}
	}
	return out
}
