// Package agent assembles the control loop into a runnable browser agent:
// provider, executor, policy, compaction, and approval are wired into the
// node registry, and suspension handling is bridged to an approval
// Responder when one is configured.
package agent

import (
	"context"
	"fmt"

	"github.com/entrhq/webpilot/pkg/agent/approval"
	"github.com/entrhq/webpilot/pkg/agent/compact"
	"github.com/entrhq/webpilot/pkg/agent/graph"
	"github.com/entrhq/webpilot/pkg/agent/nodes"
	"github.com/entrhq/webpilot/pkg/agent/policy"
	"github.com/entrhq/webpilot/pkg/agent/state"
	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/llm"
	"github.com/entrhq/webpilot/pkg/llm/tokenizer"
	"github.com/entrhq/webpilot/pkg/logging"
	"github.com/entrhq/webpilot/pkg/tools"
)

// Agent runs browser-automation tasks through the control loop.
type Agent struct {
	provider     llm.Provider
	executor     tools.Executor
	policy       *policy.Policy
	compactor    *compact.Compactor
	responder    approval.Responder
	logger       *logging.Logger
	cfg          *config.Config
	emit         graph.EventFunc
	systemPrompt string
	compactorSet bool

	loop *graph.Loop
}

// Option configures an Agent.
type Option func(*Agent)

// WithProvider sets the reasoning provider. Required.
func WithProvider(provider llm.Provider) Option {
	return func(a *Agent) { a.provider = provider }
}

// WithExecutor sets the action executor. Required.
func WithExecutor(executor tools.Executor) Option {
	return func(a *Agent) { a.executor = executor }
}

// WithConfig replaces the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *Agent) { a.cfg = cfg }
}

// WithResponder sets the approval responder. Without one, a critical batch
// suspends the run and Run returns the suspension for the caller to persist.
func WithResponder(responder approval.Responder) Option {
	return func(a *Agent) { a.responder = responder }
}

// WithEventHandler registers an observer for loop events.
func WithEventHandler(emit graph.EventFunc) Option {
	return func(a *Agent) { a.emit = emit }
}

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) { a.systemPrompt = prompt }
}

// WithPolicy replaces the policy compiled from configuration.
func WithPolicy(p *policy.Policy) Option {
	return func(a *Agent) { a.policy = p }
}

// WithCompactor replaces the default history compactor. Passing nil disables
// compaction.
func WithCompactor(c *compact.Compactor) Option {
	return func(a *Agent) {
		a.compactor = c
		a.compactorSet = true
	}
}

// WithLogger replaces the default logger.
func WithLogger(logger *logging.Logger) Option {
	return func(a *Agent) { a.logger = logger }
}

// New builds an agent. Provider and executor are required; everything else
// has working defaults derived from the configuration.
func New(opts ...Option) (*Agent, error) {
	a := &Agent{systemPrompt: defaultSystemPrompt}
	for _, opt := range opts {
		opt(a)
	}

	if a.provider == nil {
		return nil, fmt.Errorf("agent: a reasoning provider is required")
	}
	if a.executor == nil {
		return nil, fmt.Errorf("agent: an executor is required")
	}
	if a.cfg == nil {
		a.cfg = config.Default()
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}

	if a.logger == nil {
		logger, err := logging.NewLogger("agent")
		if err != nil {
			// The fallback logger still works; note the degradation.
			logger.Warnf("file logging unavailable: %v", err)
		}
		a.logger = logger
	}

	if a.policy == nil {
		p, err := policy.New(a.cfg.Policy.CriticalActions, a.cfg.Policy.ValidatePatterns)
		if err != nil {
			return nil, fmt.Errorf("agent: %w", err)
		}
		a.policy = p
	}

	if a.compactor == nil && !a.compactorSet {
		tok, err := tokenizer.New()
		if err != nil {
			a.logger.Warnf("tokenizer unavailable, history compaction disabled: %v", err)
		} else {
			a.compactor = compact.New(tok, a.cfg.Memory, a.provider, a.logger)
		}
	}

	registry, err := nodes.NewRegistry(&nodes.Deps{
		Provider:  a.provider,
		Executor:  a.executor,
		Policy:    a.policy,
		Compactor: a.compactor,
		Logger:    a.logger,
		Loop:      a.cfg.Loop,
		Emit:      a.emit,
	})
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}

	a.loop = graph.NewLoop(registry, a.cfg.Loop.MaxSteps, a.logger, a.emit)
	return a, nil
}

// Result is what a task run produces. Either Status is set and the run is
// over, or Suspended carries the continuation for the caller to persist and
// later feed to Resume.
type Result struct {
	Status    graph.Status
	Reason    string
	Summary   string
	Steps     int
	State     *state.TaskState
	Suspended *graph.SuspensionRecord
}

// Run executes a task from scratch.
func (a *Agent) Run(ctx context.Context, task string) (*Result, error) {
	if task == "" {
		return nil, fmt.Errorf("agent: task must not be empty")
	}
	a.logger.Infof("starting task: %s", task)
	st := state.New(task, a.systemPrompt)
	return a.drive(ctx, st, "")
}

// Resume continues a previously suspended run. reply is the operator's
// verdict for the suspension that halted it, in the confirm-node reply
// format; an empty reply re-suspends immediately, which lets a caller
// re-materialize the pending question.
func (a *Agent) Resume(ctx context.Context, record *graph.SuspensionRecord, reply string) (*Result, error) {
	if record == nil || record.State == nil {
		return nil, fmt.Errorf("agent: suspension record is empty")
	}
	record.State.PendingReply = reply
	return a.drive(ctx, record.State, record.Resume)
}

func (a *Agent) drive(ctx context.Context, st *state.TaskState, at graph.NodeID) (*Result, error) {
	var (
		res *graph.Result
		err error
	)
	if at == "" {
		res, err = a.loop.Run(ctx, st)
	} else {
		res, err = a.loop.Resume(ctx, st, at)
	}
	if err != nil {
		return nil, err
	}

	for res.Suspended != nil {
		if a.responder == nil {
			a.logger.Infof("run suspended awaiting approval, returning continuation")
			return &Result{Steps: st.Step, State: st, Suspended: res.Suspended}, nil
		}

		susp := res.Suspended.Suspension
		decision, askErr := a.responder.Ask(ctx, susp.Question, susp.Batch)
		if askErr != nil {
			return nil, fmt.Errorf("agent: approval failed: %w", askErr)
		}
		st.PendingReply = EncodeReply(decision)

		res, err = a.loop.Resume(ctx, st, res.Suspended.Resume)
		if err != nil {
			return nil, err
		}
	}

	outcome := res.Outcome
	a.logger.Infof("task finished: %s (%s) after %d steps", outcome.Status, outcome.Reason, st.Step)
	return &Result{
		Status:  outcome.Status,
		Reason:  outcome.Reason,
		Summary: outcome.Summary,
		Steps:   st.Step,
		State:   st,
	}, nil
}

// EncodeReply converts an approval decision into the reply format the
// confirmation node consumes.
func EncodeReply(decision approval.Decision) string {
	if decision.Approved {
		return nodes.ReplyApprove
	}
	if decision.Note != "" {
		return nodes.ReplyRejectPrefix + ": " + decision.Note
	}
	return nodes.ReplyRejectPrefix
}
