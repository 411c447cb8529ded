// Package main provides the webpilot command: an autonomous browsing agent
// driven from the terminal. It runs a task to completion, pauses for human
// approval on critical actions, and can persist a paused run to disk and
// resume it later.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/entrhq/webpilot/pkg/agent"
	"github.com/entrhq/webpilot/pkg/agent/approval"
	"github.com/entrhq/webpilot/pkg/agent/graph"
	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/llm/openai"
	"github.com/entrhq/webpilot/pkg/logging"
	"github.com/entrhq/webpilot/pkg/session"
	"github.com/entrhq/webpilot/pkg/tools/browser"
	"github.com/entrhq/webpilot/pkg/types"
)

const version = "0.1.0"

// cliConfig holds command-line configuration.
type cliConfig struct {
	Task         string
	ConfigFile   string
	Model        string
	Headful      bool
	Timeout      time.Duration
	ResumeID     string
	Reply        string
	NoInput      bool
	ListSessions bool
	ShowVersion  bool
}

func main() {
	cli := parseFlags()

	if cli.ShowVersion {
		fmt.Printf("webpilot v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, cli); err != nil {
		cancel()
		log.Printf("Execution failed: %v", err)
		os.Exit(1)
	}
	cancel()
}

func parseFlags() *cliConfig {
	cli := &cliConfig{}

	flag.StringVar(&cli.Task, "task", "", "Task description (required unless resuming)")
	flag.StringVar(&cli.ConfigFile, "config", "", "Path to configuration file (YAML)")
	flag.StringVar(&cli.Model, "model", "", "LLM model to use (overrides config)")
	flag.BoolVar(&cli.Headful, "headful", false, "Run the browser with a visible window")
	flag.DurationVar(&cli.Timeout, "timeout", 0, "Overall execution timeout (0 = none)")
	flag.StringVar(&cli.ResumeID, "resume", "", "Resume a previously suspended session by ID")
	flag.StringVar(&cli.Reply, "reply", "", "Approval verdict when resuming: approve, reject, or reject: <guidance>")
	flag.BoolVar(&cli.NoInput, "no-input", false, "Never prompt; suspend to disk when approval is required")
	flag.BoolVar(&cli.ListSessions, "sessions", false, "List suspended sessions and exit")
	flag.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Webpilot - Autonomous Browser Agent\n\n")
		fmt.Fprintf(os.Stderr, "Usage: webpilot [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Run a research task\n")
		fmt.Fprintf(os.Stderr, "  webpilot -task \"Find the current price of the Framework 13 laptop\"\n\n")
		fmt.Fprintf(os.Stderr, "  # Run unattended; critical actions suspend to disk\n")
		fmt.Fprintf(os.Stderr, "  webpilot -task \"Renew the library books\" -no-input\n\n")
		fmt.Fprintf(os.Stderr, "  # Approve a suspended session\n")
		fmt.Fprintf(os.Stderr, "  webpilot -resume 4f1c... -reply approve\n\n")
	}

	flag.Parse()
	return cli
}

func run(ctx context.Context, cli *cliConfig) error {
	cfg, err := config.Load(cli.ConfigFile)
	if err != nil {
		return err
	}
	if cli.Model != "" {
		cfg.LLM.Model = cli.Model
	}
	if cli.Headful {
		cfg.Browser.Headless = false
	}

	logging.SetMinLevel(logging.ParseLevel(cfg.LogLevel))
	logger, err := logging.NewLogger("main")
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logger.Close()

	store, err := session.NewStore("")
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	if cli.ListSessions {
		return listSessions(store)
	}

	var record *graph.SuspensionRecord
	if cli.ResumeID != "" {
		record, err = store.Load(cli.ResumeID)
		if err != nil {
			return fmt.Errorf("failed to load session %s: %w", cli.ResumeID, err)
		}
	} else if cli.Task == "" {
		flag.Usage()
		return fmt.Errorf("either -task or -resume is required")
	}

	provider, err := openai.NewProvider(cfg.LLM.APIKey, cfg.LLM.BaseURL,
		openai.WithModel(cfg.LLM.Model),
		openai.WithTemperature(cfg.LLM.Temperature),
	)
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}

	b, err := browser.Launch(cfg.Browser)
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer b.Close()

	opts := []agent.Option{
		agent.WithProvider(provider),
		agent.WithExecutor(browser.NewExecutor(b, logger)),
		agent.WithConfig(cfg),
		agent.WithEventHandler(printEvent),
	}
	if !cli.NoInput {
		opts = append(opts, agent.WithResponder(approval.NewConsoleResponder(os.Stdin, os.Stdout)))
	}

	ag, err := agent.New(opts...)
	if err != nil {
		return err
	}

	if cli.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cli.Timeout)
		defer cancel()
	}

	var result *agent.Result
	if record != nil {
		result, err = ag.Resume(ctx, record, cli.Reply)
	} else {
		log.Printf("Starting task: %s", cli.Task)
		result, err = ag.Run(ctx, cli.Task)
	}
	if err != nil {
		return err
	}

	if result.Suspended != nil {
		id, saveErr := store.Save(cli.ResumeID, result.Suspended)
		if saveErr != nil {
			return fmt.Errorf("failed to persist suspended session: %w", saveErr)
		}
		fmt.Printf("\nRun suspended awaiting approval.\n%s\n", result.Suspended.Suspension.Question)
		fmt.Printf("\nResume with:\n  webpilot -resume %s -reply approve\n", id)
		return nil
	}

	if cli.ResumeID != "" {
		if delErr := store.Delete(cli.ResumeID); delErr != nil {
			logger.Warnf("failed to remove finished session %s: %v", cli.ResumeID, delErr)
		}
	}

	fmt.Printf("\nStatus:  %s\n", result.Status)
	if result.Reason != "" {
		fmt.Printf("Reason:  %s\n", result.Reason)
	}
	fmt.Printf("Steps:   %d\n", result.Steps)
	if result.Summary != "" {
		fmt.Printf("\n%s\n", result.Summary)
	}

	if result.Status != graph.StatusCompleted {
		return fmt.Errorf("task did not complete: %s", result.Reason)
	}
	return nil
}

func listSessions(store *session.Store) error {
	ids, err := store.List()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("No suspended sessions.")
		return nil
	}
	for _, id := range ids {
		record, loadErr := store.Load(id)
		if loadErr != nil {
			fmt.Printf("%s  (unreadable: %v)\n", id, loadErr)
			continue
		}
		fmt.Printf("%s  step %d  %s\n", id, record.State.Step, record.State.Task)
	}
	return nil
}

// printEvent renders loop events for the terminal. Low-level events stay in
// the session log; only operator-relevant ones are printed.
func printEvent(ev *types.AgentEvent) {
	switch ev.Type {
	case types.EventTypeActionStart:
		fmt.Printf("  -> %s\n", ev.Content)
	case types.EventTypeActionResult:
		fmt.Printf("  [%d] %s\n", ev.Step, firstLine(ev.Content))
	case types.EventTypeProgressReport:
		fmt.Printf("\n%s\n", ev.Content)
	case types.EventTypeApprovalRequest:
		fmt.Printf("\nApproval required:\n%s\n", ev.Content)
	case types.EventTypeCompaction:
		fmt.Printf("  (condensed earlier history)\n")
	case types.EventTypeTerminal:
		// Final status is printed by the caller.
	case types.EventTypeError:
		fmt.Printf("  error: %v\n", ev.Err)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	return s
}
