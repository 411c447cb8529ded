package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/webpilot/pkg/logging"
	"github.com/entrhq/webpilot/pkg/tools"
)

// defaultSnapshotLimit caps how much cleaned page content one extraction
// returns.
const defaultSnapshotLimit = 20000

// maxWaitSeconds bounds the wait action so the model cannot stall a run.
const maxWaitSeconds = 30

// Executor implements tools.Executor over a live Browser. Page operations
// are serialized internally; concurrent Execute calls are safe but browser
// actions do not actually overlap.
type Executor struct {
	browser *Browser
	logger  *logging.Logger
}

// NewExecutor wraps a launched browser.
func NewExecutor(b *Browser, logger *logging.Logger) *Executor {
	return &Executor{browser: b, logger: logger}
}

// Execute dispatches one action. Failures are returned inside the Result as
// text; the error strings deliberately keep the underlying driver message so
// downstream classification can bucket them.
func (e *Executor) Execute(ctx context.Context, action tools.Action) tools.Result {
	result := tools.Result{ActionID: action.ID, Name: action.Name}

	if err := ctx.Err(); err != nil {
		result.Error = err.Error()
		return result
	}

	e.logger.Debugf("executing %s %v", action.Name, action.Args)

	output, err := e.run(ctx, action)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Output = output
	return result
}

func (e *Executor) run(ctx context.Context, action tools.Action) (string, error) {
	switch action.Name {
	case "navigate":
		return e.navigate(action.Args)
	case "back":
		return e.back()
	case "click":
		return e.click(action.Args)
	case "fill":
		return e.fill(action.Args)
	case "submit_form":
		return e.submitForm(action.Args)
	case "extract_title":
		return e.extractTitle()
	case "extract_content":
		return e.extractContent(action.Args)
	case "wait":
		return e.wait(ctx, action.Args)
	case "scroll":
		return e.scroll(action.Args)
	case "open_tab":
		return e.openTab(action.Args)
	case "switch_tab":
		return e.switchTab(action.Args)
	case "list_tabs":
		return strings.Join(e.browser.Tabs(), "\n"), nil
	default:
		return "", fmt.Errorf("unknown action %q", action.Name)
	}
}

func (e *Executor) navigate(args map[string]any) (string, error) {
	url, err := stringArg(args, "url")
	if err != nil {
		return "", err
	}
	page := e.browser.Page()
	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return "", err
	}
	title, _ := page.Title()
	return fmt.Sprintf("Navigated to %s (title: %s)", page.URL(), title), nil
}

func (e *Executor) back() (string, error) {
	page := e.browser.Page()
	if _, err := page.GoBack(); err != nil {
		return "", err
	}
	return "Went back to " + page.URL(), nil
}

func (e *Executor) click(args map[string]any) (string, error) {
	selector, err := stringArg(args, "selector")
	if err != nil {
		return "", err
	}
	if err := e.browser.Page().Locator(selector).First().Click(); err != nil {
		return "", err
	}
	return "Clicked " + selector, nil
}

func (e *Executor) fill(args map[string]any) (string, error) {
	selector, err := stringArg(args, "selector")
	if err != nil {
		return "", err
	}
	value, err := stringArg(args, "value")
	if err != nil {
		return "", err
	}
	page := e.browser.Page()
	locator := page.Locator(selector).First()
	if err := locator.Fill(value); err != nil {
		return "", err
	}
	if boolArg(args, "press_enter") {
		if err := locator.Press("Enter"); err != nil {
			return "", err
		}
		return fmt.Sprintf("Filled %s and pressed Enter", selector), nil
	}
	return "Filled " + selector, nil
}

func (e *Executor) submitForm(args map[string]any) (string, error) {
	selector, err := stringArg(args, "selector")
	if err != nil {
		return "", err
	}
	page := e.browser.Page()
	if err := page.Locator(selector).First().Click(); err != nil {
		return "", err
	}
	// Submissions usually trigger navigation; settle before reporting.
	page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateDomcontentloaded,
	})
	return fmt.Sprintf("Submitted via %s, now at %s", selector, page.URL()), nil
}

func (e *Executor) extractTitle() (string, error) {
	title, err := e.browser.Page().Title()
	if err != nil {
		return "", err
	}
	return title, nil
}

func (e *Executor) extractContent(args map[string]any) (string, error) {
	page := e.browser.Page()

	raw := ""
	if selector, _ := optionalStringArg(args, "selector"); selector != "" {
		inner, err := page.Locator(selector).First().InnerHTML()
		if err != nil {
			return "", err
		}
		raw = inner
	} else {
		content, err := page.Content()
		if err != nil {
			return "", err
		}
		raw = content
	}

	snap, err := snapshotHTML(raw, defaultSnapshotLimit)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\n", page.URL())
	if snap.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", snap.Title)
	}
	if snap.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", snap.Description)
	}
	b.WriteString("\n")
	b.WriteString(snap.Content)
	if snap.Truncated {
		b.WriteString("\n[content truncated]")
	}
	return b.String(), nil
}

func (e *Executor) wait(ctx context.Context, args map[string]any) (string, error) {
	seconds := intArg(args, "seconds", 1)
	if seconds < 1 {
		seconds = 1
	}
	if seconds > maxWaitSeconds {
		seconds = maxWaitSeconds
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(time.Duration(seconds) * time.Second):
	}
	return fmt.Sprintf("Waited %d seconds", seconds), nil
}

func (e *Executor) scroll(args map[string]any) (string, error) {
	direction, _ := optionalStringArg(args, "direction")
	delta := 600.0
	if direction == "up" {
		delta = -600.0
	}
	if err := e.browser.Page().Mouse().Wheel(0, delta); err != nil {
		return "", err
	}
	if direction == "" {
		direction = "down"
	}
	return "Scrolled " + direction, nil
}

func (e *Executor) openTab(args map[string]any) (string, error) {
	page, err := e.browser.NewTab()
	if err != nil {
		return "", err
	}
	if url, _ := optionalStringArg(args, "url"); url != "" {
		if _, err := page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		}); err != nil {
			return "", err
		}
	}
	return "Opened tab " + page.URL(), nil
}

func (e *Executor) switchTab(args map[string]any) (string, error) {
	index := intArg(args, "index", -1)
	if err := e.browser.SwitchTab(index); err != nil {
		return "", err
	}
	return fmt.Sprintf("Switched to tab %d (%s)", index, e.browser.Page().URL()), nil
}

func stringArg(args map[string]any, key string) (string, error) {
	value, ok := args[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("argument %q is required", key)
	}
	return value, nil
}

func optionalStringArg(args map[string]any, key string) (string, bool) {
	value, ok := args[key].(string)
	return value, ok
}

func boolArg(args map[string]any, key string) bool {
	value, _ := args[key].(bool)
	return value
}

// intArg tolerates both JSON numbers (float64) and ints.
func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}
