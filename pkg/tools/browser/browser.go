// Package browser is the Playwright-backed action executor: it owns the
// browser lifecycle and translates loop actions (navigate, click, fill,
// extract, tabs) into page operations. Page snapshots are cleaned before
// they reach the model so selectors stay visible without script noise.
package browser

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/webpilot/pkg/config"
)

const (
	defaultViewportWidth  = 1280
	defaultViewportHeight = 800
)

// Browser owns one Playwright instance with a single browser context and a
// set of tabs. The active tab receives all page actions.
type Browser struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	tabs    []playwright.Page
	active  int
	timeout time.Duration
}

// Launch installs the Playwright driver if needed and starts a Chromium
// browser with one blank tab.
func Launch(cfg config.BrowserConfig) (*Browser, error) {
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	chromium, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	context, err := chromium.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: defaultViewportWidth, Height: defaultViewportHeight},
	})
	if err != nil {
		chromium.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		chromium.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	page.SetDefaultTimeout(float64(timeout.Milliseconds()))

	return &Browser{
		pw:      pw,
		browser: chromium,
		context: context,
		tabs:    []playwright.Page{page},
		timeout: timeout,
	}, nil
}

// Page returns the active tab.
func (b *Browser) Page() playwright.Page {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tabs[b.active]
}

// NewTab opens a tab and makes it active.
func (b *Browser) NewTab() (playwright.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	page, err := b.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}
	page.SetDefaultTimeout(float64(b.timeout.Milliseconds()))
	b.tabs = append(b.tabs, page)
	b.active = len(b.tabs) - 1
	return page, nil
}

// SwitchTab activates the tab at index (zero-based).
func (b *Browser) SwitchTab(index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index < 0 || index >= len(b.tabs) {
		return fmt.Errorf("no tab with index %d (have %d tabs)", index, len(b.tabs))
	}
	b.active = index
	return nil
}

// Tabs lists the open tabs as "index: url" lines, marking the active one.
func (b *Browser) Tabs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, len(b.tabs))
	for i, page := range b.tabs {
		marker := " "
		if i == b.active {
			marker = "*"
		}
		out[i] = fmt.Sprintf("%s %d: %s", marker, i, page.URL())
	}
	return out
}

// Timeout is the default operation timeout.
func (b *Browser) Timeout() time.Duration { return b.timeout }

// Close tears down the context, the browser, and the Playwright driver.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, page := range b.tabs {
		page.Close()
	}
	b.tabs = nil
	if b.context != nil {
		b.context.Close()
	}
	if b.browser != nil {
		b.browser.Close()
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
	}
	return nil
}
