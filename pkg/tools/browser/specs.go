package browser

import "github.com/entrhq/webpilot/pkg/tools"

// Describe lists the browser action surface. Names and descriptions are what
// the model sees; required arguments here are also what pre-execution
// validation enforces.
func (e *Executor) Describe() []tools.ActionSpec {
	str := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}

	return []tools.ActionSpec{
		{
			Name:        "navigate",
			Description: "Navigate the active tab to a URL.",
			Parameters: tools.ObjectSchema(map[string]any{
				"url": str("Absolute URL to open, including the scheme."),
			}, []string{"url"}),
		},
		{
			Name:        "back",
			Description: "Go back one entry in the active tab's history.",
			Parameters:  tools.ObjectSchema(map[string]any{}, nil),
		},
		{
			Name:        "click",
			Description: "Click the first element matching a CSS selector.",
			Parameters: tools.ObjectSchema(map[string]any{
				"selector": str("CSS selector of the element to click."),
			}, []string{"selector"}),
		},
		{
			Name:        "fill",
			Description: "Fill an input or textarea with text, optionally pressing Enter afterwards.",
			Parameters: tools.ObjectSchema(map[string]any{
				"selector":    str("CSS selector of the input to fill."),
				"value":       str("Text to enter."),
				"press_enter": map[string]any{"type": "boolean", "description": "Press Enter after filling."},
			}, []string{"selector", "value"}),
		},
		{
			Name:        "submit_form",
			Description: "Click a submit control and wait for the resulting page load. Use only when the task genuinely requires submitting.",
			Parameters: tools.ObjectSchema(map[string]any{
				"selector": str("CSS selector of the submit button or control."),
			}, []string{"selector"}),
		},
		{
			Name:        "extract_title",
			Description: "Return the active tab's page title.",
			Parameters:  tools.ObjectSchema(map[string]any{}, nil),
		},
		{
			Name:        "extract_content",
			Description: "Return a cleaned snapshot of the page (or of one element), with scripts and styling removed and selector-relevant attributes kept.",
			Parameters: tools.ObjectSchema(map[string]any{
				"selector": str("Optional CSS selector to snapshot a single element instead of the whole page."),
			}, nil),
		},
		{
			Name:        "wait",
			Description: "Pause for a number of seconds, for slow pages or rate limits.",
			Parameters: tools.ObjectSchema(map[string]any{
				"seconds": map[string]any{"type": "integer", "description": "Seconds to wait, capped at 30."},
			}, nil),
		},
		{
			Name:        "scroll",
			Description: "Scroll the active tab up or down by one viewport-sized step.",
			Parameters: tools.ObjectSchema(map[string]any{
				"direction": map[string]any{"type": "string", "enum": []string{"up", "down"}},
			}, nil),
		},
		{
			Name:        "open_tab",
			Description: "Open a new tab, optionally navigating it to a URL, and make it active.",
			Parameters: tools.ObjectSchema(map[string]any{
				"url": str("Optional URL to open in the new tab."),
			}, nil),
		},
		{
			Name:        "switch_tab",
			Description: "Switch the active tab by index, as shown by list_tabs.",
			Parameters: tools.ObjectSchema(map[string]any{
				"index": map[string]any{"type": "integer", "description": "Zero-based tab index."},
			}, []string{"index"}),
		},
		{
			Name:        "list_tabs",
			Description: "List open tabs with their indexes and URLs.",
			Parameters:  tools.ObjectSchema(map[string]any{}, nil),
		},
	}
}
