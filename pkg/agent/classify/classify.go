// Package classify buckets action failures into recovery categories by
// inspecting error text. The categories drive the self-correction node's
// recovery hints, so they favor actionable buckets over exhaustive ones.
package classify

import (
	"strings"

	"github.com/entrhq/webpilot/pkg/tools"
)

// Kind is a failure category.
type Kind string

const (
	KindNone            Kind = "none"
	KindNetwork         Kind = "network"
	KindElementNotFound Kind = "element_not_found"
	KindStaleRef        Kind = "stale_ref"
	KindAuth            Kind = "auth"
	KindRateLimit       Kind = "rate_limit"
	KindCaptcha         Kind = "captcha"
	KindUnknown         Kind = "unknown"
)

// rules are checked in order; the first matching bucket wins. More specific
// patterns sit above the generic ones they would otherwise shadow.
var rules = []struct {
	kind     Kind
	patterns []string
}{
	{KindCaptcha, []string{"captcha", "recaptcha", "challenge-form", "are you a robot", "unusual traffic"}},
	{KindRateLimit, []string{"rate limit", "too many requests", "429", "quota exceeded"}},
	{KindAuth, []string{"unauthorized", "forbidden", "401", "403", "login required", "authentication", "session expired"}},
	{KindStaleRef, []string{"stale", "detached", "no longer attached", "element is not attached"}},
	{KindElementNotFound, []string{"not found", "not visible", "no such element", "not clickable", "not interactable", "no element matches", "waiting for selector"}},
	{KindNetwork, []string{"timeout", "timed out", "network", "connection", "net::err", "dns", "refused", "unreachable", "502", "503", "504"}},
}

// Classify buckets a single error message. Empty input is KindNone; text
// matching no rule is KindUnknown.
func Classify(errText string) Kind {
	if strings.TrimSpace(errText) == "" {
		return KindNone
	}
	lower := strings.ToLower(errText)
	for _, rule := range rules {
		for _, pattern := range rule.patterns {
			if strings.Contains(lower, pattern) {
				return rule.kind
			}
		}
	}
	return KindUnknown
}

// Resolve prefers a structured category supplied by the execution backend
// and falls back to text classification for unstructured failures. A
// structured value outside the known vocabulary is ignored.
func Resolve(structured, errText string) Kind {
	switch Kind(structured) {
	case KindNetwork, KindElementNotFound, KindStaleRef, KindAuth, KindRateLimit, KindCaptcha, KindUnknown:
		return Kind(structured)
	}
	return Classify(errText)
}

// ResolveBatch buckets a batch of execution results, returning the first
// failure's category in batch order. An all-clean batch is KindNone.
func ResolveBatch(results []tools.Result) Kind {
	for _, res := range results {
		if !res.Failed() {
			continue
		}
		if kind := Resolve(res.Kind, res.Error); kind != KindNone {
			return kind
		}
	}
	return KindNone
}

// Hint returns recovery guidance for the category, injected into the
// conversation by the self-correction node.
func Hint(kind Kind) string {
	switch kind {
	case KindNetwork:
		return "The last action hit a network problem. Wait briefly and retry the same action, or reload the page if the failure persists."
	case KindElementNotFound:
		return "The target element was not found or not interactable. Re-extract the page content to refresh your view, then locate the element again or try an alternative selector."
	case KindStaleRef:
		return "The element reference went stale after a page change. Re-extract the page content and act on the fresh structure."
	case KindAuth:
		return "Access was denied. Check whether a login or session is required; if credentials are unavailable, report the blocker instead of retrying."
	case KindRateLimit:
		return "The site is rate limiting requests. Pause with a wait action before continuing, and slow the pace of actions."
	case KindCaptcha:
		return "A CAPTCHA or bot challenge is blocking progress. This cannot be solved automatically; try an alternative path or report the blocker."
	case KindUnknown:
		return "The last action failed for an unrecognized reason. Re-read the error, re-extract the page to verify assumptions, and adjust the approach."
	default:
		return ""
	}
}
