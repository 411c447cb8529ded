package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Snapshot is a cleaned view of a page: scripts, styles, and embed noise
// stripped, interaction-relevant attributes kept so the model can build
// selectors from what it reads.
type Snapshot struct {
	Title       string
	Description string
	Content     string
	Truncated   bool
}

// snapshotHTML parses raw page HTML and renders the cleaned view, capped at
// limit bytes of content.
func snapshotHTML(raw string, limit int) (*Snapshot, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	snap := &Snapshot{
		Title:       findFirstText(doc, "title"),
		Description: findMetaDescription(doc),
	}

	w := &snapshotWriter{limit: limit}
	snap.Truncated = w.node(doc, 0)
	snap.Content = w.out.String()
	return snap, nil
}

// snapshotWriter renders cleaned HTML with indentation for block elements
// and a hard size cap. Methods return true once the cap is reached.
type snapshotWriter struct {
	out   strings.Builder
	size  int
	limit int
}

func (w *snapshotWriter) node(n *html.Node, depth int) bool {
	if w.size >= w.limit {
		return true
	}
	switch n.Type {
	case html.CommentNode:
		return false
	case html.TextNode:
		return w.text(n.Data)
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if droppedTags[tag] {
			return false
		}
		return w.element(n, tag, depth)
	default:
		return w.children(n, depth)
	}
}

func (w *snapshotWriter) text(data string) bool {
	text := strings.TrimSpace(data)
	if text == "" {
		return false
	}
	if w.size+len(text) > w.limit {
		text = text[:w.limit-w.size] + "..."
		w.out.WriteString(text)
		w.size = w.limit
		return true
	}
	w.out.WriteString(text)
	w.size += len(text)
	return false
}

func (w *snapshotWriter) element(n *html.Node, tag string, depth int) bool {
	if depth > 0 && blockTags[tag] {
		w.out.WriteString("\n")
		w.out.WriteString(strings.Repeat("  ", depth))
	}

	w.out.WriteString("<" + tag)
	for _, attr := range n.Attr {
		if keepAttribute(tag, attr.Key) {
			fmt.Fprintf(&w.out, ` %s=%q`, attr.Key, attr.Val)
		}
	}
	w.out.WriteString(">")
	w.size += len(tag) + 2

	truncated := w.children(n, depth+1)

	if !voidTags[tag] {
		if blockTags[tag] {
			w.out.WriteString("\n")
			w.out.WriteString(strings.Repeat("  ", depth))
		}
		w.out.WriteString("</" + tag + ">")
		w.size += len(tag) + 3
	}
	return truncated
}

func (w *snapshotWriter) children(n *html.Node, depth int) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if w.node(c, depth) {
			return true
		}
	}
	return false
}

var droppedTags = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"iframe": true, "embed": true, "object": true, "svg": true,
}

var blockTags = map[string]bool{
	"div": true, "p": true, "section": true, "article": true,
	"header": true, "footer": true, "nav": true, "main": true, "aside": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true,
	"table": true, "tr": true, "td": true, "th": true,
	"form": true, "fieldset": true, "blockquote": true, "pre": true,
}

var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

var keptGlobalAttrs = map[string]bool{
	"id": true, "class": true, "role": true,
	"aria-label": true, "aria-describedby": true,
}

// keepAttribute keeps ids, classes, aria hints, data-* hooks, and the
// per-tag attributes needed to target or understand an element.
func keepAttribute(tag, attr string) bool {
	attr = strings.ToLower(attr)
	if keptGlobalAttrs[attr] || strings.HasPrefix(attr, "data-") {
		return true
	}
	switch tag {
	case "a":
		return attr == "href" || attr == "target"
	case "img":
		return attr == "src" || attr == "alt"
	case "input", "textarea", "select":
		return attr == "name" || attr == "type" || attr == "placeholder" || attr == "value"
	case "button":
		return attr == "type" || attr == "name"
	case "form":
		return attr == "action" || attr == "method"
	}
	return false
}

func findFirstText(doc *html.Node, tag string) string {
	var found string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == tag {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				found = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

func findMetaDescription(doc *html.Node) string {
	var found string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "meta" {
			var isDescription bool
			var content string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "name":
					isDescription = attr.Val == "description"
				case "content":
					content = attr.Val
				}
			}
			if isDescription {
				found = strings.TrimSpace(content)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}
