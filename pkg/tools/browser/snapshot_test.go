package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Product Catalog</title>
  <meta name="description" content="All products at a glance">
  <style>body { color: red; }</style>
  <script>console.log("tracking");</script>
</head>
<body>
  <nav class="top-nav"><a href="/home">Home</a></nav>
  <main>
    <h1 id="heading">Laptops</h1>
    <p>Prices updated daily.</p>
    <form action="/search" method="get">
      <input type="text" name="q" placeholder="Search products" onclick="track()">
      <button type="submit">Search</button>
    </form>
    <img src="/laptop.png" alt="A laptop" width="300">
  </main>
  <!-- rendered by backend -->
  <noscript>Enable JavaScript</noscript>
</body>
</html>`

func TestSnapshotHTML(t *testing.T) {
	snap, err := snapshotHTML(samplePage, 10000)
	require.NoError(t, err)

	assert.Equal(t, "Product Catalog", snap.Title)
	assert.Equal(t, "All products at a glance", snap.Description)
	assert.False(t, snap.Truncated)

	// Noise is gone.
	assert.NotContains(t, snap.Content, "console.log")
	assert.NotContains(t, snap.Content, "color: red")
	assert.NotContains(t, snap.Content, "Enable JavaScript")
	assert.NotContains(t, snap.Content, "rendered by backend")

	// Structure and targeting attributes survive.
	assert.Contains(t, snap.Content, `<h1 id="heading">`)
	assert.Contains(t, snap.Content, `<a href="/home">`)
	assert.Contains(t, snap.Content, `<form action="/search" method="get">`)
	assert.Contains(t, snap.Content, `name="q"`)
	assert.Contains(t, snap.Content, `placeholder="Search products"`)
	assert.Contains(t, snap.Content, `<img src="/laptop.png" alt="A laptop">`)
	assert.Contains(t, snap.Content, "Prices updated daily.")

	// Event handlers and layout attributes are dropped.
	assert.NotContains(t, snap.Content, "onclick")
	assert.NotContains(t, snap.Content, `width="300"`)
}

func TestSnapshotHTMLTruncation(t *testing.T) {
	long := "<html><body><p>" + strings.Repeat("content ", 500) + "</p></body></html>"

	snap, err := snapshotHTML(long, 200)
	require.NoError(t, err)
	assert.True(t, snap.Truncated)
	assert.Contains(t, snap.Content, "...")
	// Cap applies to text content, not markup overhead.
	assert.Less(t, len(snap.Content), 400)
}

func TestSnapshotHTMLKeepsDataAttributes(t *testing.T) {
	page := `<html><body><div data-testid="price" style="margin:0">$49</div></body></html>`

	snap, err := snapshotHTML(page, 10000)
	require.NoError(t, err)
	assert.Contains(t, snap.Content, `data-testid="price"`)
	assert.NotContains(t, snap.Content, "style=")
	assert.Contains(t, snap.Content, "$49")
}

func TestSnapshotHTMLEmptyDocument(t *testing.T) {
	snap, err := snapshotHTML("", 1000)
	require.NoError(t, err)
	assert.Empty(t, snap.Title)
	assert.False(t, snap.Truncated)
}
