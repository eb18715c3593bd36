// Package markup converts the constrained markdown subset the reasoning model
// emits into display HTML. The passes run in a fixed order: headings and list
// items must be recognized before the generic newline conversion destroys the
// line anchors they match on.
package markup

import (
	"regexp"
	"strings"
)

var (
	fencedRe   = regexp.MustCompile("```([\\s\\S]*?)```")
	inlineRe   = regexp.MustCompile("`([^`]+)`")
	h3Re       = regexp.MustCompile(`(?im)^### (.*)$`)
	h2Re       = regexp.MustCompile(`(?im)^## (.*)$`)
	h1Re       = regexp.MustCompile(`(?im)^# (.*)$`)
	boldRe     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe   = regexp.MustCompile(`\*(.*?)\*`)
	listItemRe = regexp.MustCompile(`(?im)^\s*[-*+] (.*)$`)
	listWrapRe = regexp.MustCompile(`(?i)((<li>.*</li>\s*)+)`)
)

// Render runs the substitution passes over md and returns HTML.
func Render(md string) string {
	html := md
	html = fencedRe.ReplaceAllString(html, `<pre><code class="block whitespace-pre-wrap p-4 rounded-md bg-gray-800">$1</code></pre>`)
	html = inlineRe.ReplaceAllString(html, `<code class="bg-gray-700 rounded-sm px-1 py-0.5 text-sm font-mono">$1</code>`)
	html = h3Re.ReplaceAllString(html, `<h3 class="text-xl font-bold mt-4 mb-2">$1</h3>`)
	html = h2Re.ReplaceAllString(html, `<h2 class="text-2xl font-bold mt-6 mb-3 border-b border-gray-600 pb-2">$1</h2>`)
	html = h1Re.ReplaceAllString(html, `<h1 class="text-3xl font-bold mt-8 mb-4 border-b-2 border-gray-500 pb-3">$1</h1>`)
	html = boldRe.ReplaceAllString(html, `<strong>$1</strong>`)
	html = italicRe.ReplaceAllString(html, `<em>$1</em>`)
	html = listItemRe.ReplaceAllString(html, `<li>$1</li>`)
	html = listWrapRe.ReplaceAllString(html, `<ul class="list-disc list-inside space-y-2 my-4 pl-4">$1</ul>`)
	html = strings.ReplaceAll(html, "\n", "<br>")
	html = strings.ReplaceAll(html, "<br><br>", "<p></p>")
	return html
}
