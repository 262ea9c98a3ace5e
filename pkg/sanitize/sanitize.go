// Package sanitize guards user-supplied content against markup
// injection. Rich-text fields are reduced to a fixed allow-list of
// tags before storage; everything rendered in a plain-text context
// goes through Escape.
package sanitize

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// richTextPolicy allows exactly the tags a product description may
// carry: paragraphs, line breaks, basic emphasis, headings, lists,
// links, blockquotes and code. Links keep their href only when the
// target scheme is inert, so javascript: targets are neutralized.
var richTextPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br",
		"strong", "em", "u",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li",
		"a", "blockquote", "code", "pre",
	)
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(true)
	return p
}()

// RichText strips every HTML element not on the description allow-list
// and drops script-executing link targets. Malformed markup is handled
// best-effort; disallowed tags are never passed through, and the
// function is idempotent.
func RichText(input string) string {
	return richTextPolicy.Sanitize(input)
}

// Escape encodes input for direct inclusion in an HTML text context
// (&, <, >, " and '). Callers escape exactly once per render.
func Escape(input string) string {
	return html.EscapeString(input)
}
