package display

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var lineBreakPattern = regexp.MustCompile(`(?i)<br\s*/?>`)

// linklessPolicy keeps the formatting the portal emits but drops anchors,
// leaving their text in place.
var linklessPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "i", "u", "em", "strong", "span", "div", "p", "br", "pre", "code", "hr", "font")
	p.AllowAttrs("class", "id").Globally()
	p.AllowAttrs("color").OnElements("font")
	return p
}()

var strictPolicy = bluemonday.StrictPolicy()

// UnwrapLinks removes <a> elements from game markup, keeping their contents.
func UnwrapLinks(markup string) string {
	if !strings.Contains(strings.ToLower(markup), "<a") {
		return markup
	}

	return linklessPolicy.Sanitize(markup)
}

// Plain renders game markup as terminal text: line breaks become newlines,
// every other tag is dropped and entities are decoded.
func Plain(markup string) string {
	if !strings.ContainsAny(markup, "<&") {
		return markup
	}

	text := lineBreakPattern.ReplaceAllString(markup, "\n")
	text = strictPolicy.Sanitize(text)
	return html.UnescapeString(text)
}
