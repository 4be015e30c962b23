package parsing

import (
	"html"
	"html/template"
	"strings"

	"mvdan.cc/xurls/v2"
)

var urlRegex = xurls.Strict()

// LinkifyComment escapes plain comment text, turns URLs into links, and keeps
// line breaks. Comments are not markdown.
func LinkifyComment(text string) template.HTML {
	var b strings.Builder
	last := 0
	for _, loc := range urlRegex.FindAllStringIndex(text, -1) {
		b.WriteString(escapeLines(text[last:loc[0]]))
		url := text[loc[0]:loc[1]]
		b.WriteString(`<a href="`)
		b.WriteString(html.EscapeString(url))
		b.WriteString(`" rel="nofollow noopener" target="_blank">`)
		b.WriteString(html.EscapeString(url))
		b.WriteString(`</a>`)
		last = loc[1]
	}
	b.WriteString(escapeLines(text[last:]))
	return template.HTML(b.String())
}

// URLs finds every link in a comment, for front ends that can't render
// anchors.
func URLs(text string) []string {
	return urlRegex.FindAllString(text, -1)
}

func escapeLines(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br>\n")
}
