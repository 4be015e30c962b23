package parsing

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/util"

	"git.gdb.dev/gdb/board/src/utils"
)

// ListingPreviewLength is how much of a post body the listing shows.
const ListingPreviewLength = 30

// Used for generating the HTML of a post body on the detail page.
var PostMarkdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlightExtension,
	),
)

// Used for showing post bodies in the terminal.
var PlaintextMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRenderer(plaintextRenderer{}),
)

func ParseMarkdown(source string, md goldmark.Markdown) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		panic(err)
	}

	return buf.String()
}

// ListingPreview is the start of a post body as written, cut to
// ListingPreviewLength characters with "..." when it was longer. Markup is
// left alone; runs of whitespace show as one space, as they do in a browser.
func ListingPreview(content string) string {
	flat := strings.Join(strings.Fields(content), " ")
	cut, truncated := utils.Truncate(flat, ListingPreviewLength)
	if truncated {
		return cut + "..."
	}
	return cut
}

var highlightExtension = highlighting.NewHighlighting(
	highlighting.WithFormatOptions(BoardChromaOptions...),
	highlighting.WithWrapperRenderer(func(w util.BufWriter, context highlighting.CodeBlockContext, entering bool) {
		if entering {
			w.WriteString(`<pre class="board-code">`)
		} else {
			w.WriteString(`</pre>`)
		}
	}),
)
