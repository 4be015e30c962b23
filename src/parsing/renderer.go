package parsing

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/renderer"
)

// plaintextRenderer lays a post body out for the terminal. Blocks are
// separated by a blank line, list items get a bullet or number, code is
// indented, and link targets follow the link text.
type plaintextRenderer struct{}

var _ renderer.Renderer = plaintextRenderer{}

var escapedPunct = regexp.MustCompile("\\\\([!-/:-@\\[-`{-~])")

func (r plaintextRenderer) Render(w io.Writer, source []byte, root ast.Node) error {
	p := &plainWriter{source: source}
	if err := ast.Walk(root, p.walk); err != nil {
		return err
	}
	out := bytes.TrimRight(p.out.Bytes(), "\n ")
	if len(out) == 0 {
		return nil
	}
	_, err := w.Write(append(out, '\n'))
	return err
}

func (r plaintextRenderer) AddOptions(...renderer.Option) {}

type plainWriter struct {
	source []byte
	out    bytes.Buffer
}

// block starts a new block after a blank line.
func (p *plainWriter) block() {
	if p.out.Len() == 0 {
		return
	}
	p.line()
	if !bytes.HasSuffix(p.out.Bytes(), []byte("\n\n")) {
		p.out.WriteByte('\n')
	}
}

// line ends the current line, if one is open.
func (p *plainWriter) line() {
	p.out.Truncate(len(bytes.TrimRight(p.out.Bytes(), " ")))
	if p.out.Len() > 0 && !bytes.HasSuffix(p.out.Bytes(), []byte("\n")) {
		p.out.WriteByte('\n')
	}
}

func (p *plainWriter) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.Heading, *ast.Blockquote, *east.Table:
		if entering && !firstInItem(n) {
			p.block()
		}

	case *ast.List:
		if entering {
			if n.Parent() != nil && n.Parent().Kind() == ast.KindListItem {
				p.line()
			} else {
				p.block()
			}
		}

	case *ast.ListItem:
		if entering {
			p.line()
			p.out.WriteString(listMarker(n))
		}

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if !entering {
			return ast.WalkContinue, nil
		}
		p.block()
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			p.out.WriteString("    ")
			p.out.Write(seg.Value(p.source))
		}
		return ast.WalkSkipChildren, nil

	case *ast.ThematicBreak:
		if entering {
			p.block()
			p.out.WriteString("----")
		}

	case *ast.Text:
		if !entering {
			return ast.WalkContinue, nil
		}
		p.out.Write(escapedPunct.ReplaceAll(n.Segment.Value(p.source), []byte("$1")))
		if n.HardLineBreak() {
			p.out.WriteByte('\n')
		} else if n.SoftLineBreak() {
			p.out.WriteByte(' ')
		}

	case *ast.String:
		if entering {
			p.out.Write(n.Value)
		}

	case *ast.AutoLink:
		if entering {
			p.out.Write(n.URL(p.source))
		}
		return ast.WalkSkipChildren, nil

	case *ast.Link:
		if !entering {
			dest := string(n.Destination)
			if dest != "" && dest != string(n.Text(p.source)) {
				fmt.Fprintf(&p.out, " (%s)", dest)
			}
		}

	case *ast.Image:
		if entering {
			p.out.Write(n.Text(p.source))
		}
		return ast.WalkSkipChildren, nil

	case *east.TaskCheckBox:
		if entering {
			if n.IsChecked {
				p.out.WriteString("[x] ")
			} else {
				p.out.WriteString("[ ] ")
			}
		}

	case *east.TableRow, *east.TableHeader:
		if entering {
			p.line()
		}

	case *east.TableCell:
		if !entering && n.NextSibling() != nil {
			p.out.WriteString(" | ")
		}
	}
	return ast.WalkContinue, nil
}

func firstInItem(n ast.Node) bool {
	parent := n.Parent()
	return parent != nil && parent.Kind() == ast.KindListItem && n.PreviousSibling() == nil
}

func listMarker(item *ast.ListItem) string {
	depth := -1
	for a := item.Parent(); a != nil; a = a.Parent() {
		if a.Kind() == ast.KindList {
			depth++
		}
	}
	indent := strings.Repeat("  ", depth)

	list, ok := item.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return indent + "• "
	}
	index := 0
	for c := list.FirstChild(); c != nil && c != ast.Node(item); c = c.NextSibling() {
		index++
	}
	return fmt.Sprintf("%s%d. ", indent, list.Start+index)
}
