package commenttree

import (
	"fmt"
	"time"

	"git.gdb.dev/gdb/board/src/models"
	"git.gdb.dev/gdb/board/src/timefmt"
	"git.gdb.dev/gdb/board/src/utils"
)

// IndentUnit is the indentation per depth level: pixels on the website,
// columns (scaled down) in the terminal.
const IndentUnit = 25

// Reply previews longer than this many characters are cut and get an ellipsis.
const ReplyPreviewLength = 16

type Row struct {
	Comment models.Comment

	Indent int
	// Elbow marks a reply, drawn as a corner connector before the content.
	Elbow        bool
	ReplyPreview string
	RelativeTime string
	Tooltip      string
}

type Tree struct {
	Rows     []Row
	Warnings []DepthWarning
}

type DepthWarning struct {
	CommentID string
	Depth     int
	Expected  int
	Reason    string
}

func (w DepthWarning) String() string {
	return fmt.Sprintf("comment %s has depth %d, expected %d: %s", w.CommentID, w.Depth, w.Expected, w.Reason)
}

// Build turns the server's thread-ordered comments into display rows. Order
// and depth are kept exactly as given; inconsistencies only produce warnings.
func Build(now time.Time, comments []models.Comment) Tree {
	tree := Tree{
		Rows:     make([]Row, 0, len(comments)),
		Warnings: CheckDepths(comments),
	}

	for _, c := range comments {
		row := Row{
			Comment:      c,
			Indent:       utils.IntMax(c.Depth, 0) * IndentUnit,
			Elbow:        c.Reply,
			RelativeTime: timefmt.Relative(now, c.CreatedAt),
			Tooltip:      timefmt.Tooltip(c.CreatedAt.In(now.Location())),
		}
		if c.Reply && c.ReplyTo != "" {
			row.ReplyPreview = Preview(c.ReplyTo, ReplyPreviewLength)
		}
		tree.Rows = append(tree.Rows, row)
	}

	return tree
}

func Preview(s string, n int) string {
	cut, truncated := utils.Truncate(s, n)
	if truncated {
		return cut + "…"
	}
	return cut
}

// CheckDepths verifies that top-level comments sit at depth 0 and that each
// reply sits one level below a parent appearing earlier in the sequence.
func CheckDepths(comments []models.Comment) []DepthWarning {
	var warnings []DepthWarning
	seen := make(map[string]int, len(comments))

	for _, c := range comments {
		if !c.Reply {
			if c.Depth != 0 {
				warnings = append(warnings, DepthWarning{
					CommentID: c.ID,
					Depth:     c.Depth,
					Expected:  0,
					Reason:    "top-level comment is not at depth 0",
				})
			}
		} else if c.ParentID == nil {
			warnings = append(warnings, DepthWarning{
				CommentID: c.ID,
				Depth:     c.Depth,
				Expected:  -1,
				Reason:    "reply has no parent id",
			})
		} else if parentDepth, ok := seen[*c.ParentID]; !ok {
			warnings = append(warnings, DepthWarning{
				CommentID: c.ID,
				Depth:     c.Depth,
				Expected:  -1,
				Reason:    fmt.Sprintf("parent %s does not appear before this reply", *c.ParentID),
			})
		} else if c.Depth != parentDepth+1 {
			warnings = append(warnings, DepthWarning{
				CommentID: c.ID,
				Depth:     c.Depth,
				Expected:  parentDepth + 1,
				Reason:    "reply is not one level below its parent",
			})
		}

		seen[c.ID] = c.Depth
	}

	return warnings
}
