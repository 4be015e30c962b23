package templates

import (
	"html/template"
	"time"

	"git.gdb.dev/gdb/board/src/boardurl"
	"git.gdb.dev/gdb/board/src/commenttree"
	"git.gdb.dev/gdb/board/src/models"
	"git.gdb.dev/gdb/board/src/parsing"
	"git.gdb.dev/gdb/board/src/timefmt"
)

const (
	ReplyLabel       = "답글"
	CancelReplyLabel = "취소"
)

// PostToTemplate fills in everything but Content, which only the detail page
// renders. See AddContent.
func PostToTemplate(p models.Post, now time.Time) Post {
	return Post{
		ID:      p.ID,
		Title:   p.Title,
		Preview: parsing.ListingPreview(p.Content),

		CreatedAt:    p.CreatedAt,
		RelativeTime: timefmt.Relative(now, p.CreatedAt),
		Tooltip:      timefmt.Tooltip(p.CreatedAt.In(now.Location())),

		Url: boardurl.BuildPostDetail(p.ID),
	}
}

func (p *Post) AddContent(content string) {
	p.Content = template.HTML(parsing.ParseMarkdown(content, parsing.PostMarkdown))
}

// CommentState is the reply/delete state of the detail page a row is
// rendered into.
type CommentState struct {
	PostID        string
	ReplyTarget   string
	DeleteOpenFor string
}

func CommentRowToTemplate(row commenttree.Row, state CommentState) CommentRow {
	c := row.Comment
	isTarget := state.ReplyTarget == c.ID

	res := CommentRow{
		ID:      c.ID,
		Content: parsing.LinkifyComment(c.Content),

		IndentPx:     row.Indent,
		Elbow:        row.Elbow,
		ReplyPreview: row.ReplyPreview,
		RelativeTime: row.RelativeTime,
		Tooltip:      row.Tooltip,
		CreatedAt:    c.CreatedAt,

		ReplyLabel: ReplyLabel,
		ReplyUrl: boardurl.BuildPostDetailWithQuery(state.PostID, boardurl.DetailQuery{
			Reply:    state.ReplyTarget,
			Activate: c.ID,
		}),
		IsTarget: isTarget,

		DeleteUrl: boardurl.BuildPostDetailWithQuery(state.PostID, boardurl.DetailQuery{
			Reply:  state.ReplyTarget,
			Delete: c.ID,
		}),
		DeleteActionUrl: boardurl.BuildCommentDelete(state.PostID, c.ID),
		DeleteFormOpen:  state.DeleteOpenFor == c.ID,
		CancelDeleteUrl: boardurl.BuildPostDetailWithQuery(state.PostID, boardurl.DetailQuery{
			Reply: state.ReplyTarget,
		}),
	}
	if isTarget {
		res.ReplyLabel = CancelReplyLabel
	}
	return res
}

func CommentTreeToTemplate(tree commenttree.Tree, state CommentState) []CommentRow {
	rows := make([]CommentRow, len(tree.Rows))
	for i, row := range tree.Rows {
		rows[i] = CommentRowToTemplate(row, state)
	}
	return rows
}
