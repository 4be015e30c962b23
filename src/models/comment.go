package models

import "time"

// Comment is one entry of a post's flat, thread-ordered comment list. Depth
// and order come from the server and are rendered as given.
type Comment struct {
	ID        string    `db:"id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`

	// Set when this comment answers another comment rather than the post.
	Reply bool `db:"reply"`
	// The comment or post this was attached to. Nil for top-level comments
	// when the server leaves it unset.
	ParentID *string `db:"parent_id"`
	Depth    int     `db:"depth"`
	// Snippet of the parent comment's content.
	ReplyTo string `db:"reply_to"`
}

func (c Comment) IsTopLevel() bool {
	return !c.Reply
}
