package models

import "time"

type Post struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

// PostPage is one page of the board listing plus the total number of posts on
// the board, which the pager needs.
type PostPage struct {
	Posts      []Post
	TotalCount int
}
