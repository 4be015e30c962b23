package devserver

import (
	"context"
	"errors"
	"time"

	"git.gdb.dev/gdb/board/src/models"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPasswordMismatch = errors.New("password mismatch")
)

// Verifier checks a submitted password against the stored hash, returning
// ErrPasswordMismatch when they differ. Stores call it while holding whatever
// lock or transaction guards the delete.
type Verifier func(storedHash string) error

type NewPost struct {
	ID           string
	Title        string
	Content      string
	PasswordHash string
	CreatedAt    time.Time
}

// NewComment is a top-level comment when ParentID is empty, otherwise a reply
// to the comment ParentID. Replies take their post and depth from the parent.
type NewComment struct {
	ID           string
	PostID       string
	ParentID     string
	Content      string
	PasswordHash string
	ReplyTo      string
	CreatedAt    time.Time
}

// Store persists posts and comments. ListComments returns a post's comments in
// thread order: every comment is followed by its replies, and siblings are
// ordered by creation time. Top-level comments carry the post id as ParentID.
type Store interface {
	ListPosts(ctx context.Context, offset, limit int) (posts []models.Post, total int, err error)
	GetPost(ctx context.Context, id string) (models.Post, error)
	CreatePost(ctx context.Context, post NewPost) (models.Post, error)
	DeletePost(ctx context.Context, id string, verify Verifier) error

	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
	CreateComment(ctx context.Context, comment NewComment) (models.Comment, error)
	// Deleting a comment deletes all of its replies.
	DeleteComment(ctx context.Context, id string, verify Verifier) error
}
