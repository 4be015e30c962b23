// Package gateway is the single path by which password-protected mutations
// reach the board API. Every create and delete goes through the same steps:
// check the required fields locally, send the password along with the
// operation, turn the outcome into a notice for the visitor, and refresh
// whatever the view shows afterwards.
package gateway

import (
	"context"
	"errors"

	"git.gdb.dev/gdb/board/src/boardapi"
	"git.gdb.dev/gdb/board/src/logging"
	"git.gdb.dev/gdb/board/src/models"
	"git.gdb.dev/gdb/board/src/oops"
	"github.com/go-playground/validator/v10"
)

const (
	MsgPasswordPrompt   = "비밀번호를 입력해주세요"
	MsgPasswordMissing  = "비밀번호가 입력되지 않았습니다."
	MsgPasswordMismatch = "비밀번호가 일치하지 않습니다."
	MsgDeleted          = "성공적으로 삭제되었습니다."

	MsgPostCreated      = "게시물이 성공적으로 작성되었습니다!"
	MsgPostCreateFailed = "게시물 작성에 실패했습니다. 다시 시도해주세요."
	MsgTitleMissing     = "제목을 입력해주세요."
	MsgContentMissing   = "내용을 입력해주세요."

	MsgCommentMissing      = "댓글 내용을 입력해주세요."
	MsgCommentCreateFailed = "댓글 작성에 실패했습니다. 다시 시도해주세요."

	MsgUnreachable = "서버에 연결할 수 없습니다. 잠시 후 다시 시도해주세요."
)

// API is the subset of the board client the gateway drives.
type API interface {
	CreatePost(ctx context.Context, title, content, password string) (models.Post, error)
	DeletePost(ctx context.Context, postID, password string) error
	CreateComment(ctx context.Context, postID, content, password string) (models.Comment, error)
	CreateReply(ctx context.Context, commentID, content, password, replyTo string) (models.Comment, error)
	DeleteComment(ctx context.Context, commentID, password string) error
}

var _ API = &boardapi.Client{}

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeFailure NoticeKind = "failure"
)

type Notice struct {
	Kind    NoticeKind
	Message string
}

func Success(msg string) Notice { return Notice{Kind: NoticeSuccess, Message: msg} }
func Failure(msg string) Notice { return Notice{Kind: NoticeFailure, Message: msg} }

// Result is what a view needs to react to a mutation.
type Result struct {
	Notice Notice
	// Set after a post is deleted; the view should go back to the listing.
	NavigateToListing bool
}

// PreconditionError is returned when a required field is empty. No request
// was sent.
type PreconditionError struct {
	Field  string
	Notice string
}

func (e *PreconditionError) Error() string {
	return "missing required field " + e.Field
}

func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// NoticeForError picks the message to show for a failed mutation. Precondition
// errors carry their own message; fallback covers server rejections.
func NoticeForError(err error, fallback string) Notice {
	var pe *PreconditionError
	if errors.As(err, &pe) {
		return Failure(pe.Notice)
	}
	if boardapi.IsTransport(err) {
		return Failure(MsgUnreachable)
	}
	return Failure(fallback)
}

// PasswordEncoder transforms the plaintext password just before it is sent.
type PasswordEncoder func(plain string) string

func PlaintextPassword(plain string) string { return plain }

// PasswordPrompt supplies the password for a delete. Views gather it with a
// form or modal, then hand it over with StaticPassword.
type PasswordPrompt func(ctx context.Context, message string) string

func StaticPassword(password string) PasswordPrompt {
	return func(context.Context, string) string { return password }
}

type PostDraft struct {
	Title    string `validate:"required"`
	Content  string `validate:"required"`
	Password string `validate:"required"`
}

type CommentDraft struct {
	Content  string `validate:"required"`
	Password string `validate:"required"`
}

type deleteRequest struct {
	Password string `validate:"required"`
}

var fieldNotices = map[string]string{
	"PostDraft.Title":        MsgTitleMissing,
	"PostDraft.Content":      MsgContentMissing,
	"PostDraft.Password":     MsgPasswordMissing,
	"CommentDraft.Content":   MsgCommentMissing,
	"CommentDraft.Password":  MsgPasswordMissing,
	"deleteRequest.Password": MsgPasswordMissing,
}

type Gateway struct {
	api      API
	encode   PasswordEncoder
	validate *validator.Validate
}

type Option func(g *Gateway)

func WithPasswordEncoder(enc PasswordEncoder) Option {
	return func(g *Gateway) {
		g.encode = enc
	}
}

func New(api API, opts ...Option) *Gateway {
	g := &Gateway{
		api:      api,
		encode:   PlaintextPassword,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check validates a draft without sending anything.
func (g *Gateway) Check(draft any) error {
	err := g.validate.Struct(draft)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return oops.New(err, "failed to validate draft")
	}
	first := verrs[0]
	notice, ok := fieldNotices[first.StructNamespace()]
	if !ok {
		notice = MsgContentMissing
	}
	return &PreconditionError{Field: first.Field(), Notice: notice}
}

func (g *Gateway) CreatePost(ctx context.Context, draft PostDraft) (Result, error) {
	if err := g.Check(draft); err != nil {
		return Result{Notice: NoticeForError(err, MsgPostCreateFailed)}, err
	}

	_, err := g.api.CreatePost(ctx, draft.Title, draft.Content, g.encode(draft.Password))
	if err != nil {
		logging.ExtractLogger(ctx).Error().Err(err).Msg("failed to create post")
		return Result{Notice: NoticeForError(err, MsgPostCreateFailed)}, err
	}
	return Result{Notice: Success(MsgPostCreated)}, nil
}

func (g *Gateway) DeletePost(ctx context.Context, postID string, prompt PasswordPrompt) (Result, error) {
	password := prompt(ctx, MsgPasswordPrompt)
	if err := g.Check(deleteRequest{Password: password}); err != nil {
		return Result{Notice: NoticeForError(err, MsgPasswordMismatch)}, err
	}

	err := g.api.DeletePost(ctx, postID, g.encode(password))
	if err != nil {
		logging.ExtractLogger(ctx).Warn().Err(err).Str("postId", postID).Msg("failed to delete post")
		return Result{Notice: NoticeForError(err, MsgPasswordMismatch)}, err
	}
	return Result{Notice: Success(MsgDeleted), NavigateToListing: true}, nil
}

func (g *Gateway) CreateComment(ctx context.Context, postID string, draft CommentDraft) (models.Comment, error) {
	if err := g.Check(draft); err != nil {
		return models.Comment{}, err
	}

	c, err := g.api.CreateComment(ctx, postID, draft.Content, g.encode(draft.Password))
	if err != nil {
		logging.ExtractLogger(ctx).Error().Err(err).Str("postId", postID).Msg("failed to create comment")
		return models.Comment{}, err
	}
	return c, nil
}

// CreateReply attaches a reply to parentID. replyTo is the parent's content,
// which the server stores as the reply's preview snippet.
func (g *Gateway) CreateReply(ctx context.Context, parentID, replyTo string, draft CommentDraft) (models.Comment, error) {
	if err := g.Check(draft); err != nil {
		return models.Comment{}, err
	}

	c, err := g.api.CreateReply(ctx, parentID, draft.Content, g.encode(draft.Password), replyTo)
	if err != nil {
		logging.ExtractLogger(ctx).Error().Err(err).Str("commentId", parentID).Msg("failed to create reply")
		return models.Comment{}, err
	}
	return c, nil
}

// DeleteComment deletes a comment and, on success, calls refresh exactly once.
// A failed refresh is logged but does not turn the delete into a failure.
func (g *Gateway) DeleteComment(ctx context.Context, commentID string, prompt PasswordPrompt, refresh func(ctx context.Context) error) (Result, error) {
	password := prompt(ctx, MsgPasswordPrompt)
	if err := g.Check(deleteRequest{Password: password}); err != nil {
		return Result{Notice: NoticeForError(err, MsgPasswordMismatch)}, err
	}

	err := g.api.DeleteComment(ctx, commentID, g.encode(password))
	if err != nil {
		logging.ExtractLogger(ctx).Warn().Err(err).Str("commentId", commentID).Msg("failed to delete comment")
		return Result{Notice: NoticeForError(err, MsgPasswordMismatch)}, err
	}

	if refresh != nil {
		if err := refresh(ctx); err != nil {
			logging.ExtractLogger(ctx).Error().Err(err).Msg("failed to refresh comments after delete")
		}
	}
	return Result{Notice: Success(MsgDeleted)}, nil
}
