package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"git.gdb.dev/gdb/board/src/boardapi"
	"git.gdb.dev/gdb/board/src/logging"
	"git.gdb.dev/gdb/board/src/models"
	"github.com/google/uuid"
)

const maxRequestBytes = 1024 * 1024

var (
	errPostNotFound    = errors.New("post not found")
	errCommentNotFound = errors.New("comment not found")
)

// Server answers the board's fixed set of GraphQL operations from a Store. It
// does not parse GraphQL; it recognizes each document by its operation name,
// or failing that by the first root field in the query text.
type Server struct {
	Store Store

	// Called with the root field of every operation before it runs.
	OnOperation func(field string)

	now func() time.Time
}

func NewServer(store Store) *Server {
	return &Server{
		Store: store,
		now:   time.Now,
	}
}

var REFirstField = regexp.MustCompile(`^\s*(?:query|mutation)?\s*\w*\s*(?:\([^)]*\))?\s*\{\s*(\w+)`)

type resolver func(s *Server, ctx context.Context, vars variables) (any, error)

var resolvers = map[string]resolver{
	boardapi.OpGetBoardPosts.Field:    (*Server).getBoardPosts,
	boardapi.OpGetBoardPostById.Field: (*Server).getBoardPostById,
	boardapi.OpCreateBoardPost.Field:  (*Server).createBoardPost,
	boardapi.OpDeletePost.Field:       (*Server).deletePost,
	boardapi.OpGetComments.Field:      (*Server).getComments,
	boardapi.OpAddCommentToPost.Field: (*Server).addCommentToPost,
	boardapi.OpCreateReply.Field:      (*Server).createReply,
	boardapi.OpDeleteComment.Field:    (*Server).deleteComment,
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.GlobalLogger().With().
		Str("requestId", r.Header.Get(boardapi.RequestIDHeader)).
		Logger()
	ctx := logging.AttachLoggerToContext(&logger, r.Context())

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req boardapi.Request
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(&req); err != nil {
		logger.Warn().Err(err).Msg("malformed GraphQL request")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, errorResponse("malformed request body"))
		return
	}

	field := fieldForRequest(req)
	resolve, ok := resolvers[field]
	if !ok {
		logger.Warn().Str("operation", req.OperationName).Msg("unknown operation")
		w.Header().Set("Content-Type", "application/json")
		writeJSON(w, errorResponse(fmt.Sprintf("unknown operation %q", req.OperationName)))
		return
	}

	if s.OnOperation != nil {
		s.OnOperation(field)
	}

	start := time.Now()
	data, err := resolve(s, ctx, variables(req.Variables))
	logEvent := logger.Debug()
	if err != nil {
		logEvent = logger.Info().Err(err)
	}
	logEvent.
		Str("operation", field).
		Dur("duration", time.Since(start)).
		Msg("served operation")

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		writeJSON(w, errorResponse(publicMessage(ctx, err)))
		return
	}
	writeJSON(w, map[string]any{
		"data": map[string]any{field: data},
	})
}

func fieldForRequest(req boardapi.Request) string {
	if op, ok := boardapi.Operations[req.OperationName]; ok {
		return op.Field
	}
	if match := REFirstField.FindStringSubmatch(req.Query); match != nil {
		return match[1]
	}
	return ""
}

func errorResponse(msg string) map[string]any {
	return map[string]any{
		"errors": []boardapi.ResponseError{{Message: msg}},
		"data":   nil,
	}
}

// publicMessage is what clients see for err. Anything unexpected is logged
// and reported generically.
func publicMessage(ctx context.Context, err error) string {
	var ve *validationError
	switch {
	case errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, errPostNotFound),
		errors.Is(err, errCommentNotFound):
		return err.Error()
	case errors.As(err, &ve):
		return ve.Error()
	}
	logging.ExtractLogger(ctx).Error().Err(err).Msg("operation failed")
	return "internal server error"
}

func writeJSON(w io.Writer, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("failed to write GraphQL response")
	}
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

type variables map[string]any

func (v variables) String(name string) (string, error) {
	s, ok := v[name].(string)
	if !ok {
		return "", &validationError{msg: fmt.Sprintf("variable %s must be a string", name)}
	}
	return s, nil
}

func (v variables) RequiredString(name string) (string, error) {
	s, err := v.String(name)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", &validationError{msg: fmt.Sprintf("variable %s must not be empty", name)}
	}
	return s, nil
}

// Int accepts any JSON number, since the operations declare Float arguments.
func (v variables) Int(name string) (int, error) {
	f, ok := v[name].(float64)
	if !ok {
		return 0, &validationError{msg: fmt.Sprintf("variable %s must be a number", name)}
	}
	return int(f), nil
}

func (s *Server) getBoardPosts(ctx context.Context, vars variables) (any, error) {
	page, err := vars.Int("page")
	if err != nil {
		return nil, err
	}
	limit, err := vars.Int("limit")
	if err != nil {
		return nil, err
	}
	if page < 1 || limit < 1 {
		return nil, &validationError{msg: "page and limit must be at least 1"}
	}

	posts, total, err := s.Store.ListPosts(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	res := boardapi.PostPageJSON{
		Posts:      make([]boardapi.PostJSON, len(posts)),
		TotalCount: total,
	}
	for i, p := range posts {
		res.Posts[i] = postJSON(p)
	}
	return res, nil
}

// A missing post is a null result, not an error.
func (s *Server) getBoardPostById(ctx context.Context, vars variables) (any, error) {
	id, err := vars.String("id")
	if err != nil {
		return nil, err
	}
	post, err := s.Store.GetPost(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return postJSON(post), nil
}

func (s *Server) createBoardPost(ctx context.Context, vars variables) (any, error) {
	title, err := vars.RequiredString("title")
	if err != nil {
		return nil, err
	}
	content, err := vars.RequiredString("content")
	if err != nil {
		return nil, err
	}
	password, err := vars.RequiredString("password")
	if err != nil {
		return nil, err
	}

	hash := HashPassword(password)
	post, err := s.Store.CreatePost(ctx, NewPost{
		ID:           uuid.New().String(),
		Title:        title,
		Content:      content,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return nil, err
	}
	return postJSON(post), nil
}

func (s *Server) deletePost(ctx context.Context, vars variables) (any, error) {
	postID, err := vars.String("postId")
	if err != nil {
		return nil, err
	}
	password, err := vars.String("password")
	if err != nil {
		return nil, err
	}

	err = s.Store.DeletePost(ctx, postID, VerifyPassword(password))
	if errors.Is(err, ErrNotFound) {
		return nil, errPostNotFound
	} else if err != nil {
		return nil, err
	}
	return true, nil
}

func (s *Server) getComments(ctx context.Context, vars variables) (any, error) {
	postID, err := vars.String("postId")
	if err != nil {
		return nil, err
	}
	comments, err := s.Store.ListComments(ctx, postID)
	if err != nil {
		return nil, err
	}

	res := make([]boardapi.CommentJSON, len(comments))
	for i, c := range comments {
		res[i] = commentJSON(c)
	}
	return res, nil
}

func (s *Server) addCommentToPost(ctx context.Context, vars variables) (any, error) {
	postID, err := vars.String("postId")
	if err != nil {
		return nil, err
	}
	return s.createComment(ctx, vars, NewComment{PostID: postID}, errPostNotFound)
}

func (s *Server) createReply(ctx context.Context, vars variables) (any, error) {
	commentID, err := vars.String("commentId")
	if err != nil {
		return nil, err
	}
	replyTo, err := vars.String("replyTo")
	if err != nil {
		return nil, err
	}
	return s.createComment(ctx, vars, NewComment{ParentID: commentID, ReplyTo: replyTo}, errCommentNotFound)
}

func (s *Server) createComment(ctx context.Context, vars variables, comment NewComment, notFound error) (any, error) {
	content, err := vars.RequiredString("content")
	if err != nil {
		return nil, err
	}
	password, err := vars.RequiredString("password")
	if err != nil {
		return nil, err
	}

	hash := HashPassword(password)
	comment.ID = uuid.New().String()
	comment.Content = content
	comment.PasswordHash = hash
	comment.CreatedAt = s.now()

	created, err := s.Store.CreateComment(ctx, comment)
	if errors.Is(err, ErrNotFound) {
		return nil, notFound
	} else if err != nil {
		return nil, err
	}
	return commentJSON(created), nil
}

func (s *Server) deleteComment(ctx context.Context, vars variables) (any, error) {
	commentID, err := vars.String("commentId")
	if err != nil {
		return nil, err
	}
	password, err := vars.String("password")
	if err != nil {
		return nil, err
	}

	err = s.Store.DeleteComment(ctx, commentID, VerifyPassword(password))
	if errors.Is(err, ErrNotFound) {
		return nil, errCommentNotFound
	} else if err != nil {
		return nil, err
	}
	return true, nil
}

func postJSON(p models.Post) boardapi.PostJSON {
	return boardapi.PostJSON{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		CreatedAt: boardapi.Timestamp(p.CreatedAt),
	}
}

func commentJSON(c models.Comment) boardapi.CommentJSON {
	res := boardapi.CommentJSON{
		ID:        c.ID,
		Content:   c.Content,
		CreatedAt: boardapi.Timestamp(c.CreatedAt),
		Reply:     c.Reply,
		ParentID:  c.ParentID,
		Depth:     c.Depth,
	}
	if c.Reply {
		replyTo := c.ReplyTo
		res.ReplyTo = &replyTo
	}
	return res
}

// Handler mounts the server at /graphql, the path clients are configured
// with by default.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/graphql", s)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})
	return mux
}
