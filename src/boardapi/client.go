package boardapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"git.gdb.dev/gdb/board/src/logging"
	"git.gdb.dev/gdb/board/src/models"
	"git.gdb.dev/gdb/board/src/oops"
	"git.gdb.dev/gdb/board/src/perf"
)

const (
	UserAgent       = "gdb-board/1.0"
	RequestIDHeader = "X-Request-Id"

	maxResponseBytes = 10 * 1024 * 1024
)

// Client talks to the board's GraphQL endpoint. It is safe for concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName,omitempty"`
}

type Response struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []ResponseError `json:"errors,omitempty"`
}

type ResponseError struct {
	Message string `json:"message"`
}

type requestIDKey struct{}

// WithRequestID tags outgoing requests made with ctx, so the backend's logs
// can be matched to ours.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// do runs op and decodes the value of its root field into out.
func (c *Client) do(ctx context.Context, op Operation, vars map[string]any, out any) error {
	b := perf.ExtractPerf(ctx).StartBlock("API", op.Field)
	defer b.End()

	body, err := json.Marshal(Request{
		Query:         op.Document,
		Variables:     vars,
		OperationName: op.Name,
	})
	if err != nil {
		return oops.New(err, "failed to encode %s request", op.Field)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return oops.New(&TransportError{Operation: op.Field, Err: err}, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	logger := logging.ExtractLogger(ctx)
	logger.Debug().Str("operation", op.Name).Msg("calling board API")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return oops.New(&TransportError{Operation: op.Field, Err: err}, "board API unreachable")
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return oops.New(&TransportError{Operation: op.Field, Err: err}, "failed to read board API response")
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		// GraphQL servers often still describe the failure in the body.
		var gqlRes Response
		if json.Unmarshal(resBody, &gqlRes) == nil && len(gqlRes.Errors) > 0 {
			return oops.New(&ServerValidationError{Operation: op.Field, Messages: messages(gqlRes.Errors)}, "board API rejected %s", op.Field)
		}
		logger.Warn().
			Str("operation", op.Name).
			Int("status", res.StatusCode).
			Str("body", string(resBody)).
			Msg("board API returned an error status")
		return oops.New(&TransportError{Operation: op.Field, StatusCode: res.StatusCode}, "board API request failed")
	}

	var gqlRes Response
	if err := json.Unmarshal(resBody, &gqlRes); err != nil {
		return oops.New(&TransportError{Operation: op.Field, Err: err}, "failed to decode board API response")
	}
	if len(gqlRes.Errors) > 0 {
		return oops.New(&ServerValidationError{Operation: op.Field, Messages: messages(gqlRes.Errors)}, "board API rejected %s", op.Field)
	}

	var data map[string]json.RawMessage
	if len(gqlRes.Data) == 0 || json.Unmarshal(gqlRes.Data, &data) != nil {
		return oops.New(&TransportError{Operation: op.Field, Err: fmt.Errorf("response has no data")}, "malformed board API response")
	}
	field, ok := data[op.Field]
	if !ok {
		return oops.New(&TransportError{Operation: op.Field, Err: fmt.Errorf("response has no %s field", op.Field)}, "malformed board API response")
	}
	if out == nil {
		return nil
	}
	if bytes.Equal(bytes.TrimSpace(field), []byte("null")) {
		return oops.New(ErrNotFound, "%s returned null", op.Field)
	}
	if err := json.Unmarshal(field, out); err != nil {
		return oops.New(&TransportError{Operation: op.Field, Err: err}, "failed to decode %s", op.Field)
	}
	return nil
}

func messages(errs []ResponseError) []string {
	result := make([]string, len(errs))
	for i, e := range errs {
		result[i] = e.Message
	}
	return result
}

// Timestamp accepts the shapes GraphQL servers commonly use for dates: an
// RFC 3339 string, or epoch milliseconds as a number or numeric string.
type Timestamp time.Time

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = Timestamp(time.Time{})
		return nil
	}

	var s string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*t = Timestamp(time.UnixMilli(ms))
		return nil
	}
	if ms, err := strconv.ParseFloat(s, 64); err == nil {
		*t = Timestamp(time.UnixMilli(int64(ms)))
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("unrecognized timestamp %q", s)
	}
	*t = Timestamp(parsed)
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(time.RFC3339Nano))
}

type PostJSON struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"createdAt"`
}

func (p PostJSON) Model() models.Post {
	return models.Post{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		CreatedAt: time.Time(p.CreatedAt),
	}
}

type PostPageJSON struct {
	Posts      []PostJSON `json:"posts"`
	TotalCount int        `json:"totalCount"`
}

type CommentJSON struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"createdAt"`
	Reply     bool      `json:"reply"`
	ParentID  *string   `json:"parentId"`
	Depth     int       `json:"depth"`
	ReplyTo   *string   `json:"replyTo"`
}

func (c CommentJSON) Model() models.Comment {
	m := models.Comment{
		ID:        c.ID,
		Content:   c.Content,
		CreatedAt: time.Time(c.CreatedAt),
		Reply:     c.Reply,
		ParentID:  c.ParentID,
		Depth:     c.Depth,
	}
	if c.ReplyTo != nil {
		m.ReplyTo = *c.ReplyTo
	}
	return m
}

func (c *Client) ListPosts(ctx context.Context, page, limit int) (models.PostPage, error) {
	var res PostPageJSON
	err := c.do(ctx, OpGetBoardPosts, map[string]any{
		"page":  page,
		"limit": limit,
	}, &res)
	if err != nil {
		return models.PostPage{}, err
	}

	result := models.PostPage{
		Posts:      make([]models.Post, len(res.Posts)),
		TotalCount: res.TotalCount,
	}
	for i, p := range res.Posts {
		result.Posts[i] = p.Model()
	}
	return result, nil
}

func (c *Client) GetPost(ctx context.Context, id string) (models.Post, error) {
	var res PostJSON
	err := c.do(ctx, OpGetBoardPostById, map[string]any{"id": id}, &res)
	if err != nil {
		return models.Post{}, err
	}
	return res.Model(), nil
}

// CreatePost returns only the title and content; the service does not echo an id.
func (c *Client) CreatePost(ctx context.Context, title, content, password string) (models.Post, error) {
	var res PostJSON
	err := c.do(ctx, OpCreateBoardPost, map[string]any{
		"title":    title,
		"content":  content,
		"password": password,
	}, &res)
	if err != nil {
		return models.Post{}, err
	}
	return res.Model(), nil
}

func (c *Client) DeletePost(ctx context.Context, postID, password string) error {
	return c.doDelete(ctx, OpDeletePost, map[string]any{
		"postId":   postID,
		"password": password,
	})
}

func (c *Client) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	var res []CommentJSON
	err := c.do(ctx, OpGetComments, map[string]any{"postId": postID}, &res)
	if err != nil {
		return nil, err
	}

	comments := make([]models.Comment, len(res))
	for i, comment := range res {
		comments[i] = comment.Model()
	}
	return comments, nil
}

func (c *Client) CreateComment(ctx context.Context, postID, content, password string) (models.Comment, error) {
	var res CommentJSON
	err := c.do(ctx, OpAddCommentToPost, map[string]any{
		"postId":   postID,
		"content":  content,
		"password": password,
	}, &res)
	if err != nil {
		return models.Comment{}, err
	}
	return res.Model(), nil
}

func (c *Client) CreateReply(ctx context.Context, commentID, content, password, replyTo string) (models.Comment, error) {
	var res CommentJSON
	err := c.do(ctx, OpCreateReply, map[string]any{
		"commentId": commentID,
		"content":   content,
		"password":  password,
		"replyTo":   replyTo,
	}, &res)
	if err != nil {
		return models.Comment{}, err
	}
	return res.Model(), nil
}

func (c *Client) DeleteComment(ctx context.Context, commentID, password string) error {
	return c.doDelete(ctx, OpDeleteComment, map[string]any{
		"commentId": commentID,
		"password":  password,
	})
}

// Deletes report success as a boolean; false is a failure like any other.
func (c *Client) doDelete(ctx context.Context, op Operation, vars map[string]any) error {
	var ok bool
	if err := c.do(ctx, op, vars, &ok); err != nil {
		return err
	}
	if !ok {
		return oops.New(&ServerValidationError{Operation: op.Field, Messages: []string{op.Field + " returned false"}}, "board API rejected %s", op.Field)
	}
	return nil
}
