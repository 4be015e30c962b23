package website

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"git.gdb.dev/gdb/board/src/boardapi"
	"git.gdb.dev/gdb/board/src/boardurl"
	"git.gdb.dev/gdb/board/src/gateway"
	"git.gdb.dev/gdb/board/src/models"
	"git.gdb.dev/gdb/board/src/templates"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	templates.Init()
	os.Exit(m.Run())
}

func TestLogContextErrors(t *testing.T) {
	err1 := errors.New("test error 1")
	err2 := errors.New("test error 2")

	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	logger.Print("sanity check")

	assert.Contains(t, buf.String(), "sanity check")

	router := &Router{}
	routes := RouteBuilder{
		Router: router,
		Middlewares: []Middleware{
			func(h Handler) Handler {
				return func(c *RequestContext) ResponseData {
					c.Logger = &logger
					return h(c)
				}
			},
			logContextErrorsMiddleware,
		},
	}

	routes.GET(regexp.MustCompile("^/test$"), func(c *RequestContext) ResponseData {
		return c.ErrorResponse(http.StatusInternalServerError, err1, err2)
	})

	srv := httptest.NewServer(router)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/test")
	if assert.Nil(t, err) {
		defer res.Body.Close()

		t.Logf("Log contents: %s", buf.String())

		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)

		assert.Contains(t, buf.String(), err1.Error())
		assert.Contains(t, buf.String(), err2.Error())
	}
}

var errMismatch = &boardapi.ServerValidationError{Messages: []string{"password mismatch"}}

// fakeBoard is an in-memory board service. Comments are kept per post in
// thread order.
type fakeBoard struct {
	mu        sync.Mutex
	posts     []models.Post
	comments  map[string][]models.Comment
	passwords map[string]string
	nextID    int

	listErr     error
	commentsErr error
	calls       []string
}

func newFakeBoard() *fakeBoard {
	return &fakeBoard{
		comments:  map[string][]models.Comment{},
		passwords: map[string]string{},
	}
}

func (f *fakeBoard) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

func (f *fakeBoard) addPost(title, content, password string, createdAt time.Time) models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := models.Post{ID: f.id("p"), Title: title, Content: content, CreatedAt: createdAt}
	f.posts = append(f.posts, p)
	f.passwords[p.ID] = password
	return p
}

func (f *fakeBoard) addComment(postID string, c models.Comment, password string) models.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == "" {
		c.ID = f.id("c")
	}
	f.comments[postID] = append(f.comments[postID], c)
	f.passwords[c.ID] = password
	return c
}

func (f *fakeBoard) record(op string) {
	f.calls = append(f.calls, op)
}

func (f *fakeBoard) ListPosts(ctx context.Context, page, limit int) (models.PostPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("listPosts")
	if f.listErr != nil {
		return models.PostPage{}, f.listErr
	}
	start := (page - 1) * limit
	end := start + limit
	var posts []models.Post
	if start < len(f.posts) {
		if end > len(f.posts) {
			end = len(f.posts)
		}
		posts = append(posts, f.posts[start:end]...)
	}
	return models.PostPage{Posts: posts, TotalCount: len(f.posts)}, nil
}

func (f *fakeBoard) GetPost(ctx context.Context, id string) (models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("getPost")
	for _, p := range f.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Post{}, boardapi.ErrNotFound
}

func (f *fakeBoard) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("listComments")
	if f.commentsErr != nil {
		return nil, f.commentsErr
	}
	return append([]models.Comment(nil), f.comments[postID]...), nil
}

func (f *fakeBoard) CreatePost(ctx context.Context, title, content, password string) (models.Post, error) {
	f.mu.Lock()
	f.record("createBoardPost")
	f.mu.Unlock()
	return f.addPost(title, content, password, time.Now()), nil
}

func (f *fakeBoard) DeletePost(ctx context.Context, postID, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("deletePost")
	if f.passwords[postID] != password {
		return errMismatch
	}
	for i, p := range f.posts {
		if p.ID == postID {
			f.posts = append(f.posts[:i], f.posts[i+1:]...)
			break
		}
	}
	delete(f.comments, postID)
	return nil
}

func (f *fakeBoard) CreateComment(ctx context.Context, postID, content, password string) (models.Comment, error) {
	f.mu.Lock()
	f.record("addCommentToPost")
	f.mu.Unlock()
	return f.addComment(postID, models.Comment{Content: content, CreatedAt: time.Now()}, password), nil
}

func (f *fakeBoard) CreateReply(ctx context.Context, commentID, content, password, replyTo string) (models.Comment, error) {
	f.mu.Lock()
	f.record("createReply")
	var postID string
	var depth int
	for pid, comments := range f.comments {
		for _, c := range comments {
			if c.ID == commentID {
				postID, depth = pid, c.Depth+1
			}
		}
	}
	f.mu.Unlock()
	if postID == "" {
		return models.Comment{}, &boardapi.ServerValidationError{Messages: []string{"comment not found"}}
	}
	parent := commentID
	return f.addComment(postID, models.Comment{
		Content:   content,
		CreatedAt: time.Now(),
		Reply:     true,
		ParentID:  &parent,
		Depth:     depth,
		ReplyTo:   replyTo,
	}, password), nil
}

func (f *fakeBoard) DeleteComment(ctx context.Context, commentID, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("deleteComment")
	if f.passwords[commentID] != password {
		return errMismatch
	}
	for pid, comments := range f.comments {
		for i, c := range comments {
			if c.ID == commentID {
				f.comments[pid] = append(comments[:i], comments[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (f *fakeBoard) countCalls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

type testSite struct {
	*httptest.Server
	board *fakeBoard
	// Follows redirects and keeps the notices cookie.
	browser *http.Client
	// Stops at the first response.
	noFollow *http.Client
}

func newTestSite(t *testing.T) *testSite {
	board := newFakeBoard()
	srv := httptest.NewServer(NewWebsiteRoutes(board, nil))
	t.Cleanup(srv.Close)
	boardurl.SetGlobalBaseUrl(srv.URL)

	jar, err := cookiejar.New(nil)
	require.Nil(t, err)

	return &testSite{
		Server:  srv,
		board:   board,
		browser: &http.Client{Jar: jar},
		noFollow: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (s *testSite) get(t *testing.T, path string) (*http.Response, string) {
	req, err := http.NewRequest(http.MethodGet, s.URL+path, nil)
	require.Nil(t, err)
	req.Header.Set("Accept", "text/html")
	return s.do(t, s.browser, req)
}

func (s *testSite) post(t *testing.T, client *http.Client, path string, form url.Values) (*http.Response, string) {
	req, err := http.NewRequest(http.MethodPost, s.URL+path, strings.NewReader(form.Encode()))
	require.Nil(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	return s.do(t, client, req)
}

func (s *testSite) do(t *testing.T, client *http.Client, req *http.Request) (*http.Response, string) {
	res, err := client.Do(req)
	require.Nil(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.Nil(t, err)
	return res, string(body)
}

func TestListing(t *testing.T) {
	t.Run("newest first", func(t *testing.T) {
		site := newTestSite(t)
		base := time.Now().Add(-time.Hour)
		site.board.addPost("오래된 글", "내용", "pw", base)
		site.board.addPost("새 글", "이 글의 내용은 서른 글자를 훌쩍 넘기 때문에 목록에서는 잘려서 보여야 합니다", "pw", base.Add(time.Minute))

		res, body := site.get(t, "/")
		assert.Equal(t, http.StatusOK, res.StatusCode)
		newer := strings.Index(body, "새 글")
		older := strings.Index(body, "오래된 글")
		require.True(t, newer >= 0 && older >= 0)
		assert.Less(t, newer, older)
		assert.Contains(t, body, "...")
		assert.NotContains(t, body, "보여야 합니다")
	})
	t.Run("empty board", func(t *testing.T) {
		site := newTestSite(t)
		_, body := site.get(t, "/")
		assert.Contains(t, body, EmptyListingText)
	})
	t.Run("out of range page redirects", func(t *testing.T) {
		site := newTestSite(t)
		for i := 0; i < 7; i++ {
			site.board.addPost(fmt.Sprintf("글 %d", i), "내용", "pw", time.Now())
		}

		req, _ := http.NewRequest(http.MethodGet, site.URL+"/?page=99", nil)
		res, _ := site.do(t, site.noFollow, req)
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, boardurl.BuildHomeWithPage(2), res.Header.Get("Location"))

		req, _ = http.NewRequest(http.MethodGet, site.URL+"/?page=zero", nil)
		res, _ = site.do(t, site.noFollow, req)
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, boardurl.BuildHome(), res.Header.Get("Location"))
	})
	t.Run("unreachable service", func(t *testing.T) {
		site := newTestSite(t)
		site.board.listErr = &boardapi.TransportError{Operation: "getBoardPosts", StatusCode: 502}

		res, body := site.get(t, "/")
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, gateway.MsgUnreachable)
		assert.Contains(t, body, EmptyListingText)
	})
}

func TestPostDetail(t *testing.T) {
	setup := func(t *testing.T) (*testSite, models.Post) {
		site := newTestSite(t)
		post := site.board.addPost("제목", "**굵게**", "pw", time.Now().Add(-time.Minute))
		top := site.board.addComment(post.ID, models.Comment{ID: "c1", Content: "첫 번째 댓글입니다 반갑습니다 여러분", CreatedAt: time.Now()}, "cpw")
		parent := top.ID
		site.board.addComment(post.ID, models.Comment{ID: "c2", Content: "답글", CreatedAt: time.Now(), Reply: true, ParentID: &parent, Depth: 1, ReplyTo: top.Content}, "cpw")
		return site, post
	}

	t.Run("renders post and thread", func(t *testing.T) {
		site, post := setup(t)
		res, body := site.get(t, "/detail/"+post.ID)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, "<strong>굵게</strong>")
		assert.Contains(t, body, `margin-left: 25px`)
		assert.Contains(t, body, "└")
		assert.Contains(t, body, "첫 번째 댓글입니다 반갑습니다…")
		assert.Contains(t, body, `placeholder="댓글 입력..."`)
		assert.NotContains(t, body, "just-activated")
	})
	t.Run("missing post", func(t *testing.T) {
		site, _ := setup(t)
		res, _ := site.get(t, "/detail/nope")
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
	t.Run("activating a reply highlights and focuses", func(t *testing.T) {
		site, post := setup(t)
		_, body := site.get(t, boardPath(boardurl.BuildPostDetailWithQuery(post.ID, boardurl.DetailQuery{Activate: "c1"})))
		assert.Contains(t, body, "just-activated")
		assert.Contains(t, body, "autofocus")
		assert.Contains(t, body, `placeholder="첫 번째 댓글입니다에 답글 입력..."`)
		assert.Contains(t, body, `name="reply" value="c1"`)
		assert.Contains(t, body, cancelReplyLink(post.ID))
	})
	t.Run("activating the target again cancels", func(t *testing.T) {
		site, post := setup(t)
		_, body := site.get(t, boardPath(boardurl.BuildPostDetailWithQuery(post.ID, boardurl.DetailQuery{Reply: "c1", Activate: "c1"})))
		assert.NotContains(t, body, "just-activated")
		assert.Contains(t, body, `placeholder="댓글 입력..."`)
		assert.Contains(t, body, `name="reply" value=""`)
	})
	t.Run("comments unavailable", func(t *testing.T) {
		site, post := setup(t)
		site.board.commentsErr = &boardapi.TransportError{Operation: "getCommentsByPostId", StatusCode: 500}
		res, body := site.get(t, "/detail/"+post.ID)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, gateway.MsgUnreachable)
		assert.Contains(t, body, "제목")
	})
}

func cancelReplyLink(postID string) string {
	return `href="` + boardurl.BuildPostDetail(postID) + `">취소</a>`
}

// boardPath strips the test server's origin from a built URL.
func boardPath(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		panic(err)
	}
	return parsed.RequestURI()
}

func TestCommentSubmit(t *testing.T) {
	t.Run("top level", func(t *testing.T) {
		site := newTestSite(t)
		post := site.board.addPost("제목", "내용", "pw", time.Now())

		res, _ := site.post(t, site.noFollow, "/detail/"+post.ID+"/comment", url.Values{
			"content":  {"안녕하세요"},
			"password": {"1234"},
		})
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, boardurl.BuildPostDetail(post.ID), res.Header.Get("Location"))

		comments, _ := site.board.ListComments(context.Background(), post.ID)
		require.Len(t, comments, 1)
		assert.Equal(t, "안녕하세요", comments[0].Content)
	})
	t.Run("reply carries the parent snippet", func(t *testing.T) {
		site := newTestSite(t)
		post := site.board.addPost("제목", "내용", "pw", time.Now())
		site.board.addComment(post.ID, models.Comment{ID: "c1", Content: "부모 댓글", CreatedAt: time.Now()}, "cpw")

		res, _ := site.post(t, site.noFollow, "/detail/"+post.ID+"/comment", url.Values{
			"content":  {"답글입니다"},
			"password": {"1234"},
			"reply":    {"c1"},
		})
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)

		comments, _ := site.board.ListComments(context.Background(), post.ID)
		require.Len(t, comments, 2)
		assert.True(t, comments[1].Reply)
		assert.Equal(t, "부모 댓글", comments[1].ReplyTo)
		assert.Equal(t, 1, comments[1].Depth)
	})
	t.Run("missing password keeps the draft", func(t *testing.T) {
		site := newTestSite(t)
		post := site.board.addPost("제목", "내용", "pw", time.Now())

		res, body := site.post(t, site.noFollow, "/detail/"+post.ID+"/comment", url.Values{
			"content": {"지우면 안 되는 내용"},
			"reply":   {""},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
		assert.Contains(t, body, gateway.MsgPasswordMissing)
		assert.Contains(t, body, "지우면 안 되는 내용")
		assert.Equal(t, 0, site.board.countCalls("addCommentToPost"))
	})
	t.Run("empty reply is rejected before the target lookup", func(t *testing.T) {
		site := newTestSite(t)
		post := site.board.addPost("제목", "내용", "pw", time.Now())
		site.board.addComment(post.ID, models.Comment{ID: "c1", Content: "부모 댓글", CreatedAt: time.Now()}, "cpw")

		res, body := site.post(t, site.noFollow, "/detail/"+post.ID+"/comment", url.Values{
			"content": {"비밀번호 없는 답글"},
			"reply":   {"c1"},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
		assert.Contains(t, body, gateway.MsgPasswordMissing)
		assert.Contains(t, body, "비밀번호 없는 답글")
		assert.Equal(t, 0, site.board.countCalls("createReply"))
		assert.Equal(t, 1, site.board.countCalls("listComments"), "only the re-rendered page lists comments")
	})
}

func TestCommentDelete(t *testing.T) {
	setup := func(t *testing.T) (*testSite, models.Post) {
		site := newTestSite(t)
		post := site.board.addPost("제목", "내용", "pw", time.Now())
		site.board.addComment(post.ID, models.Comment{ID: "c1", Content: "지울 댓글", CreatedAt: time.Now()}, "cpw")
		return site, post
	}

	t.Run("success", func(t *testing.T) {
		site, post := setup(t)
		res, body := site.post(t, site.browser, "/detail/"+post.ID+"/comment/c1/delete", url.Values{"password": {"cpw"}})
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, gateway.MsgDeleted)
		assert.NotContains(t, body, "지울 댓글")
	})
	t.Run("wrong password", func(t *testing.T) {
		site, post := setup(t)
		res, body := site.post(t, site.browser, "/detail/"+post.ID+"/comment/c1/delete", url.Values{"password": {"nope"}})
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, gateway.MsgPasswordMismatch)
		assert.Contains(t, body, "지울 댓글")
		assert.Contains(t, body, "비밀번호를 입력해주세요", "delete form stays open")
	})
	t.Run("empty password sends nothing", func(t *testing.T) {
		site, post := setup(t)
		_, body := site.post(t, site.browser, "/detail/"+post.ID+"/comment/c1/delete", url.Values{"password": {""}})
		assert.Contains(t, body, gateway.MsgPasswordMissing)
		assert.Equal(t, 0, site.board.countCalls("deleteComment"))
	})
}

func TestPostDelete(t *testing.T) {
	t.Run("success goes back to the listing", func(t *testing.T) {
		site := newTestSite(t)
		post := site.board.addPost("지울 글", "내용", "pw", time.Now())

		res, _ := site.post(t, site.noFollow, "/detail/"+post.ID+"/delete", url.Values{"password": {"pw"}})
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, boardurl.BuildHome(), res.Header.Get("Location"))

		_, body := site.post(t, site.browser, "/detail/"+post.ID+"/delete", url.Values{"password": {"pw"}})
		assert.Contains(t, body, EmptyListingText)
	})
	t.Run("mismatch stays on the post", func(t *testing.T) {
		site := newTestSite(t)
		post := site.board.addPost("지울 글", "내용", "pw", time.Now())

		res, body := site.post(t, site.browser, "/detail/"+post.ID+"/delete", url.Values{"password": {"wrong"}})
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, gateway.MsgPasswordMismatch)
		assert.Contains(t, body, "지울 글")
	})
}

func TestCompose(t *testing.T) {
	t.Run("success clears the form", func(t *testing.T) {
		site := newTestSite(t)
		res, body := site.post(t, site.browser, "/post", url.Values{
			"title":    {"새 글"},
			"content":  {"본문"},
			"password": {"pw"},
		})
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, gateway.MsgPostCreated)
		assert.NotContains(t, body, "본문")

		page, _ := site.board.ListPosts(context.Background(), 1, 10)
		require.Len(t, page.Posts, 1)
		assert.Equal(t, "새 글", page.Posts[0].Title)
	})
	t.Run("missing title keeps the rest", func(t *testing.T) {
		site := newTestSite(t)
		res, body := site.post(t, site.browser, "/post", url.Values{
			"content":  {"남아 있어야 할 본문"},
			"password": {"pw"},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
		assert.Contains(t, body, gateway.MsgTitleMissing)
		assert.Contains(t, body, "남아 있어야 할 본문")
		assert.Equal(t, 0, site.board.countCalls("createBoardPost"))
	})
}

func TestNoticesCookie(t *testing.T) {
	c := &RequestContext{Logger: &zerolog.Logger{}}
	serialized := serializeNoticesForCookie(c, []templates.Notice{
		{Class: "success", Content: "성공적으로 삭제되었습니다."},
		{Class: "failure", Content: "&lt;b&gt;"},
	})
	for _, r := range serialized {
		assert.True(t, r < 128, "cookie values must be ASCII")
	}

	notices := deserializeNoticesFromCookie(serialized)
	require.Len(t, notices, 2)
	assert.Equal(t, "성공적으로 삭제되었습니다.", string(notices[0].Content))
	assert.Equal(t, "&lt;b&gt;", string(notices[1].Content))

	assert.Nil(t, deserializeNoticesFromCookie("not base64!"))
}

func TestBoardCSSAndHealth(t *testing.T) {
	site := newTestSite(t)

	res, body := site.get(t, "/board.css")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/css; charset=utf-8", res.Header.Get("Content-Type"))
	assert.Contains(t, body, "reply-highlight")

	res, body = site.get(t, "/health")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok", body)

	res, _ = site.get(t, "/nowhere")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestRequestID(t *testing.T) {
	site := newTestSite(t)

	req, _ := http.NewRequest(http.MethodGet, site.URL+"/health", nil)
	req.Header.Set(boardapi.RequestIDHeader, "abc-123")
	res, _ := site.do(t, site.noFollow, req)
	assert.Equal(t, "abc-123", res.Header.Get(boardapi.RequestIDHeader))

	req, _ = http.NewRequest(http.MethodGet, site.URL+"/health", nil)
	res, _ = site.do(t, site.noFollow, req)
	assert.NotEmpty(t, res.Header.Get(boardapi.RequestIDHeader))
}
