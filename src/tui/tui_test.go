package tui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"git.gdb.dev/gdb/board/src/boardapi"
	"git.gdb.dev/gdb/board/src/composer"
	"git.gdb.dev/gdb/board/src/devserver"
	"git.gdb.dev/gdb/board/src/gateway"
	"git.gdb.dev/gdb/board/src/utils"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 3, 5, 6, 4, 0, 0, time.UTC)

type harness struct {
	t     *testing.T
	m     *Model
	store *devserver.MemoryStore
	sched *utils.ManualScheduler

	mu   sync.Mutex
	ops  map[string]int
	sent []tea.Msg
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		t:     t,
		store: devserver.NewMemoryStore(),
		sched: &utils.ManualScheduler{},
		ops:   map[string]int{},
	}

	server := devserver.NewServer(h.store)
	server.OnOperation = func(field string) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.ops[field]++
	}
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	h.m = New(boardapi.NewClient(srv.URL+"/graphql", srv.Client()), Options{
		PerPage:   6,
		Now:       func() time.Time { return start.Add(48 * time.Hour) },
		Scheduler: h.sched,
	})
	h.m.Send = func(msg tea.Msg) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.sent = append(h.sent, msg)
	}
	t.Cleanup(h.m.Close)
	return h
}

func (h *harness) count(field string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ops[field]
}

func (h *harness) addPost(id string, minutes int) {
	_, err := h.store.CreatePost(context.Background(), devserver.NewPost{
		ID:           id,
		Title:        "제목 " + id,
		Content:      "내용 " + id,
		PasswordHash: devserver.HashPassword("pw"),
		CreatedAt:    start.Add(time.Duration(minutes) * time.Minute),
	})
	require.Nil(h.t, err)
}

func (h *harness) addComment(id, postID, parentID, content string, minutes int) {
	_, err := h.store.CreateComment(context.Background(), devserver.NewComment{
		ID:           id,
		PostID:       postID,
		ParentID:     parentID,
		Content:      content,
		PasswordHash: devserver.HashPassword("pw"),
		CreatedAt:    start.Add(time.Duration(minutes) * time.Minute),
	})
	require.Nil(h.t, err)
}

// run executes cmd and everything it leads to, feeding each result back
// through Update. Spinner ticks are dropped so busy states do not loop.
func (h *harness) run(cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}

		switch msg := c().(type) {
		case nil, spinner.TickMsg, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, next := h.m.Update(msg)
			queue = append(queue, next)
		}
	}
}

func (h *harness) update(msg tea.Msg) {
	_, cmd := h.m.Update(msg)
	h.run(cmd)
}

func (h *harness) press(keys ...string) {
	for _, k := range keys {
		h.update(keyMsg(k))
	}
}

func (h *harness) typeText(s string) {
	h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// flush delivers messages sent from outside the update loop.
func (h *harness) flush() {
	h.mu.Lock()
	sent := h.sent
	h.sent = nil
	h.mu.Unlock()
	for _, msg := range sent {
		h.update(msg)
	}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func (h *harness) openPost(id string) *detailScreen {
	h.update(openPostMsg{postID: id})
	require.Equal(h.t, detailView, h.m.screen)
	return h.m.detail
}

func TestListing(t *testing.T) {
	t.Run("pages newest first", func(t *testing.T) {
		h := newHarness(t)
		for i := 1; i <= 8; i++ {
			h.addPost(fmt.Sprintf("p%d", i), i)
		}
		h.run(h.m.Init())

		list := h.m.list
		require.Len(t, list.posts, 6)
		assert.Equal(t, "p8", list.posts[0].ID)
		assert.Equal(t, 2, list.totalPages)
		view := h.m.View()
		assert.Contains(t, view, BoardHeader)
		assert.Contains(t, view, "제목 p8")
		assert.NotContains(t, view, "제목 p2")

		h.press("right")
		assert.Equal(t, 2, list.page)
		require.Len(t, list.posts, 2)
		assert.Equal(t, "p2", list.posts[0].ID)

		h.press("right")
		assert.Equal(t, 2, list.page, "next is disabled on the last page")

		h.press("left", "j", "enter")
		assert.Equal(t, detailView, h.m.screen)
		assert.Equal(t, "p7", h.m.detail.postID)
		assert.Contains(t, h.m.View(), "내용 p7")
	})
	t.Run("empty", func(t *testing.T) {
		h := newHarness(t)
		h.run(h.m.Init())
		assert.Contains(t, h.m.View(), EmptyListingText)
	})
}

func TestReplyComposer(t *testing.T) {
	h := newHarness(t)
	h.addPost("p", 0)
	h.addComment("a", "p", "", "첫 번째 댓글입니다 반갑습니다", 1)

	d := h.openPost("p")
	require.Len(t, d.comments, 1)

	h.press("r")
	target, ok := d.composer.Target()
	require.True(t, ok)
	assert.Equal(t, "a", target.ID)
	assert.Equal(t, composer.JustActivated, d.composer.Visual())
	assert.Equal(t, focusContent, d.focus, "activating a reply focuses the comment field")
	assert.Equal(t, "첫 번째 댓글입니다에 답글 입력...", d.content.Placeholder)
	assert.Contains(t, h.m.View(), "[r] 취소")

	h.sched.Advance(composer.DefaultDecay)
	h.flush()
	assert.Equal(t, composer.Idle, d.composer.Visual())
	assert.True(t, d.composer.IsTarget("a"))

	h.typeText("반가워요")
	h.press("tab")
	h.typeText("pw")
	before := h.count("getComments")
	h.press("enter")

	assert.Nil(t, d.notice)
	assert.Equal(t, before+1, h.count("getComments"))
	require.Len(t, d.comments, 2)
	reply := d.comments[1]
	assert.Equal(t, "반가워요", reply.Content)
	assert.True(t, reply.Reply)
	assert.Equal(t, 1, reply.Depth)
	assert.Equal(t, "첫 번째 댓글입니다 반갑습니다", reply.ReplyTo)

	_, ok = d.composer.Target()
	assert.False(t, ok)
	assert.Equal(t, "", d.content.Value())
	assert.Equal(t, "", d.password.Value())
	assert.Equal(t, composer.PlaceholderComment, d.content.Placeholder)

	t.Run("toggle off", func(t *testing.T) {
		h.press("r")
		assert.True(t, d.composer.IsTarget("a"))
		h.press("esc", "r")
		assert.False(t, d.composer.IsTarget("a"))
	})
}

func TestCommentMissingPassword(t *testing.T) {
	h := newHarness(t)
	h.addPost("p", 0)
	d := h.openPost("p")

	h.press("i")
	h.typeText("내용만")
	h.press("enter")

	require.NotNil(t, d.notice)
	assert.Equal(t, gateway.Failure(gateway.MsgPasswordMissing), *d.notice)
	assert.Equal(t, "내용만", d.content.Value(), "failed submissions keep the draft")
	assert.Equal(t, 0, h.count("addCommentToPost"))
}

func TestDeleteComment(t *testing.T) {
	h := newHarness(t)
	h.addPost("p", 0)
	h.addComment("a", "p", "", "부모", 1)
	h.addComment("b", "", "a", "자식", 2)
	d := h.openPost("p")
	require.Len(t, d.comments, 2)

	t.Run("empty password sends nothing", func(t *testing.T) {
		h.press("d")
		require.NotNil(t, d.modal)
		h.press("enter")
		assert.Nil(t, d.modal)
		assert.Equal(t, gateway.Failure(gateway.MsgPasswordMissing), *d.notice)
		assert.Equal(t, 0, h.count("deleteComment"))
	})
	t.Run("mismatch", func(t *testing.T) {
		before := h.count("getComments")
		h.press("d")
		h.typeText("wrong")
		h.press("enter")
		assert.Equal(t, gateway.Failure(gateway.MsgPasswordMismatch), *d.notice)
		assert.Equal(t, before, h.count("getComments"))
		assert.Len(t, d.comments, 2)
	})
	t.Run("cancel", func(t *testing.T) {
		h.press("d", "esc")
		assert.Nil(t, d.modal)
	})
	t.Run("success refreshes once", func(t *testing.T) {
		before := h.count("getComments")
		h.press("d")
		h.typeText("pw")
		h.press("enter")
		assert.Equal(t, gateway.Success(gateway.MsgDeleted), *d.notice)
		assert.Equal(t, before+1, h.count("getComments"))
		assert.Empty(t, d.comments, "replies go with their parent")
	})
}

func TestDeletePost(t *testing.T) {
	h := newHarness(t)
	h.addPost("p", 0)
	h.addPost("q", 1)
	h.run(h.m.Init())
	d := h.openPost("p")

	h.press("D")
	h.typeText("nope")
	h.press("enter")
	assert.Equal(t, detailView, h.m.screen)
	assert.Equal(t, gateway.Failure(gateway.MsgPasswordMismatch), *d.notice)

	h.press("D")
	h.typeText("pw")
	h.press("enter")
	assert.Equal(t, listView, h.m.screen)
	require.NotNil(t, h.m.list.notice)
	assert.Equal(t, gateway.Success(gateway.MsgDeleted), *h.m.list.notice)
	require.Len(t, h.m.list.posts, 1)
	assert.Equal(t, "q", h.m.list.posts[0].ID)
}

func TestMissingPost(t *testing.T) {
	h := newHarness(t)
	d := h.openPost("nope")
	assert.True(t, d.notFound)
	assert.Contains(t, h.m.View(), NotFoundText)
}

func TestCompose(t *testing.T) {
	h := newHarness(t)
	h.run(h.m.Init())
	h.press("n")
	require.Equal(t, composeView, h.m.screen)
	c := h.m.compose
	assert.Contains(t, h.m.View(), ComposeTitle)

	h.press("ctrl+s")
	require.NotNil(t, c.notice)
	assert.Equal(t, gateway.Failure(gateway.MsgTitleMissing), *c.notice)
	assert.Equal(t, 0, h.count("createBoardPost"))

	h.typeText("새 글")
	h.press("tab")
	h.typeText("본문입니다")
	h.press("tab")
	h.typeText("pw")

	_, cmd := h.m.Update(keyMsg("enter"))
	assert.True(t, c.busy)
	assert.Contains(t, h.m.View(), BusyLabel)
	h.run(cmd)

	assert.False(t, c.busy)
	assert.Equal(t, gateway.Success(gateway.MsgPostCreated), *c.notice)
	assert.Equal(t, "", c.title.Value(), "fields clear after success")
	assert.Equal(t, "", c.content.Value())

	h.press("esc")
	assert.Equal(t, listView, h.m.screen)
	require.Len(t, h.m.list.posts, 1)
	assert.Equal(t, "새 글", h.m.list.posts[0].Title)
}

// loopModel reports back from inside a running program's event loop.
type loopModel struct {
	*Model
	loaded chan struct{}
}

type pingMsg struct {
	done chan struct{}
}

func (l loopModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ping, ok := msg.(pingMsg); ok {
		close(ping.done)
		return l, nil
	}
	_, cmd := l.Model.Update(msg)
	if _, ok := msg.(commentsLoadedMsg); ok {
		select {
		case l.loaded <- struct{}{}:
		default:
		}
	}
	return l, cmd
}

func waitFor(t *testing.T, ch <-chan struct{}, failure string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatal(failure)
	}
}

func ping(t *testing.T, p *tea.Program, failure string) {
	t.Helper()
	msg := pingMsg{done: make(chan struct{})}
	sent := make(chan struct{})
	go func() {
		p.Send(msg)
		close(sent)
	}()
	waitFor(t, sent, failure)
	waitFor(t, msg.done, failure)
}

func TestReplyInRunningProgram(t *testing.T) {
	h := newHarness(t)
	h.addPost("p", 0)
	h.addComment("a", "p", "", "댓글", 1)

	lm := loopModel{Model: h.m, loaded: make(chan struct{}, 1)}
	var in bytes.Buffer
	p := tea.NewProgram(lm,
		tea.WithInput(&in),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)
	h.m.Send = p.Send
	t.Cleanup(p.Kill)

	finished := make(chan struct{})
	go func() {
		p.Run()
		close(finished)
	}()

	p.Send(openPostMsg{postID: "p"})
	waitFor(t, lm.loaded, "comments never loaded")

	p.Send(keyMsg("r"))
	ping(t, p, "event loop stopped after starting a reply")
	d := h.m.detail
	assert.True(t, d.composer.IsTarget("a"))
	assert.Equal(t, composer.JustActivated, d.composer.Visual())

	h.sched.Advance(composer.DefaultDecay)
	ping(t, p, "event loop stopped after the highlight faded")
	assert.Equal(t, composer.Idle, d.composer.Visual())

	p.Send(keyMsg("esc"))
	p.Send(keyMsg("r"))
	ping(t, p, "event loop stopped after cancelling the reply")
	assert.False(t, d.composer.IsTarget("a"))

	p.Quit()
	waitFor(t, finished, "program did not quit")
}
