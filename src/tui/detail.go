package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"git.gdb.dev/gdb/board/src/boardapi"
	"git.gdb.dev/gdb/board/src/commenttree"
	"git.gdb.dev/gdb/board/src/composer"
	"git.gdb.dev/gdb/board/src/gateway"
	"git.gdb.dev/gdb/board/src/logging"
	"git.gdb.dev/gdb/board/src/models"
	"git.gdb.dev/gdb/board/src/parsing"
	"git.gdb.dev/gdb/board/src/timefmt"
	"git.gdb.dev/gdb/board/src/utils"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	PasswordPlaceholder = "비밀번호..."
	NotFoundText        = "게시물을 찾을 수 없습니다."

	// Terminal columns per nesting level.
	indentColumns = 2
)

type focusArea int

const (
	focusComments focusArea = iota
	focusContent
	focusPassword
)

type postLoadedMsg struct {
	postID string
	post   models.Post
	err    error
}

type commentsLoadedMsg struct {
	postID   string
	comments []models.Comment
	err      error
}

// composerChangedMsg is sent from the composer's change hook, which may run
// on the decay timer's goroutine.
type composerChangedMsg struct {
	postID string
}

type commentSubmittedMsg struct {
	postID    string
	err       error
	comments  []models.Comment
	refreshed bool
}

type commentDeletedMsg struct {
	postID    string
	result    gateway.Result
	err       error
	comments  []models.Comment
	refreshed bool
}

type postDeletedMsg struct {
	postID string
	result gateway.Result
	err    error
}

type detailDeps struct {
	api       API
	gateway   *gateway.Gateway
	now       func() time.Time
	scheduler utils.Scheduler
	send      func(tea.Msg)
}

// refreshBox hands the comments fetched by the composer's refresh back to
// the goroutine that called Submit.
type refreshBox struct {
	mu       sync.Mutex
	comments []models.Comment
	ok       bool
}

func (b *refreshBox) put(comments []models.Comment) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.comments, b.ok = comments, true
}

func (b *refreshBox) take() ([]models.Comment, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	comments, ok := b.comments, b.ok
	b.comments, b.ok = nil, false
	return comments, ok
}

type detailScreen struct {
	detailDeps
	postID string

	post     *models.Post
	loading  bool
	notFound bool
	comments []models.Comment
	cursor   int

	composer   *composer.Composer
	refreshed  *refreshBox
	content    textinput.Model
	password   textinput.Model
	focus      focusArea
	submitting bool

	modal  *passwordModal
	notice *gateway.Notice

	// Set while Update runs, so composer changes triggered from inside it
	// are not delivered synchronously.
	updating atomic.Bool
}

func newDetailScreen(deps detailDeps, postID string) *detailScreen {
	s := &detailScreen{
		detailDeps: deps,
		postID:     postID,
		loading:    true,
		refreshed:  &refreshBox{},
		content:    newInput(composer.PlaceholderComment),
		password:   newInput(PasswordPlaceholder),
	}
	s.password.EchoMode = textinput.EchoPassword

	api, box := deps.api, s.refreshed
	s.composer = composer.New(composer.Options{
		PostID:  postID,
		Gateway: deps.gateway,
		Refresh: func(ctx context.Context) error {
			comments, err := api.ListComments(ctx, postID)
			if err != nil {
				return err
			}
			box.put(comments)
			return nil
		},
		// ActivateReply runs in Update, so focusing here is safe.
		Focus: composer.FocusFunc(func() { s.setFocus(focusContent) }),
		OnChange: func() {
			msg := composerChangedMsg{postID: postID}
			if s.updating.Load() {
				// Program.Send waits for the event loop, which is busy
				// running this Update.
				go deps.send(msg)
				return
			}
			deps.send(msg)
		},
		Scheduler: deps.scheduler,
	})
	return s
}

func newInput(placeholder string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = "> "
	in.Cursor.SetMode(cursor.CursorStatic)
	return in
}

func (s *detailScreen) Init() tea.Cmd {
	return tea.Batch(s.loadPost(), s.loadComments())
}

func (s *detailScreen) Close() {
	s.composer.Close()
}

func (s *detailScreen) loadPost() tea.Cmd {
	api, postID := s.api, s.postID
	return func() tea.Msg {
		ctx, cancel := requestContext()
		defer cancel()
		post, err := api.GetPost(ctx, postID)
		return postLoadedMsg{postID: postID, post: post, err: err}
	}
}

func (s *detailScreen) loadComments() tea.Cmd {
	api, postID := s.api, s.postID
	return func() tea.Msg {
		ctx, cancel := requestContext()
		defer cancel()
		comments, err := api.ListComments(ctx, postID)
		return commentsLoadedMsg{postID: postID, comments: comments, err: err}
	}
}

func (s *detailScreen) setComments(comments []models.Comment) {
	s.comments = comments
	for _, w := range commenttree.CheckDepths(comments) {
		logging.Warn().Str("postId", s.postID).Str("commentId", w.CommentID).Msg(w.String())
	}
	s.cursor = utils.IntClamp(0, s.cursor, utils.IntMax(len(comments)-1, 0))
}

func (s *detailScreen) setFocus(f focusArea) {
	s.focus = f
	s.content.Blur()
	s.password.Blur()
	switch f {
	case focusContent:
		s.content.Focus()
	case focusPassword:
		s.password.Focus()
	}
}

func (s *detailScreen) selected() (models.Comment, bool) {
	if s.cursor < 0 || s.cursor >= len(s.comments) {
		return models.Comment{}, false
	}
	return s.comments[s.cursor], true
}

func (s *detailScreen) setNotice(n gateway.Notice) {
	s.notice = &n
}

func (s *detailScreen) Update(msg tea.Msg) tea.Cmd {
	s.updating.Store(true)
	defer s.updating.Store(false)

	switch msg := msg.(type) {
	case postLoadedMsg:
		if msg.postID != s.postID {
			return nil
		}
		s.loading = false
		if errors.Is(msg.err, boardapi.ErrNotFound) {
			s.notFound = true
		} else if msg.err != nil {
			logging.Error().Err(msg.err).Str("postId", s.postID).Msg("failed to load post")
			s.setNotice(gateway.Failure(gateway.MsgUnreachable))
		} else {
			post := msg.post
			s.post = &post
		}
		return nil

	case commentsLoadedMsg:
		if msg.postID != s.postID {
			return nil
		}
		if msg.err != nil {
			logging.Error().Err(msg.err).Str("postId", s.postID).Msg("failed to load comments")
			s.setNotice(gateway.Failure(gateway.MsgUnreachable))
			return nil
		}
		s.setComments(msg.comments)
		return nil

	case composerChangedMsg:
		if msg.postID == s.postID {
			s.content.Placeholder = s.composer.Placeholder()
		}
		return nil

	case commentSubmittedMsg:
		if msg.postID != s.postID {
			return nil
		}
		s.submitting = false
		if msg.err != nil {
			s.setNotice(gateway.NoticeForError(msg.err, gateway.MsgCommentCreateFailed))
			return nil
		}
		s.notice = nil
		s.content.SetValue("")
		s.password.SetValue("")
		s.content.Placeholder = s.composer.Placeholder()
		s.setFocus(focusComments)
		if msg.refreshed {
			s.setComments(msg.comments)
			return nil
		}
		return s.loadComments()

	case commentDeletedMsg:
		if msg.postID != s.postID {
			return nil
		}
		s.setNotice(msg.result.Notice)
		if msg.err == nil && msg.refreshed {
			s.setComments(msg.comments)
		}
		return nil

	case postDeletedMsg:
		if msg.postID != s.postID {
			return nil
		}
		if msg.result.NavigateToListing {
			notice := msg.result.Notice
			return func() tea.Msg { return showListMsg{notice: &notice, reload: true} }
		}
		s.setNotice(msg.result.Notice)
		return nil

	case tea.KeyMsg:
		if s.modal != nil {
			return s.updateModal(msg)
		}
		if s.focus != focusComments {
			return s.updateInputs(msg)
		}
		return s.updateComments(msg)
	}
	return nil
}

func (s *detailScreen) updateComments(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Up):
		s.cursor = utils.IntMax(s.cursor-1, 0)
	case key.Matches(msg, keys.Down):
		s.cursor = utils.IntMin(s.cursor+1, utils.IntMax(len(s.comments)-1, 0))
	case key.Matches(msg, keys.Reply):
		if c, ok := s.selected(); ok {
			s.composer.ActivateReply(c)
			s.content.Placeholder = s.composer.Placeholder()
		}
	case key.Matches(msg, keys.Delete):
		if c, ok := s.selected(); ok {
			s.modal = newPasswordModal(deleteComment, c.ID)
		}
	case key.Matches(msg, keys.DeletePost):
		if s.post != nil {
			s.modal = newPasswordModal(deletePost, s.postID)
		}
	case key.Matches(msg, keys.Write):
		s.setFocus(focusContent)
	case key.Matches(msg, keys.Refresh):
		return tea.Batch(s.loadPost(), s.loadComments())
	case key.Matches(msg, keys.Back):
		return func() tea.Msg { return showListMsg{} }
	}
	return nil
}

func (s *detailScreen) updateInputs(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Cancel):
		s.setFocus(focusComments)
		return nil
	case key.Matches(msg, keys.NextField):
		if s.focus == focusContent {
			s.setFocus(focusPassword)
		} else {
			s.setFocus(focusContent)
		}
		return nil
	case key.Matches(msg, keys.Confirm), key.Matches(msg, keys.Submit):
		return s.submit()
	}

	var cmd tea.Cmd
	if s.focus == focusContent {
		s.content, cmd = s.content.Update(msg)
	} else {
		s.password, cmd = s.password.Update(msg)
	}
	return cmd
}

func (s *detailScreen) submit() tea.Cmd {
	if s.submitting {
		return nil
	}
	s.submitting = true

	comp, box, postID := s.composer, s.refreshed, s.postID
	content, password := s.content.Value(), s.password.Value()
	return func() tea.Msg {
		ctx, cancel := requestContext()
		defer cancel()
		err := comp.Submit(ctx, content, password)
		comments, refreshed := box.take()
		return commentSubmittedMsg{postID: postID, err: err, comments: comments, refreshed: refreshed}
	}
}

func (s *detailScreen) updateModal(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Cancel):
		s.modal = nil
		return nil
	case key.Matches(msg, keys.Confirm):
		m := s.modal
		s.modal = nil
		password := m.input.Value()
		if m.kind == deletePost {
			return s.deletePost(password)
		}
		return s.deleteComment(m.targetID, password)
	}

	var cmd tea.Cmd
	s.modal.input, cmd = s.modal.input.Update(msg)
	return cmd
}

func (s *detailScreen) deleteComment(commentID, password string) tea.Cmd {
	g, api, postID := s.gateway, s.api, s.postID
	return func() tea.Msg {
		ctx, cancel := requestContext()
		defer cancel()

		var comments []models.Comment
		refreshed := false
		res, err := g.DeleteComment(ctx, commentID, gateway.StaticPassword(password), func(ctx context.Context) error {
			cs, err := api.ListComments(ctx, postID)
			if err != nil {
				return err
			}
			comments, refreshed = cs, true
			return nil
		})
		return commentDeletedMsg{postID: postID, result: res, err: err, comments: comments, refreshed: refreshed}
	}
}

func (s *detailScreen) deletePost(password string) tea.Cmd {
	g, postID := s.gateway, s.postID
	return func() tea.Msg {
		ctx, cancel := requestContext()
		defer cancel()
		res, err := g.DeletePost(ctx, postID, gateway.StaticPassword(password))
		return postDeletedMsg{postID: postID, result: res, err: err}
	}
}

func (s *detailScreen) View() string {
	var b strings.Builder

	if s.loading {
		b.WriteString(mutedStyle.Render("불러오는 중..."))
		return b.String()
	}
	if s.notFound {
		b.WriteString(mutedStyle.Render(NotFoundText))
		return b.String()
	}

	now := s.now()
	if s.post != nil {
		b.WriteString(titleStyle.Render(s.post.Title))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(timefmt.Tooltip(s.post.CreatedAt.In(now.Location()))))
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(parsing.ParseMarkdown(s.post.Content, parsing.PlaintextMarkdown)))
		b.WriteString("\n\n")
		b.WriteString(mutedStyle.Render("[D] 게시물 삭제"))
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render(fmt.Sprintf("댓글 %d", len(s.comments))))
	b.WriteString("\n")
	tree := commenttree.Build(now, s.comments)
	visual := s.composer.Visual()
	for i, row := range tree.Rows {
		b.WriteString(s.renderRow(row, i == s.cursor, visual))
		b.WriteString("\n")
	}

	if n := renderNotice(s.notice); n != "" {
		b.WriteString("\n")
		b.WriteString(n)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(s.content.View())
	b.WriteString("\n")
	b.WriteString(s.password.View())
	if s.submitting {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("작성 중..."))
	}

	if s.modal != nil {
		b.WriteString("\n\n")
		b.WriteString(s.modal.View())
	}
	return b.String()
}

func (s *detailScreen) renderRow(row commenttree.Row, selected bool, visual composer.VisualState) string {
	var line strings.Builder
	if row.Elbow {
		line.WriteString("└ ")
	}
	if row.ReplyPreview != "" {
		line.WriteString(mutedStyle.Render("@" + row.ReplyPreview + " "))
	}
	content := row.Comment.Content
	if selected {
		content = selectedStyle.Render(content)
	}
	line.WriteString(content)

	replyLabel := "답글"
	isTarget := s.composer.IsTarget(row.Comment.ID)
	if isTarget {
		replyLabel = "취소"
	}
	fmt.Fprintf(&line, "  %s", mutedStyle.Render(fmt.Sprintf("%s · [r] %s [d] 삭제", row.RelativeTime, replyLabel)))

	rendered := line.String()
	if isTarget {
		if visual == composer.JustActivated {
			rendered = highlightStyle.Render(rendered)
		} else {
			rendered = targetStyle.Render(rendered)
		}
	}

	indent := strings.Repeat(" ", row.Indent/commenttree.IndentUnit*indentColumns)
	lines := strings.Split(rendered, "\n")
	for i := range lines {
		lines[i] = indent + lines[i]
	}
	return strings.Join(lines, "\n")
}

func (s *detailScreen) Help() []key.Binding {
	if s.modal != nil {
		return []key.Binding{keys.Confirm, keys.Cancel}
	}
	if s.focus != focusComments {
		return []key.Binding{keys.NextField, keys.Confirm, keys.Cancel}
	}
	return []key.Binding{keys.Up, keys.Down, keys.Reply, keys.Delete, keys.DeletePost, keys.Write, keys.Refresh, keys.Back}
}
