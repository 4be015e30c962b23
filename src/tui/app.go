// Package tui is the terminal front end. It has the same three pages as the
// website, but the reply composer runs live: activating a reply moves focus to
// the comment field and the highlight fades on its own.
package tui

import (
	"context"
	"strings"
	"time"

	"git.gdb.dev/gdb/board/src/boardapi"
	"git.gdb.dev/gdb/board/src/config"
	"git.gdb.dev/gdb/board/src/gateway"
	"git.gdb.dev/gdb/board/src/models"
	"git.gdb.dev/gdb/board/src/utils"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const BoardHeader = "GDB 게시판"

// API is everything the screens need from the board service.
type API interface {
	gateway.API
	ListPosts(ctx context.Context, page, limit int) (models.PostPage, error)
	GetPost(ctx context.Context, id string) (models.Post, error)
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
}

var _ API = &boardapi.Client{}

type screen int

const (
	listView screen = iota
	detailView
	composeView
)

type openPostMsg struct {
	postID string
}

type openComposeMsg struct{}

type showListMsg struct {
	notice *gateway.Notice
	reload bool
}

type Options struct {
	PerPage int
	// Used for relative times; defaults to the current time in the board's
	// configured timezone.
	Now func() time.Time
	// Drives the reply highlight decay. Defaults to real timers.
	Scheduler utils.Scheduler
}

type Model struct {
	// Send delivers messages from outside the update loop, such as the reply
	// highlight fading. Set it to the running program's Send.
	Send func(tea.Msg)

	api     API
	gateway *gateway.Gateway
	opts    Options

	screen  screen
	list    *listScreen
	detail  *detailScreen
	compose *composeScreen

	help          help.Model
	width, height int
}

var _ tea.Model = &Model{}

func New(api API, opts Options) *Model {
	if opts.PerPage <= 0 {
		opts.PerPage = utils.OrDefault(config.Config.Board.PostsPerPage, 6)
	}
	if opts.Now == nil {
		loc := config.Config.Board.Location()
		opts.Now = func() time.Time { return time.Now().In(loc) }
	}

	m := &Model{
		api:     api,
		gateway: gateway.New(api),
		opts:    opts,
		help:    help.New(),
	}
	m.list = newListScreen(api, opts.PerPage, opts.Now)
	return m
}

func (m *Model) Init() tea.Cmd {
	return m.list.load(1)
}

func (m *Model) send(msg tea.Msg) {
	if m.Send != nil {
		m.Send(msg)
	}
}

// Close stops the detail screen's composer. Call it once the program exits.
func (m *Model) Close() {
	if m.detail != nil {
		m.detail.Close()
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.Close()
			return m, tea.Quit
		}
		switch m.screen {
		case listView:
			return m, m.list.Update(msg)
		case detailView:
			return m, m.detail.Update(msg)
		case composeView:
			return m, m.compose.Update(msg)
		}
		return m, nil

	case openPostMsg:
		m.Close()
		m.detail = newDetailScreen(detailDeps{
			api:       m.api,
			gateway:   m.gateway,
			now:       m.opts.Now,
			scheduler: m.opts.Scheduler,
			send:      m.send,
		}, msg.postID)
		m.screen = detailView
		return m, m.detail.Init()

	case openComposeMsg:
		m.compose = newComposeScreen(m.gateway)
		m.screen = composeView
		return m, m.compose.Init()

	case showListMsg:
		m.Close()
		m.detail = nil
		m.compose = nil
		m.screen = listView
		m.list.notice = msg.notice
		if msg.reload {
			return m, m.list.load(m.list.page)
		}
		return m, nil
	}

	// Results of background work go to whichever screen started it; screens
	// ignore messages that are not theirs.
	var cmds []tea.Cmd
	cmds = append(cmds, m.list.Update(msg))
	if m.detail != nil {
		cmds = append(cmds, m.detail.Update(msg))
	}
	if m.compose != nil {
		cmds = append(cmds, m.compose.Update(msg))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(BoardHeader))
	b.WriteString("\n")

	var bindings []key.Binding
	switch m.screen {
	case listView:
		b.WriteString(m.list.View())
		bindings = m.list.Help()
	case detailView:
		b.WriteString(m.detail.View())
		bindings = m.detail.Help()
	case composeView:
		b.WriteString(m.compose.View())
		bindings = m.compose.Help()
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView(bindings))
	return b.String()
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), utils.OrDefault(config.Config.Board.RequestTimeout, 10*time.Second))
}
