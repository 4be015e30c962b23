package tui

import (
	"strings"

	"git.gdb.dev/gdb/board/src/gateway"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	ComposeTitle = "게시물 작성"
	BusyLabel    = "작성 중..."
)

type composeField int

const (
	fieldTitle composeField = iota
	fieldContent
	fieldPassword
	numComposeFields
)

type postCreatedMsg struct {
	result gateway.Result
	err    error
}

type composeScreen struct {
	gateway *gateway.Gateway

	title    textinput.Model
	content  textarea.Model
	password textinput.Model
	focus    composeField

	spinner spinner.Model
	busy    bool
	// Set once a post went through, so leaving reloads the listing.
	created bool
	notice  *gateway.Notice
}

func newComposeScreen(g *gateway.Gateway) *composeScreen {
	s := &composeScreen{
		gateway:  g,
		title:    newInput("제목"),
		password: newInput(PasswordPlaceholder),
		spinner:  spinner.New(),
	}
	s.password.EchoMode = textinput.EchoPassword

	s.content = textarea.New()
	s.content.Placeholder = "내용"
	s.content.ShowLineNumbers = false
	s.content.SetWidth(72)
	s.content.SetHeight(8)
	s.content.Cursor.SetMode(cursor.CursorStatic)

	s.spinner.Spinner = spinner.Dot
	s.spinner.Style = selectedStyle

	s.setFocus(fieldTitle)
	return s
}

func (s *composeScreen) Init() tea.Cmd {
	return nil
}

func (s *composeScreen) setFocus(f composeField) {
	s.focus = f
	s.title.Blur()
	s.content.Blur()
	s.password.Blur()
	switch f {
	case fieldTitle:
		s.title.Focus()
	case fieldContent:
		s.content.Focus()
	case fieldPassword:
		s.password.Focus()
	}
}

func (s *composeScreen) draft() gateway.PostDraft {
	return gateway.PostDraft{
		Title:    s.title.Value(),
		Content:  s.content.Value(),
		Password: s.password.Value(),
	}
}

func (s *composeScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !s.busy {
			return nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return cmd

	case postCreatedMsg:
		s.busy = false
		notice := msg.result.Notice
		s.notice = &notice
		if msg.err == nil {
			s.created = true
			s.title.SetValue("")
			s.content.Reset()
			s.password.SetValue("")
			s.setFocus(fieldTitle)
		}
		return nil

	case tea.KeyMsg:
		if s.busy {
			return nil
		}
		switch {
		case key.Matches(msg, keys.Cancel):
			created := s.created
			return func() tea.Msg { return showListMsg{reload: created} }
		case key.Matches(msg, keys.NextField):
			s.setFocus((s.focus + 1) % numComposeFields)
			return nil
		case msg.String() == "shift+tab":
			s.setFocus((s.focus + numComposeFields - 1) % numComposeFields)
			return nil
		case key.Matches(msg, keys.Submit),
			s.focus == fieldPassword && key.Matches(msg, keys.Confirm):
			return s.submit()
		}

		var cmd tea.Cmd
		switch s.focus {
		case fieldTitle:
			s.title, cmd = s.title.Update(msg)
		case fieldContent:
			s.content, cmd = s.content.Update(msg)
		case fieldPassword:
			s.password, cmd = s.password.Update(msg)
		}
		return cmd
	}
	return nil
}

func (s *composeScreen) submit() tea.Cmd {
	s.busy = true
	s.notice = nil
	g, draft := s.gateway, s.draft()
	return tea.Batch(s.spinner.Tick, func() tea.Msg {
		ctx, cancel := requestContext()
		defer cancel()
		res, err := g.CreatePost(ctx, draft)
		return postCreatedMsg{result: res, err: err}
	})
}

func (s *composeScreen) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(ComposeTitle))
	b.WriteString("\n\n")
	b.WriteString(s.title.View())
	b.WriteString("\n")
	b.WriteString(s.content.View())
	b.WriteString("\n")
	b.WriteString(s.password.View())
	b.WriteString("\n\n")

	if s.busy {
		b.WriteString(s.spinner.View())
		b.WriteString(" ")
		b.WriteString(BusyLabel)
	} else {
		b.WriteString(mutedStyle.Render("[ctrl+s] 작성"))
	}

	if n := renderNotice(s.notice); n != "" {
		b.WriteString("\n\n")
		b.WriteString(n)
	}
	return b.String()
}

func (s *composeScreen) Help() []key.Binding {
	return []key.Binding{keys.NextField, keys.Submit, keys.Cancel}
}
