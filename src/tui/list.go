package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"git.gdb.dev/gdb/board/src/gateway"
	"git.gdb.dev/gdb/board/src/logging"
	"git.gdb.dev/gdb/board/src/models"
	"git.gdb.dev/gdb/board/src/parsing"
	"git.gdb.dev/gdb/board/src/timefmt"
	"git.gdb.dev/gdb/board/src/utils"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const EmptyListingText = "게시물이 없습니다."

type postsLoadedMsg struct {
	requested int
	page      models.PostPage
	err       error
}

type listScreen struct {
	api     API
	perPage int
	now     func() time.Time

	page       int
	totalPages int
	posts      []models.Post
	cursor     int
	loading    bool
	notice     *gateway.Notice
}

func newListScreen(api API, perPage int, now func() time.Time) *listScreen {
	return &listScreen{
		api:        api,
		perPage:    perPage,
		now:        now,
		page:       1,
		totalPages: 1,
	}
}

func (s *listScreen) load(page int) tea.Cmd {
	s.loading = true
	api, limit := s.api, s.perPage
	return func() tea.Msg {
		ctx, cancel := requestContext()
		defer cancel()
		res, err := api.ListPosts(ctx, page, limit)
		return postsLoadedMsg{requested: page, page: res, err: err}
	}
}

func (s *listScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case postsLoadedMsg:
		s.loading = false
		if msg.err != nil {
			logging.Error().Err(msg.err).Int("page", msg.requested).Msg("failed to load posts")
			notice := gateway.Failure(gateway.MsgUnreachable)
			s.notice = &notice
			s.posts = nil
			return nil
		}

		totalPages := utils.NumPages(msg.page.TotalCount, s.perPage)
		if msg.requested > totalPages {
			return s.load(totalPages)
		}

		s.page = msg.requested
		s.totalPages = totalPages
		s.posts = append([]models.Post(nil), msg.page.Posts...)
		sort.SliceStable(s.posts, func(i, j int) bool {
			return s.posts[i].CreatedAt.After(s.posts[j].CreatedAt)
		})
		s.cursor = utils.IntClamp(0, s.cursor, utils.IntMax(len(s.posts)-1, 0))
		return nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			s.cursor = utils.IntMax(s.cursor-1, 0)
		case key.Matches(msg, keys.Down):
			s.cursor = utils.IntMin(s.cursor+1, utils.IntMax(len(s.posts)-1, 0))
		case key.Matches(msg, keys.PrevPage):
			if s.page > 1 && !s.loading {
				s.cursor = 0
				return s.load(s.page - 1)
			}
		case key.Matches(msg, keys.NextPage):
			if s.page < s.totalPages && !s.loading {
				s.cursor = 0
				return s.load(s.page + 1)
			}
		case key.Matches(msg, keys.Open):
			if s.cursor < len(s.posts) {
				id := s.posts[s.cursor].ID
				return func() tea.Msg { return openPostMsg{postID: id} }
			}
		case key.Matches(msg, keys.Compose):
			return func() tea.Msg { return openComposeMsg{} }
		case key.Matches(msg, keys.Refresh):
			return s.load(s.page)
		case key.Matches(msg, keys.Quit):
			return tea.Quit
		}
	}
	return nil
}

func (s *listScreen) View() string {
	var b strings.Builder

	if n := renderNotice(s.notice); n != "" {
		b.WriteString(n)
		b.WriteString("\n\n")
	}

	if s.loading && len(s.posts) == 0 {
		b.WriteString(mutedStyle.Render("불러오는 중..."))
		return b.String()
	}
	if len(s.posts) == 0 {
		b.WriteString(mutedStyle.Render(EmptyListingText))
	}

	now := s.now()
	for i, p := range s.posts {
		marker := "  "
		title := titleStyle.Render(p.Title)
		if i == s.cursor {
			marker = selectedStyle.Render("▶ ")
			title = selectedStyle.Render(p.Title)
		}
		fmt.Fprintf(&b, "%s%s  %s\n", marker, title, mutedStyle.Render(timefmt.Relative(now, p.CreatedAt)))
		fmt.Fprintf(&b, "  %s\n\n", parsing.ListingPreview(p.Content))
	}

	b.WriteString(s.pager())
	return b.String()
}

func (s *listScreen) pager() string {
	var parts []string

	prev := "이전"
	if s.page <= 1 {
		prev = mutedStyle.Render(prev)
	}
	parts = append(parts, prev)

	for i := 1; i <= s.totalPages; i++ {
		if i == s.page {
			parts = append(parts, selectedStyle.Render(fmt.Sprintf("[%d]", i)))
		} else {
			parts = append(parts, fmt.Sprintf("%d", i))
		}
	}

	next := "다음"
	if s.page >= s.totalPages {
		next = mutedStyle.Render(next)
	}
	parts = append(parts, next)

	return strings.Join(parts, " ")
}

func (s *listScreen) Help() []key.Binding {
	return []key.Binding{keys.Up, keys.Down, keys.Open, keys.PrevPage, keys.NextPage, keys.Compose, keys.Refresh, keys.Quit}
}
