package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	Open     key.Binding
	Compose  key.Binding
	Refresh  key.Binding
	Back     key.Binding
	Quit     key.Binding

	Reply      key.Binding
	Delete     key.Binding
	DeletePost key.Binding
	Write      key.Binding
	NextField  key.Binding
	Submit     key.Binding
	Confirm    key.Binding
	Cancel     key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "위")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "아래")),
	PrevPage: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "이전")),
	NextPage: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "다음")),
	Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "열기")),
	Compose:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "글쓰기")),
	Refresh:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "새로고침")),
	Back:     key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc", "뒤로")),
	Quit:     key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "종료")),

	Reply:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "답글")),
	Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "삭제")),
	DeletePost: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "게시물 삭제")),
	Write:      key.NewBinding(key.WithKeys("i", "tab"), key.WithHelp("i", "댓글 입력")),
	NextField:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "다음 칸")),
	Submit:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "작성")),
	Confirm:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "확인")),
	Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "취소")),
}
