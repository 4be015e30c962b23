package tui

import (
	"strings"

	"git.gdb.dev/gdb/board/src/gateway"
	"github.com/charmbracelet/bubbles/textinput"
)

type deleteKind int

const (
	deleteComment deleteKind = iota
	deletePost
)

// passwordModal asks for the password before a delete. Confirming with an
// empty field still goes to the gateway, which rejects it without a request.
type passwordModal struct {
	kind     deleteKind
	targetID string
	input    textinput.Model
}

func newPasswordModal(kind deleteKind, targetID string) *passwordModal {
	in := newInput(PasswordPlaceholder)
	in.EchoMode = textinput.EchoPassword
	in.Focus()
	return &passwordModal{
		kind:     kind,
		targetID: targetID,
		input:    in,
	}
}

func (m *passwordModal) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(gateway.MsgPasswordPrompt))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("enter 확인 · esc 취소"))
	return modalStyle.Render(b.String())
}
