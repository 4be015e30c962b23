package templates

import (
	"html/template"
	"time"
)

type BaseData struct {
	Title       string
	BodyClasses []string
	Notices     []Notice

	CurrentUrl  string
	HomeUrl     string
	ComposeUrl  string
	BoardCSSUrl string

	RequestID string
}

func (bd *BaseData) AddImmediateNotice(class, content string) {
	bd.Notices = append(bd.Notices, Notice{
		Class:   class,
		Content: template.HTML(template.HTMLEscapeString(content)),
	})
}

type Notice struct {
	Content template.HTML
	Class   string
}

type Post struct {
	ID      string
	Title   string
	Preview string
	Content template.HTML

	CreatedAt    time.Time
	RelativeTime string
	Tooltip      string

	Url string
}

type Pagination struct {
	Current int
	Total   int

	PreviousUrl string
	NextUrl     string
	Pages       []PageLink
}

type PageLink struct {
	Number  int
	Url     string
	Current bool
}

type CommentRow struct {
	ID      string
	Content template.HTML

	IndentPx     int
	Elbow        bool
	ReplyPreview string
	RelativeTime string
	Tooltip      string
	CreatedAt    time.Time

	// "답글", or "취소" while this comment is the reply target.
	ReplyLabel string
	ReplyUrl   string
	IsTarget   bool

	DeleteUrl       string
	DeleteActionUrl string
	DeleteFormOpen  bool
	CancelDeleteUrl string
}

type CommentForm struct {
	ActionUrl string

	ReplyTarget    string
	Placeholder    string
	Content        string
	Password       string
	Autofocus      bool
	Highlight      bool
	CancelReplyUrl string
}

type PasswordForm struct {
	ActionUrl   string
	CancelUrl   string
	Prompt      string
	Placeholder string
	Hidden      map[string]string
}

type ComposeForm struct {
	ActionUrl string
	Title     string
	Content   string
}

type ListingData struct {
	BaseData

	Posts      []Post
	Pagination Pagination
	EmptyText  string
}

type DetailData struct {
	BaseData

	Post           Post
	DeletePostUrl  string
	DeletePostForm *PasswordForm

	Comments    []CommentRow
	CommentForm CommentForm
}

type ComposeData struct {
	BaseData

	Form ComposeForm
}

type ErrorData struct {
	BaseData

	Status  int
	Message string
}
