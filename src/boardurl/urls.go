package boardurl

import (
	"net/url"
	"regexp"
	"strconv"

	"git.gdb.dev/gdb/board/src/oops"
)

var RegexHome = regexp.MustCompile("^/$")

func BuildHome() string {
	return Url("/", nil)
}

func BuildHomeWithPage(page int) string {
	if page < 1 {
		panic(oops.New(nil, "Invalid listing page (%d), must be >= 1", page))
	}
	if page == 1 {
		return BuildHome()
	}
	return Url("/", []Q{{Name: "page", Value: strconv.Itoa(page)}})
}

var RegexCompose = regexp.MustCompile("^/post$")

func BuildCompose() string {
	return Url("/post", nil)
}

// DetailQuery is the reply/delete state of a detail page, carried in its
// query string so it survives the redirect after a form post.
type DetailQuery struct {
	// The comment being replied to.
	Reply string
	// A comment whose reply button was just pressed.
	Activate string
	// A comment whose delete form is open.
	Delete string
	// Set to open the post delete form.
	DeletePost bool
}

func (q DetailQuery) params() []Q {
	var res []Q
	res = append(res, Q{Name: "reply", Value: q.Reply})
	res = append(res, Q{Name: "activate", Value: q.Activate})
	res = append(res, Q{Name: "delete", Value: q.Delete})
	if q.DeletePost {
		res = append(res, Q{Name: "deletepost", Value: "1"})
	}
	return res
}

var RegexPostDetail = regexp.MustCompile(`^/detail/(?P<postid>[^/]+)$`)

func BuildPostDetail(postID string) string {
	return BuildPostDetailWithQuery(postID, DetailQuery{})
}

func BuildPostDetailWithQuery(postID string, q DetailQuery) string {
	return Url("/detail/"+url.PathEscape(postID), q.params())
}

var RegexPostDelete = regexp.MustCompile(`^/detail/(?P<postid>[^/]+)/delete$`)

func BuildPostDelete(postID string) string {
	return Url("/detail/"+url.PathEscape(postID)+"/delete", nil)
}

var RegexCommentCreate = regexp.MustCompile(`^/detail/(?P<postid>[^/]+)/comment$`)

func BuildCommentCreate(postID string) string {
	return Url("/detail/"+url.PathEscape(postID)+"/comment", nil)
}

var RegexCommentDelete = regexp.MustCompile(`^/detail/(?P<postid>[^/]+)/comment/(?P<commentid>[^/]+)/delete$`)

func BuildCommentDelete(postID, commentID string) string {
	return Url("/detail/"+url.PathEscape(postID)+"/comment/"+url.PathEscape(commentID)+"/delete", nil)
}

var RegexBoardCSS = regexp.MustCompile(`^/board\.css$`)

func BuildBoardCSS(version string) string {
	return Url("/board.css", []Q{{Name: "v", Value: version}})
}

var RegexHealth = regexp.MustCompile("^/health$")

func BuildHealth() string {
	return Url("/health", nil)
}
