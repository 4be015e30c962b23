package website

import (
	"context"
	"net/http"
	"regexp"

	"git.gdb.dev/gdb/board/src/boardurl"
	"git.gdb.dev/gdb/board/src/config"
	"git.gdb.dev/gdb/board/src/gateway"
	"git.gdb.dev/gdb/board/src/models"
	"git.gdb.dev/gdb/board/src/perf"
)

// BoardAPI is everything the website asks of the board service.
type BoardAPI interface {
	gateway.API
	ListPosts(ctx context.Context, page, limit int) (models.PostPage, error)
	GetPost(ctx context.Context, id string) (models.Post, error)
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
}

type boardRoutes struct {
	api     BoardAPI
	gateway *gateway.Gateway
}

var RegexPerfmon = regexp.MustCompile("^/perfmon$")

func NewWebsiteRoutes(api BoardAPI, perfCollector *perf.PerfCollector) http.Handler {
	router := &Router{}
	routes := RouteBuilder{
		Router: router,
		Middlewares: []Middleware{
			requestIDMiddleware,
			trackRequestPerf(perfCollector),
			logContextErrorsMiddleware,
			storeNoticesInCookieMiddleware,
			panicCatcherMiddleware,
		},
	}

	b := &boardRoutes{
		api:     api,
		gateway: gateway.New(api),
	}

	routes.GET(boardurl.RegexHome, b.Listing)

	routes.GET(boardurl.RegexCompose, b.Compose)
	routes.POST(boardurl.RegexCompose, b.ComposeSubmit)

	routes.GET(boardurl.RegexPostDetail, b.PostDetail)
	routes.POST(boardurl.RegexPostDelete, b.PostDelete)
	routes.POST(boardurl.RegexCommentCreate, b.CommentSubmit)
	routes.POST(boardurl.RegexCommentDelete, b.CommentDelete)

	routes.GET(boardurl.RegexBoardCSS, BoardCSS)
	routes.GET(boardurl.RegexHealth, Health)
	if config.Config.Env == config.Dev {
		routes.GET(RegexPerfmon, Perfmon)
	}

	routes.AnyMethod(regexp.MustCompile("^"), FourOhFour)

	return router
}
