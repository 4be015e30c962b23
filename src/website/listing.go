package website

import (
	"net/http"
	"sort"
	"time"

	"git.gdb.dev/gdb/board/src/boardurl"
	"git.gdb.dev/gdb/board/src/config"
	"git.gdb.dev/gdb/board/src/gateway"
	"git.gdb.dev/gdb/board/src/models"
	"git.gdb.dev/gdb/board/src/templates"
)

const EmptyListingText = "게시물이 없습니다."

func (b *boardRoutes) Listing(c *RequestContext) ResponseData {
	page, ok := parsePageParam(c.Req.URL.Query().Get("page"))
	if !ok {
		return c.Redirect(boardurl.BuildHomeWithPage(page), http.StatusSeeOther)
	}

	perPage := config.Config.Board.PostsPerPage
	baseData := getBaseData(c, "")

	postPage, err := b.api.ListPosts(c, page, perPage)
	if err != nil {
		c.Logger.Error().Err(err).Int("page", page).Msg("failed to fetch posts")
		baseData.AddImmediateNotice(string(gateway.NoticeFailure), gateway.MsgUnreachable)
		postPage = models.PostPage{}
	}

	clamped, totalPages, ok := getPageInfo(page, postPage.TotalCount, perPage)
	if !ok && err == nil {
		return c.Redirect(boardurl.BuildHomeWithPage(clamped), http.StatusSeeOther)
	}

	// Newest first, whatever order the page arrived in.
	posts := postPage.Posts
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})

	now := time.Now().In(config.Config.Board.Location())
	tmplPosts := make([]templates.Post, len(posts))
	for i, p := range posts {
		tmplPosts[i] = templates.PostToTemplate(p, now)
	}

	var res ResponseData
	res.MustWriteTemplate("home.html", templates.ListingData{
		BaseData:   baseData,
		Posts:      tmplPosts,
		Pagination: buildPagination(clamped, totalPages),
		EmptyText:  EmptyListingText,
	}, c.Perf)
	return res
}
