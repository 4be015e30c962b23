package website

import (
	"strconv"

	"git.gdb.dev/gdb/board/src/boardurl"
	"git.gdb.dev/gdb/board/src/templates"
	"git.gdb.dev/gdb/board/src/utils"
)

// parsePageParam reads the requested page. Anything unparseable or below 1
// reads as page 1 with ok false, so the caller can redirect.
func parsePageParam(pageParam string) (page int, ok bool) {
	if pageParam == "" {
		return 1, true
	}
	parsed, err := strconv.Atoi(pageParam)
	if err != nil || parsed < 1 {
		return 1, false
	}
	return parsed, true
}

// getPageInfo clamps page into range once the total is known. ok is false
// when the page had to move.
func getPageInfo(
	page int,
	totalItems int,
	itemsPerPage int,
) (
	clamped int,
	totalPages int,
	ok bool,
) {
	totalPages = utils.NumPages(totalItems, itemsPerPage)
	clamped = utils.IntClamp(1, page, totalPages)
	return clamped, totalPages, clamped == page
}

func buildPagination(current, total int) templates.Pagination {
	res := templates.Pagination{
		Current: current,
		Total:   total,
	}
	if current > 1 {
		res.PreviousUrl = boardurl.BuildHomeWithPage(current - 1)
	}
	if current < total {
		res.NextUrl = boardurl.BuildHomeWithPage(current + 1)
	}
	for i := 1; i <= total; i++ {
		res.Pages = append(res.Pages, templates.PageLink{
			Number:  i,
			Url:     boardurl.BuildHomeWithPage(i),
			Current: i == current,
		})
	}
	return res
}
