package website

import (
	"git.gdb.dev/gdb/board/src/boardurl"
	"git.gdb.dev/gdb/board/src/config"
	"git.gdb.dev/gdb/board/src/templates"
)

func getBaseData(c *RequestContext, title string) templates.BaseData {
	return templates.BaseData{
		Title:   title,
		Notices: getNoticesFromCookie(c),

		CurrentUrl:  c.FullUrl(),
		HomeUrl:     boardurl.BuildHome(),
		ComposeUrl:  boardurl.BuildCompose(),
		BoardCSSUrl: boardurl.BuildBoardCSS(config.Config.Board.AccentColor),

		RequestID: c.RequestID,
	}
}
