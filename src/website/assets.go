package website

import (
	"net/http"

	"git.gdb.dev/gdb/board/src/config"
)

func BoardCSS(c *RequestContext) ResponseData {
	type cssData struct {
		AccentColor string
	}

	var res ResponseData
	res.MustWriteTemplate("board.css", cssData{
		AccentColor: config.Config.Board.AccentColor,
	}, c.Perf)
	res.Header().Set("Content-Type", "text/css; charset=utf-8")
	res.Header().Set("Cache-Control", "max-age=86400")
	return res
}

func Health(c *RequestContext) ResponseData {
	var res ResponseData
	res.StatusCode = http.StatusOK
	res.Header().Set("Content-Type", "text/plain; charset=utf-8")
	res.Write([]byte("ok"))
	return res
}
