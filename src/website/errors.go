package website

import (
	"net/http"
	"strings"

	"git.gdb.dev/gdb/board/src/templates"
)

func FourOhFour(c *RequestContext) ResponseData {
	var res ResponseData
	res.StatusCode = http.StatusNotFound

	if c.Req.Header["Accept"] != nil && strings.Contains(c.Req.Header["Accept"][0], "text/html") {
		res.MustWriteTemplate("error.html", templates.ErrorData{
			BaseData: getBaseData(c, "페이지를 찾을 수 없습니다"),
			Status:   http.StatusNotFound,
			Message:  "페이지를 찾을 수 없습니다.",
		}, c.Perf)
	} else {
		res.Write([]byte("Not Found"))
	}
	return res
}
