package website

import (
	"net/http"

	"git.gdb.dev/gdb/board/src/boardurl"
	"git.gdb.dev/gdb/board/src/gateway"
	"git.gdb.dev/gdb/board/src/oops"
	"git.gdb.dev/gdb/board/src/templates"
)

const ComposeTitle = "게시물 작성"

func (b *boardRoutes) Compose(c *RequestContext) ResponseData {
	var res ResponseData
	res.MustWriteTemplate("compose.html", templates.ComposeData{
		BaseData: getBaseData(c, ComposeTitle),
		Form: templates.ComposeForm{
			ActionUrl: boardurl.BuildCompose(),
		},
	}, c.Perf)
	return res
}

func (b *boardRoutes) ComposeSubmit(c *RequestContext) ResponseData {
	form, err := c.GetFormValues()
	if err != nil {
		return c.ErrorResponse(http.StatusBadRequest, oops.New(err, "failed to parse compose form"))
	}

	draft := gateway.PostDraft{
		Title:    form.Get("title"),
		Content:  form.Get("content"),
		Password: form.Get("password"),
	}
	result, err := b.gateway.CreatePost(c, draft)
	if err == nil {
		res := c.Redirect(boardurl.BuildCompose(), http.StatusSeeOther)
		res.AddGatewayNotice(result.Notice)
		return res
	}

	// Keep what was typed so the visitor can fix it and retry. The password
	// is never echoed back.
	baseData := getBaseData(c, ComposeTitle)
	baseData.AddImmediateNotice(string(result.Notice.Kind), result.Notice.Message)

	var res ResponseData
	res.StatusCode = http.StatusUnprocessableEntity
	res.MustWriteTemplate("compose.html", templates.ComposeData{
		BaseData: baseData,
		Form: templates.ComposeForm{
			ActionUrl: boardurl.BuildCompose(),
			Title:     draft.Title,
			Content:   draft.Content,
		},
	}, c.Perf)
	return res
}
