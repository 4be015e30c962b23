package website

import (
	"encoding/base64"
	"errors"
	"html"
	"html/template"
	"net/http"
	"strings"
	"time"

	"git.gdb.dev/gdb/board/src/config"
	"git.gdb.dev/gdb/board/src/gateway"
	"git.gdb.dev/gdb/board/src/templates"
)

const NoticesCookieName = "board_notices"

func getNoticesFromCookie(c *RequestContext) []templates.Notice {
	cookie, err := c.Req.Cookie(NoticesCookieName)
	if err != nil {
		if !errors.Is(err, http.ErrNoCookie) {
			c.Logger.Warn().Err(err).Msg("failed to get notices cookie")
		}
		return nil
	}
	return deserializeNoticesFromCookie(cookie.Value)
}

func storeNoticesInCookie(c *RequestContext, res *ResponseData) {
	serialized := serializeNoticesForCookie(c, res.FutureNotices)
	if serialized != "" {
		noticesCookie := http.Cookie{
			Name:     NoticesCookieName,
			Value:    serialized,
			Path:     "/",
			Expires:  time.Now().Add(time.Minute * 5),
			Secure:   config.Config.Env != config.Dev,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
		res.SetCookie(&noticesCookie)
	} else if !(res.StatusCode >= 300 && res.StatusCode < 400) {
		// Don't clear on redirect; the next page still has to show them.
		noticesCookie := http.Cookie{
			Name:   NoticesCookieName,
			Path:   "/",
			MaxAge: -1,
		}
		res.SetCookie(&noticesCookie)
	}
}

// Cookie values can't hold Hangul, so the notice list is base64 encoded.
func serializeNoticesForCookie(c *RequestContext, notices []templates.Notice) string {
	var builder strings.Builder
	maxSize := 1024 // Make sure we don't use too much space for notices.
	size := 0
	for i, notice := range notices {
		sizeIncrease := len(notice.Class) + len(string(notice.Content)) + 1
		if i != 0 {
			sizeIncrease += 1
		}
		if size+sizeIncrease > maxSize {
			c.Logger.Warn().Interface("Notices", notices).Msg("Notices too big for cookie")
			break
		}

		if i != 0 {
			builder.WriteString("\t")
		}
		builder.WriteString(notice.Class)
		builder.WriteString("|")
		builder.WriteString(string(notice.Content))

		size += sizeIncrease
	}
	if builder.Len() == 0 {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(builder.String()))
}

func deserializeNoticesFromCookie(cookieVal string) []templates.Notice {
	decoded, err := base64.RawURLEncoding.DecodeString(cookieVal)
	if err != nil {
		return nil
	}

	var result []templates.Notice
	notices := strings.Split(string(decoded), "\t")
	for _, notice := range notices {
		parts := strings.SplitN(notice, "|", 2)
		if len(parts) == 2 {
			result = append(result, templates.Notice{
				Class:   parts[0],
				// Re-escape so a forged cookie can't inject markup.
				Content: template.HTML(template.HTMLEscapeString(html.UnescapeString(parts[1]))),
			})
		}
	}
	return result
}

func storeNoticesInCookieMiddleware(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		res := h(c)
		storeNoticesInCookie(c, &res)
		return res
	}
}

func (rd *ResponseData) AddGatewayNotice(n gateway.Notice) {
	rd.AddFutureNotice(string(n.Kind), n.Message)
}
