package website

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"git.gdb.dev/gdb/board/src/boardurl"
	"git.gdb.dev/gdb/board/src/logging"
	"git.gdb.dev/gdb/board/src/oops"
	"git.gdb.dev/gdb/board/src/perf"
	"git.gdb.dev/gdb/board/src/templates"
	"github.com/rs/zerolog"
)

// Router tries its routes in registration order. Every route is a chain of
// regexes, each consuming a prefix of the path; named groups become path
// params. Register a catch-all last.
type Router struct {
	Routes []Route
}

type Route struct {
	// Empty matches any method.
	Method  string
	Regexes []*regexp.Regexp
	Handler Handler
}

func (r *Route) String() string {
	patterns := make([]string, len(r.Regexes))
	for i, re := range r.Regexes {
		patterns[i] = re.String()
	}
	return fmt.Sprintf("%s %v", r.Method, patterns)
}

type Handler func(c *RequestContext) ResponseData
type Middleware func(h Handler) Handler

type RouteBuilder struct {
	Router      *Router
	Prefixes    []*regexp.Regexp
	Middlewares []Middleware
}

func (rb *RouteBuilder) Handle(methods []string, regex *regexp.Regexp, h Handler) {
	if !strings.HasPrefix(regex.String(), "^") {
		panic("route regexes must be anchored with '^': " + regex.String())
	}

	// The first middleware ends up outermost.
	for i := len(rb.Middlewares) - 1; i >= 0; i-- {
		h = rb.Middlewares[i](h)
	}

	regexes := append(append([]*regexp.Regexp(nil), rb.Prefixes...), regex)
	for _, method := range methods {
		rb.Router.Routes = append(rb.Router.Routes, Route{
			Method:  method,
			Regexes: regexes,
			Handler: h,
		})
	}
}

func (rb *RouteBuilder) AnyMethod(regex *regexp.Regexp, h Handler) {
	rb.Handle([]string{""}, regex, h)
}

func (rb *RouteBuilder) GET(regex *regexp.Regexp, h Handler) {
	rb.Handle([]string{http.MethodGet}, regex, h)
}

func (rb *RouteBuilder) POST(regex *regexp.Regexp, h Handler) {
	rb.Handle([]string{http.MethodPost}, regex, h)
}

// match runs the route's regexes over path in turn. Trailing slashes are
// never consumed, so "/detail/1/" and "/detail/1" route the same.
func (r *Route) match(path string) (map[string]string, bool) {
	params := map[string]string{}
	rest := path
	for _, re := range r.Regexes {
		m := re.FindStringSubmatch(rest)
		if m == nil {
			return nil, false
		}
		for i, name := range re.SubexpNames() {
			if name != "" {
				params[name] = m[i]
			}
		}
		rest = rest[len(strings.TrimSuffix(m[0], "/")):]
		if rest == "" {
			rest = "/"
		}
	}
	return params, true
}

func (r *Router) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	method := req.Method
	if method == http.MethodHead {
		method = http.MethodGet
	}

	path := strings.TrimSuffix(req.URL.Path, "/")
	if path == "" {
		path = "/"
	}

	for _, route := range r.Routes {
		if route.Method != "" && route.Method != method {
			continue
		}
		params, ok := route.match(path)
		if !ok {
			continue
		}

		c := &RequestContext{
			Route:      route.String(),
			Logger:     logging.GlobalLogger(),
			Req:        req,
			Res:        rw,
			PathParams: params,

			ctx: req.Context(),
		}
		doRequest(rw, c, route.Handler)
		return
	}

	panic(fmt.Sprintf("no route matched %s; register a catch-all route for 404s", req.URL))
}

type RequestContext struct {
	Route      string
	Logger     *zerolog.Logger
	Req        *http.Request
	PathParams map[string]string
	RequestID  string

	Res http.ResponseWriter

	Perf          *perf.RequestPerf
	PerfCollector *perf.PerfCollector

	ctx context.Context
}

// A RequestContext is handed straight to the board API client as its
// context.
var _ context.Context = &RequestContext{}

func (c *RequestContext) Deadline() (time.Time, bool) { return c.ctx.Deadline() }
func (c *RequestContext) Done() <-chan struct{}       { return c.ctx.Done() }
func (c *RequestContext) Err() error                  { return c.ctx.Err() }

func (c *RequestContext) Value(key any) any {
	if key == perf.PerfContextKey {
		return c.Perf
	}
	return c.ctx.Value(key)
}

// FullUrl is the URL as the visitor sees it, honoring a proxy's
// X-Forwarded-Proto.
func (c *RequestContext) FullUrl() string {
	scheme := c.Req.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
		if c.Req.TLS != nil {
			scheme = "https"
		}
	}
	return scheme + "://" + c.Req.Host + c.Req.URL.String()
}

func (c *RequestContext) GetFormValues() (url.Values, error) {
	if err := c.Req.ParseForm(); err != nil {
		return nil, err
	}
	return c.Req.PostForm, nil
}

// Redirect sends the visitor to dest, which is normally built with
// boardurl. Relative destinations resolve against the current request.
func (c *RequestContext) Redirect(dest string, code int) ResponseData {
	u, err := url.Parse(dest)
	if err != nil {
		c.Logger.Warn().Err(err).Str("dest", dest).Msg("Failed to parse redirect URI")
		return c.Redirect(boardurl.BuildHome(), http.StatusSeeOther)
	}
	if !u.IsAbs() && !strings.HasPrefix(dest, "/") {
		u = c.Req.URL.ResolveReference(u)
	}
	dest = u.String()

	var res ResponseData
	res.StatusCode = code
	res.Header().Set("Location", dest)
	switch c.Req.Method {
	case http.MethodGet:
		res.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(&res, "<a href=\"%s\">%s</a>.\n", html.EscapeString(dest), http.StatusText(code))
	case http.MethodHead:
		res.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	return res
}

func (c *RequestContext) ErrorResponse(status int, errs ...error) ResponseData {
	defer func() {
		if r := recover(); r != nil {
			logContextErrors(c, errs...)
			panic(r)
		}
	}()

	res := ResponseData{
		StatusCode: status,
		Errors:     errs,
	}
	res.MustWriteTemplate("error.html", templates.ErrorData{
		BaseData: getBaseData(c, "오류"),
		Status:   status,
		Message:  "요청을 처리하는 중 문제가 발생했습니다.",
	}, c.Perf)
	return res
}

// ResponseData is a buffered response. Handlers return it and doRequest
// writes it out, so middlewares can still change status and headers.
type ResponseData struct {
	StatusCode    int
	Body          *bytes.Buffer
	Errors        []error
	FutureNotices []templates.Notice

	header http.Header
}

var _ http.ResponseWriter = &ResponseData{}

func (rd *ResponseData) Header() http.Header {
	if rd.header == nil {
		rd.header = make(http.Header)
	}
	return rd.header
}

func (rd *ResponseData) Write(p []byte) (int, error) {
	if rd.Body == nil {
		rd.Body = new(bytes.Buffer)
	}
	return rd.Body.Write(p)
}

func (rd *ResponseData) WriteHeader(status int) {
	rd.StatusCode = status
}

func (rd *ResponseData) SetCookie(cookie *http.Cookie) {
	rd.Header().Add("Set-Cookie", cookie.String())
}

// AddFutureNotice queues a notice for the next page the visitor sees, which
// after a form post is the page being redirected to.
func (rd *ResponseData) AddFutureNotice(class string, content string) {
	rd.FutureNotices = append(rd.FutureNotices, templates.Notice{Class: class, Content: template.HTML(template.HTMLEscapeString(content))})
}

func (rd *ResponseData) WriteTemplate(name string, data interface{}, rp *perf.RequestPerf) error {
	b := rp.StartBlock("TEMPLATE", name)
	defer b.End()
	return templates.GetTemplate(name).Execute(rd, data)
}

func (rd *ResponseData) MustWriteTemplate(name string, data interface{}, rp *perf.RequestPerf) {
	if err := rd.WriteTemplate(name, data, rp); err != nil {
		panic(oops.New(err, "failed to render %s", name))
	}
}

func (rd *ResponseData) WriteJson(data any, rp *perf.RequestPerf) {
	b := rp.StartBlock("JSON", "Encoding response")
	defer b.End()

	body, err := json.Marshal(data)
	if err != nil {
		panic(err)
	}
	rd.Header().Set("Content-Type", "application/json")
	rd.Write(body)
}

func doRequest(rw http.ResponseWriter, c *RequestContext, h Handler) {
	defer func() {
		// Last resort. Rendering an error page belongs in a middleware.
		if recovered := recover(); recovered != nil {
			rw.WriteHeader(http.StatusInternalServerError)
			logging.LogPanicValue(c.Logger, recovered, "request panicked and was not handled")
			rw.Write([]byte("There was a problem handling your request."))
		}
	}()

	res := h(c)
	if res.StatusCode == 0 {
		res.StatusCode = http.StatusOK
	}

	// Content-Type and Content-Length are set here rather than left to
	// http.ResponseWriter so HEAD responses carry them too.
	if res.Body != nil {
		if res.Header().Get("Content-Type") == "" {
			sniff := res.Body.Bytes()
			if len(sniff) > 512 {
				sniff = sniff[:512]
			}
			res.Header().Set("Content-Type", http.DetectContentType(sniff))
		}
		if res.Header().Get("Content-Length") == "" {
			res.Header().Set("Content-Length", strconv.Itoa(res.Body.Len()))
		}
	}

	for name, vals := range res.Header() {
		for _, val := range vals {
			rw.Header().Add(name, val)
		}
	}
	rw.WriteHeader(res.StatusCode)

	if res.Body == nil || c.Req.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(rw, res.Body); err != nil {
		if errors.Is(err, syscall.EPIPE) {
			logging.Debug().Msg("Broken pipe")
		} else {
			logging.Error().Err(err).Msg("failed to write response body")
		}
	}
}
