package website

import (
	"errors"
	"net/http"
	"time"

	"git.gdb.dev/gdb/board/src/boardapi"
	"git.gdb.dev/gdb/board/src/boardurl"
	"git.gdb.dev/gdb/board/src/commenttree"
	"git.gdb.dev/gdb/board/src/composer"
	"git.gdb.dev/gdb/board/src/config"
	"git.gdb.dev/gdb/board/src/gateway"
	"git.gdb.dev/gdb/board/src/models"
	"git.gdb.dev/gdb/board/src/oops"
	"git.gdb.dev/gdb/board/src/templates"
)

const PasswordPlaceholder = "비밀번호..."

func detailQueryFromRequest(c *RequestContext) boardurl.DetailQuery {
	q := c.Req.URL.Query()
	return boardurl.DetailQuery{
		Reply:      q.Get("reply"),
		Activate:   q.Get("activate"),
		Delete:     q.Get("delete"),
		DeletePost: q.Get("deletepost") != "",
	}
}

func (b *boardRoutes) PostDetail(c *RequestContext) ResponseData {
	return b.renderDetail(c, c.PathParams["postid"], detailQueryFromRequest(c), detailExtras{})
}

type detailExtras struct {
	StatusCode int
	// Values to put back into the comment form after a failed submit.
	Draft  *composer.Draft
	Notice *gateway.Notice
}

func (b *boardRoutes) renderDetail(c *RequestContext, postID string, q boardurl.DetailQuery, extras detailExtras) ResponseData {
	post, err := b.api.GetPost(c, postID)
	if errors.Is(err, boardapi.ErrNotFound) {
		return FourOhFour(c)
	} else if err != nil {
		return c.ErrorResponse(http.StatusBadGateway, oops.New(err, "failed to fetch post %s", postID))
	}

	baseData := getBaseData(c, post.Title)
	if extras.Notice != nil {
		baseData.AddImmediateNotice(string(extras.Notice.Kind), extras.Notice.Message)
	}

	comments, err := b.api.ListComments(c, postID)
	if err != nil {
		c.Logger.Error().Err(err).Str("postId", postID).Msg("failed to fetch comments")
		baseData.AddImmediateNotice(string(gateway.NoticeFailure), gateway.MsgUnreachable)
		comments = nil
	}

	now := time.Now().In(config.Config.Board.Location())
	tree := commenttree.Build(now, comments)
	for _, w := range tree.Warnings {
		c.Logger.Warn().Str("postId", postID).Str("commentId", w.CommentID).Msg(w.String())
	}

	// The composer only lives for this request. Its reply target comes back
	// from the query string, and pressing a reply button replays as an
	// activation so toggling and highlighting behave the same as in the TUI.
	autofocus := false
	comp := composer.New(composer.Options{
		PostID:  postID,
		Gateway: b.gateway,
		Focus:   composer.FocusFunc(func() { autofocus = true }),
	})
	defer comp.Close()

	if target, ok := findComment(comments, q.Reply); ok {
		comp.Restore(composer.Target{ID: target.ID, Content: target.Content})
	}
	if activated, ok := findComment(comments, q.Activate); ok {
		comp.ActivateReply(activated)
	}

	var replyTarget string
	if target, ok := comp.Target(); ok {
		replyTarget = target.ID
	}

	tmplPost := templates.PostToTemplate(post, now)
	tmplPost.AddContent(post.Content)

	form := templates.CommentForm{
		ActionUrl:   boardurl.BuildCommentCreate(postID),
		ReplyTarget: replyTarget,
		Placeholder: comp.Placeholder(),
		Autofocus:   autofocus,
		Highlight:   comp.Visual() == composer.JustActivated,
	}
	if extras.Draft != nil {
		form.Content = extras.Draft.Content
		form.Password = extras.Draft.Password
	}
	if replyTarget != "" {
		form.CancelReplyUrl = boardurl.BuildPostDetail(postID)
	}

	data := templates.DetailData{
		BaseData: baseData,
		Post:     tmplPost,
		DeletePostUrl: boardurl.BuildPostDetailWithQuery(postID, boardurl.DetailQuery{
			Reply:      replyTarget,
			DeletePost: true,
		}),
		Comments: templates.CommentTreeToTemplate(tree, templates.CommentState{
			PostID:        postID,
			ReplyTarget:   replyTarget,
			DeleteOpenFor: q.Delete,
		}),
		CommentForm: form,
	}
	if q.DeletePost {
		data.DeletePostForm = &templates.PasswordForm{
			ActionUrl:   boardurl.BuildPostDelete(postID),
			CancelUrl:   boardurl.BuildPostDetailWithQuery(postID, boardurl.DetailQuery{Reply: replyTarget}),
			Prompt:      gateway.MsgPasswordPrompt,
			Placeholder: PasswordPlaceholder,
			Hidden:      map[string]string{"reply": replyTarget},
		}
	}

	var res ResponseData
	res.StatusCode = extras.StatusCode
	res.MustWriteTemplate("detail.html", data, c.Perf)
	return res
}

func (b *boardRoutes) CommentSubmit(c *RequestContext) ResponseData {
	postID := c.PathParams["postid"]
	form, err := c.GetFormValues()
	if err != nil {
		return c.ErrorResponse(http.StatusBadRequest, oops.New(err, "failed to parse comment form"))
	}
	replyID := form.Get("reply")
	draft := composer.Draft{Content: form.Get("content"), Password: form.Get("password")}

	// Empty fields fail before anything is sent, including the reply lookup.
	if err := b.gateway.Check(gateway.CommentDraft{Content: draft.Content, Password: draft.Password}); err != nil {
		notice := gateway.NoticeForError(err, gateway.MsgCommentCreateFailed)
		return b.renderDetail(c, postID, boardurl.DetailQuery{Reply: replyID}, detailExtras{
			StatusCode: http.StatusUnprocessableEntity,
			Draft:      &draft,
			Notice:     &notice,
		})
	}

	// The redirect after success re-fetches the comments, so no refresh here.
	comp := composer.New(composer.Options{
		PostID:  postID,
		Gateway: b.gateway,
	})
	defer comp.Close()

	if replyID != "" {
		comments, err := b.api.ListComments(c, postID)
		if err != nil {
			c.Logger.Error().Err(err).Str("postId", postID).Msg("failed to look up reply target")
			notice := gateway.Failure(gateway.MsgUnreachable)
			return b.renderDetail(c, postID, boardurl.DetailQuery{Reply: replyID}, detailExtras{
				StatusCode: http.StatusBadGateway,
				Draft:      &draft,
				Notice:     &notice,
			})
		}
		if target, ok := findComment(comments, replyID); ok {
			comp.Restore(composer.Target{ID: target.ID, Content: target.Content})
		} else {
			// The comment went away while the reply was being typed.
			notice := gateway.Failure(gateway.MsgCommentCreateFailed)
			return b.renderDetail(c, postID, boardurl.DetailQuery{}, detailExtras{
				StatusCode: http.StatusUnprocessableEntity,
				Draft:      &draft,
				Notice:     &notice,
			})
		}
	}

	err = comp.Submit(c, form.Get("content"), form.Get("password"))
	if err == nil {
		return c.Redirect(boardurl.BuildPostDetail(postID), http.StatusSeeOther)
	}

	notice := gateway.NoticeForError(err, gateway.MsgCommentCreateFailed)
	draft = comp.Draft()
	return b.renderDetail(c, postID, boardurl.DetailQuery{Reply: replyID}, detailExtras{
		StatusCode: http.StatusUnprocessableEntity,
		Draft:      &draft,
		Notice:     &notice,
	})
}

func (b *boardRoutes) PostDelete(c *RequestContext) ResponseData {
	postID := c.PathParams["postid"]
	form, err := c.GetFormValues()
	if err != nil {
		return c.ErrorResponse(http.StatusBadRequest, oops.New(err, "failed to parse delete form"))
	}

	result, err := b.gateway.DeletePost(c, postID, gateway.StaticPassword(form.Get("password")))
	var res ResponseData
	if err == nil && result.NavigateToListing {
		res = c.Redirect(boardurl.BuildHome(), http.StatusSeeOther)
	} else {
		res = c.Redirect(boardurl.BuildPostDetailWithQuery(postID, boardurl.DetailQuery{
			Reply:      form.Get("reply"),
			DeletePost: true,
		}), http.StatusSeeOther)
	}
	res.AddGatewayNotice(result.Notice)
	return res
}

func (b *boardRoutes) CommentDelete(c *RequestContext) ResponseData {
	postID := c.PathParams["postid"]
	commentID := c.PathParams["commentid"]
	form, err := c.GetFormValues()
	if err != nil {
		return c.ErrorResponse(http.StatusBadRequest, oops.New(err, "failed to parse delete form"))
	}

	// The redirect re-fetches the comments, which is the refresh.
	result, err := b.gateway.DeleteComment(c, commentID, gateway.StaticPassword(form.Get("password")), nil)
	var res ResponseData
	if err == nil {
		res = c.Redirect(boardurl.BuildPostDetail(postID), http.StatusSeeOther)
	} else {
		res = c.Redirect(boardurl.BuildPostDetailWithQuery(postID, boardurl.DetailQuery{
			Delete: commentID,
		}), http.StatusSeeOther)
	}
	res.AddGatewayNotice(result.Notice)
	return res
}

func findComment(comments []models.Comment, id string) (models.Comment, bool) {
	if id == "" {
		return models.Comment{}, false
	}
	for _, c := range comments {
		if c.ID == id {
			return c, true
		}
	}
	return models.Comment{}, false
}
