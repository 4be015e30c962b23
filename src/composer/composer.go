// Package composer holds the state behind the comment input: which comment,
// if any, is being replied to, the short highlight shown right after a reply
// is started, and the draft being typed.
package composer

import (
	"context"
	"sync"
	"time"

	"git.gdb.dev/gdb/board/src/gateway"
	"git.gdb.dev/gdb/board/src/logging"
	"git.gdb.dev/gdb/board/src/models"
	"git.gdb.dev/gdb/board/src/utils"
)

const (
	DefaultDecay = 800 * time.Millisecond

	PlaceholderComment = "댓글 입력..."
	PlaceholderReply   = "에 답글 입력..."

	placeholderPreviewLength = 10
)

type VisualState int

const (
	Idle VisualState = iota
	JustActivated
)

func (s VisualState) String() string {
	if s == JustActivated {
		return "justActivated"
	}
	return "idle"
}

// Target is the comment being replied to. Content is cached so the reply can
// carry a snippet of it.
type Target struct {
	ID      string
	Content string
}

type Draft struct {
	Content  string
	Password string
}

// Focuser moves input focus onto the compose field.
type Focuser interface {
	Focus()
}

type FocusFunc func()

func (f FocusFunc) Focus() { f() }

type nopFocuser struct{}

func (nopFocuser) Focus() {}

// Submitter is the part of the gateway the composer submits through.
type Submitter interface {
	Check(draft any) error
	CreateComment(ctx context.Context, postID string, draft gateway.CommentDraft) (models.Comment, error)
	CreateReply(ctx context.Context, parentID, replyTo string, draft gateway.CommentDraft) (models.Comment, error)
}

var _ Submitter = &gateway.Gateway{}

type Options struct {
	PostID  string
	Gateway Submitter

	// Called after a successful submit, before the draft is cleared. Views
	// that re-fetch on their own can leave it nil.
	Refresh func(ctx context.Context) error

	Focus Focuser
	// Called after every state change, outside the composer's lock. May be
	// called from the timer goroutine.
	OnChange func()

	DecayAfter time.Duration
	Scheduler  utils.Scheduler
}

type Composer struct {
	postID     string
	gateway    Submitter
	refresh    func(ctx context.Context) error
	focus      Focuser
	onChange   func()
	decayAfter time.Duration

	timer *utils.ReplaceableTimer

	mu     sync.Mutex
	target *Target
	visual VisualState
	draft  Draft
	gen    uint64
	closed bool
}

func New(opts Options) *Composer {
	c := &Composer{
		postID:     opts.PostID,
		gateway:    opts.Gateway,
		refresh:    opts.Refresh,
		focus:      opts.Focus,
		onChange:   opts.OnChange,
		decayAfter: utils.OrDefault(opts.DecayAfter, DefaultDecay),
		timer:      utils.NewReplaceableTimer(opts.Scheduler),
	}
	if c.focus == nil {
		c.focus = nopFocuser{}
	}
	return c
}

// ActivateReply starts a reply to comment, or cancels it if comment is
// already the target. Focus always moves to the compose field.
func (c *Composer) ActivateReply(comment models.Comment) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.target != nil && c.target.ID == comment.ID {
		c.clearTargetLocked()
	} else {
		c.target = &Target{ID: comment.ID, Content: comment.Content}
		c.visual = JustActivated
		c.gen++
		gen := c.gen
		c.timer.Replace(c.decayAfter, func() {
			c.decay(gen)
		})
	}
	c.mu.Unlock()

	c.focus.Focus()
	c.changed()
}

// Restore sets the target without highlighting or focusing, for views that
// rebuild the composer from saved state.
func (c *Composer) Restore(target Target) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.target = &target
}

func (c *Composer) decay(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen || c.visual != JustActivated {
		c.mu.Unlock()
		return
	}
	c.visual = Idle
	c.mu.Unlock()

	c.changed()
}

func (c *Composer) clearTargetLocked() {
	c.target = nil
	c.visual = Idle
	c.gen++
	c.timer.Cancel()
}

func (c *Composer) Target() (Target, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.target == nil {
		return Target{}, false
	}
	return *c.target, true
}

func (c *Composer) IsTarget(commentID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target != nil && c.target.ID == commentID
}

func (c *Composer) Visual() VisualState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visual
}

// Draft is what the input fields should show: the last submitted values
// after a failure, or empty after a success.
func (c *Composer) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *Composer) Placeholder() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.target == nil {
		return PlaceholderComment
	}
	preview, _ := utils.Truncate(c.target.Content, placeholderPreviewLength)
	return preview + PlaceholderReply
}

// Submit sends the draft as a reply to the current target, or as a top-level
// comment when there is none. Empty fields fail without a request. On
// success the comment list is refreshed, the draft cleared, and the target
// reset; on failure everything stays as it was.
func (c *Composer) Submit(ctx context.Context, content, password string) error {
	draft := gateway.CommentDraft{Content: content, Password: password}

	c.mu.Lock()
	c.draft = Draft{Content: content, Password: password}
	var target *Target
	if c.target != nil {
		t := *c.target
		target = &t
	}
	c.mu.Unlock()

	if err := c.gateway.Check(draft); err != nil {
		return err
	}

	var err error
	if target != nil {
		_, err = c.gateway.CreateReply(ctx, target.ID, target.Content, draft)
	} else {
		_, err = c.gateway.CreateComment(ctx, c.postID, draft)
	}
	if err != nil {
		return err
	}

	if c.refresh != nil {
		if err := c.refresh(ctx); err != nil {
			logging.ExtractLogger(ctx).Error().Err(err).Str("postId", c.postID).Msg("failed to refresh comments after submit")
		}
	}

	c.mu.Lock()
	c.draft = Draft{}
	if !c.closed {
		c.clearTargetLocked()
	}
	c.mu.Unlock()

	c.changed()
	return nil
}

// Close cancels the pending highlight decay. Nothing fires after Close.
func (c *Composer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.timer.Close()
}

func (c *Composer) changed() {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if c.onChange != nil && !closed {
		c.onChange()
	}
}
