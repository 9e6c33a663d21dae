// Package session ties the hover dispatcher, the popup stack and the
// resolver together for one page. It is the hover.Handler: each show gets a
// fresh frame, work runs off the UI task, and results land only if their
// frame is still current.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/peek-a-repo/peek/internal/hover"
	"github.com/peek-a-repo/peek/internal/log"
	"github.com/peek-a-repo/peek/internal/pdf"
	"github.com/peek-a-repo/peek/internal/popup"
	"github.com/peek-a-repo/peek/internal/preview"
	"github.com/peek-a-repo/peek/internal/pubsub"
	"github.com/peek-a-repo/peek/internal/render"
	"github.com/peek-a-repo/peek/internal/scheduler"
	"github.com/peek-a-repo/peek/internal/settings"
)

// Gateway is the remote content source.
type Gateway interface {
	preview.Gateway
	FetchRaw(ctx context.Context, t preview.Target) ([]byte, error)
	RawURL(t preview.Target) string
}

// PDFRenderer lays out PDF bytes, typically a *pdf.Channel.
type PDFRenderer interface {
	Render(ctx context.Context, data []byte, opts pdf.Options) (pdf.Result, error)
}

// Settings is the preference store.
type Settings interface {
	Current() settings.Settings
	Set(ctx context.Context, key string, value any) error
	// NeedsLogin reports whether no token is in effect and the sign-in
	// notice was never dismissed.
	NeedsLogin() bool
}

// Options wires a Session.
type Options struct {
	Gateway   Gateway
	PDF       PDFRenderer
	Settings  Settings
	Scheduler scheduler.Scheduler
	Geometry  popup.Geometry
	Grace     time.Duration
	Builder   render.Builder
	WebURL    string
	// TopPDF and NestedPDF default to pdf.TopLevelOptions and
	// pdf.NestedOptions.
	TopPDF    *pdf.Options
	NestedPDF *pdf.Options
	// Copy places text on the clipboard.
	Copy func(string) error
}

// Session is the preview controller for one page. All methods except the
// subscriptions must be called on the UI task.
type Session struct {
	id       string
	log      log.Scope
	ctx      context.Context
	cancel   context.CancelFunc
	gateway  Gateway
	renderer PDFRenderer
	settings Settings
	sched    scheduler.Scheduler
	builder  render.Builder
	webURL   string
	top      pdf.Options
	nested   pdf.Options
	copy     func(string) error
	grace    time.Duration

	resolver   *preview.Resolver[*render.Code]
	stack      *popup.Stack[*Content]
	dispatcher *hover.Dispatcher

	transitions  *pubsub.Broker[Transition]
	notices      *pubsub.Broker[Notice]
	loginOffered bool
}

// New creates a Session with its own caches, stack and dispatcher.
func New(opts Options) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:          uuid.NewString(),
		ctx:         ctx,
		cancel:      cancel,
		gateway:     opts.Gateway,
		renderer:    opts.PDF,
		settings:    opts.Settings,
		sched:       opts.Scheduler,
		builder:     opts.Builder,
		webURL:      opts.WebURL,
		top:         pdf.TopLevelOptions(),
		nested:      pdf.NestedOptions(),
		copy:        opts.Copy,
		grace:       opts.Grace,
		transitions: pubsub.NewBroker[Transition](),
		notices:     pubsub.NewBroker[Notice](),
	}
	if s.builder.Policy == (render.Policy{}) {
		s.builder.Policy = render.DefaultPolicy()
	}
	if s.webURL == "" {
		s.webURL = "https://github.com"
	}
	if opts.TopPDF != nil {
		s.top = *opts.TopPDF
	}
	if opts.NestedPDF != nil {
		s.nested = *opts.NestedPDF
	}

	s.resolver = preview.NewResolver(opts.Gateway, s.builder.File)
	s.stack = popup.New[*Content](opts.Scheduler, opts.Geometry)
	s.stack.OnDestroy(func(f *Frame) { s.transition(f, Destroyed, 0) })
	s.dispatcher = hover.NewDispatcher(opts.Scheduler, s, s.hoverConfig(s.settings.Current()))

	s.log = log.With(log.CatSession, "session", s.id)
	s.log.Info("session started")
	return s
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// Dispatcher receives pointer events.
func (s *Session) Dispatcher() *hover.Dispatcher { return s.dispatcher }

// Stack exposes the frames for drawing and hit testing.
func (s *Session) Stack() *popup.Stack[*Content] { return s.stack }

// Resolver exposes the session caches.
func (s *Session) Resolver() *preview.Resolver[*render.Code] { return s.resolver }

// Transitions streams frame state changes.
func (s *Session) Transitions(ctx context.Context) <-chan pubsub.Event[Transition] {
	return s.transitions.Subscribe(ctx)
}

// Notices streams user-facing notices.
func (s *Session) Notices(ctx context.Context) <-chan pubsub.Event[Notice] {
	return s.notices.Subscribe(ctx)
}

// ApplySettings picks up reloaded preferences.
func (s *Session) ApplySettings(st settings.Settings) {
	s.dispatcher.SetConfig(s.hoverConfig(st))
}

func (s *Session) hoverConfig(st settings.Settings) hover.Config {
	cfg := hover.Config{Delay: st.Delay(), Grace: s.grace}
	if chord, ok := st.Gated(); ok {
		cfg.RequireModifier = true
		cfg.Chord = hover.Mods{Ctrl: chord.Ctrl, Alt: chord.Alt, Shift: chord.Shift, Meta: chord.Meta}
	}
	return cfg
}

func enabled(st settings.Settings, kind preview.Kind) bool {
	switch kind {
	case preview.KindImage:
		return st.EnableImagePreviews
	case preview.KindDirectory:
		return st.EnableFolderPreviews
	default:
		return st.EnableCodePreviews
	}
}

// Show opens a frame for a at level and starts loading it. Whatever was
// shown at level or deeper goes away even when no new frame opens.
func (s *Session) Show(level int, a hover.Anchor) {
	t := a.Target
	if !enabled(s.settings.Current(), t.Kind) {
		s.log.Debug("preview kind disabled", "kind", t.Kind, "target", t.String())
		s.stack.DestroyFromLevel(level)
		return
	}

	f, ok := s.stack.Show(level, a.Rect, t, &Content{URL: t.WebURL(s.webURL)})
	if !ok {
		s.stack.DestroyFromLevel(level)
		return
	}
	s.transition(f, Loading, 0)

	switch t.Kind {
	case preview.KindImage:
		f.Content.Image = &render.Image{Name: t.Name(), URL: s.gateway.RawURL(t)}
		s.transition(f, Shown, 0)
	case preview.KindDirectory:
		s.showDirectory(f)
	case preview.KindPDF:
		s.showPDF(f)
	default:
		s.showFile(f)
	}
}

func (s *Session) showFile(f *Frame) {
	t := f.Target
	if code, ok := s.resolver.CachedFile(s.ctx, t); ok {
		s.applyCode(f, code)
		return
	}
	if f.Parent != nil {
		if content, ok := f.Parent.Content.Page.File(t.Name()); ok {
			// Built here without joining any in-flight fetch of t.
			code, err := s.resolver.FileFromContent(s.ctx, t, content)
			s.finish(f, err, func() { s.applyCode(f, code) })
			return
		}
	}

	s.async(f, func(ctx context.Context) (func(), error) {
		code, err := s.resolver.File(ctx, t)
		return func() { s.applyCode(f, code) }, err
	})
}

func (s *Session) applyCode(f *Frame, code *render.Code) {
	f.Content.Code = code
	s.transition(f, Shown, 0)
}

func (s *Session) showDirectory(f *Frame) {
	t := f.Target
	if page, ok := s.resolver.CachedDirectory(s.ctx, t); ok {
		s.applyPage(f, page)
		return
	}
	s.async(f, func(ctx context.Context) (func(), error) {
		page, err := s.resolver.Directory(ctx, t)
		return func() { s.applyPage(f, page) }, err
	})
}

func (s *Session) applyPage(f *Frame, page preview.PageResult) {
	f.Content.Page = page
	if page.Empty() {
		msg := render.NewMessage(preview.EmptyResult)
		f.Content.Message = &msg
		s.transition(f, Empty, preview.EmptyResult)
		return
	}
	f.Content.Rows = render.Listing(f.Target, page.Entries, s.builder.Policy.MaxEntries)
	s.transition(f, Shown, 0)
}

func (s *Session) showPDF(f *Frame) {
	t := f.Target
	opts := s.top
	if f.Level > 0 {
		opts = s.nested
	}
	doc := &render.Document{Name: t.Name(), URL: f.Content.URL}

	s.async(f, func(ctx context.Context) (func(), error) {
		data, err := s.gateway.FetchRaw(ctx, t)
		if err != nil {
			return nil, err
		}
		if s.renderer == nil {
			return s.pdfFallback(f, doc, preview.RenderFailure), nil
		}
		res, err := s.renderer.Render(ctx, data, opts)
		if err != nil {
			log.Warn(log.CatPDF, "pdf preview degraded", "target", t.String(), "kind", preview.KindOf(err))
			return s.pdfFallback(f, doc, preview.KindOf(err)), nil
		}
		return func() {
			doc.Rendered = true
			doc.Pages = res.Pages
			doc.Height = res.Height
			doc.Lines = res.Lines
			f.Content.Document = doc
			s.transition(f, Shown, 0)
		}, nil
	})
}

func (s *Session) pdfFallback(f *Frame, doc *render.Document, kind preview.ErrorKind) func() {
	return func() {
		doc.Reason = kind
		f.Content.Document = doc
		s.transition(f, Errored, kind)
	}
}

// async runs work off the UI task and applies its result there if f is
// still current.
func (s *Session) async(f *Frame, work func(ctx context.Context) (func(), error)) {
	go func() {
		apply, err := work(s.ctx)
		s.sched.Post(func() {
			if !s.stack.IsCurrent(f) {
				s.log.Debug("dropping stale result", "level", f.Level, "target", f.Target.String())
				return
			}
			s.finish(f, err, apply)
		})
	}()
}

func (s *Session) finish(f *Frame, err error, apply func()) {
	if err == nil {
		apply()
		return
	}
	if preview.IsCancelled(err) {
		return
	}
	kind := preview.KindOf(err)
	msg := render.NewMessage(kind)
	msg.Link = f.Content.URL
	f.Content.Message = &msg
	s.transition(f, Errored, kind)
	if kind == preview.NoCredential {
		s.OfferLogin()
	}
}

func (s *Session) transition(f *Frame, to State, kind preview.ErrorKind) {
	from := f.Content.State
	f.Content.State = to
	s.log.Debug("frame state", "level", f.Level, "target", f.Target.String(), "from", from, "to", to)
	s.transitions.Publish(pubsub.StateChangedEvent, Transition{
		Level:  f.Level,
		Frame:  f.Seq(),
		Target: f.Target,
		From:   from,
		To:     to,
		Kind:   kind,
	})
}

// Hide destroys the frame at level and every deeper frame.
func (s *Session) Hide(level int) {
	s.stack.DestroyFromLevel(level)
}

// Expand switches a truncated code frame to its full content. It reports
// whether anything changed.
func (s *Session) Expand(level int) bool {
	f := s.stack.At(level)
	if f == nil || f.Content.Code == nil || !f.Content.Code.Truncated() || f.Content.Expanded {
		return false
	}
	f.Content.Expanded = true
	log.Debug(log.CatRender, "expanded preview", "level", level, "lines", f.Content.Code.TotalLines())
	return true
}

// Open copies the URL of a frame (row < 0) or of one of its rows.
func (s *Session) Open(level, row int) (string, error) {
	f := s.stack.At(level)
	if f == nil {
		return "", fmt.Errorf("no frame at level %d", level)
	}
	u := f.Content.URL
	if row >= 0 {
		if row >= len(f.Content.Rows) {
			return "", fmt.Errorf("no row %d at level %d", row, level)
		}
		u = f.Content.Rows[row].Target.WebURL(s.webURL)
	}
	if s.copy == nil {
		return u, errors.New("clipboard unavailable")
	}
	if err := s.copy(u); err != nil {
		s.notices.Publish(pubsub.NoticeEvent, Notice{Kind: NoticeError, Text: "Copy failed", URL: u})
		return u, fmt.Errorf("copying %s: %w", u, err)
	}
	s.notices.Publish(pubsub.NoticeEvent, Notice{Kind: NoticeCopied, Text: "Copied link", URL: u})
	return u, nil
}

// OfferLogin publishes the sign-in notice once per session unless a token is
// in effect or the user dismissed it. The browser calls it at startup;
// a NoCredential failure calls it again in case the token went away.
func (s *Session) OfferLogin() bool {
	if s.loginOffered || !s.settings.NeedsLogin() {
		return false
	}
	s.loginOffered = true
	s.notices.Publish(pubsub.NoticeEvent, Notice{
		Kind:  NoticeLogin,
		Title: "Authentication Required",
		Text:  "Sign in to preview files and folders on hover",
	})
	return true
}

// DismissLogin stops the sign-in notice for good.
func (s *Session) DismissLogin(ctx context.Context) error {
	s.loginOffered = true
	return s.settings.Set(ctx, settings.KeyDismissedLoginNotification, true)
}

// Close hides everything and abandons in-flight work.
func (s *Session) Close() {
	s.dispatcher.Reset()
	s.stack.DestroyFromLevel(0)
	s.cancel()
	s.transitions.Close()
	s.notices.Close()
	s.log.Info("session closed")
}
