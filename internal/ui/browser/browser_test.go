package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/require"

	"github.com/peek-a-repo/peek/internal/popup"
	"github.com/peek-a-repo/peek/internal/preview"
	"github.com/peek-a-repo/peek/internal/pubsub"
	"github.com/peek-a-repo/peek/internal/render"
	"github.com/peek-a-repo/peek/internal/scheduler"
	"github.com/peek-a-repo/peek/internal/session"
	"github.com/peek-a-repo/peek/internal/settings"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	os.Exit(m.Run())
}

type fakeGateway struct {
	mu    sync.Mutex
	dirs  map[preview.CacheKey]preview.PageResult
	files map[preview.CacheKey]string
	calls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		dirs:  map[preview.CacheKey]preview.PageResult{},
		files: map[preview.CacheKey]string{},
	}
}

func (g *fakeGateway) GetFile(_ context.Context, t preview.Target) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if content, ok := g.files[t.Key()]; ok {
		return content, nil
	}
	return "", &preview.Error{Kind: preview.NoAccess, Err: errors.New("404")}
}

func (g *fakeGateway) GetDirectory(_ context.Context, t preview.Target) (preview.PageResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if page, ok := g.dirs[t.Key()]; ok {
		return page, nil
	}
	return preview.PageResult{}, &preview.Error{Kind: preview.NoAccess, Err: errors.New("404")}
}

func (g *fakeGateway) FetchRaw(context.Context, preview.Target) ([]byte, error) {
	return nil, &preview.Error{Kind: preview.GenericFailure, Err: errors.New("no pdf")}
}

func (g *fakeGateway) RawURL(t preview.Target) string {
	return "https://raw.example/" + string(t.Key())
}

type memSettings struct {
	mu       sync.Mutex
	current  settings.Settings
	fallback string
	writes   map[string]any
}

func (m *memSettings) NeedsLogin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.NeedsLogin() && m.fallback == ""
}

func (m *memSettings) Current() settings.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *memSettings) Set(_ context.Context, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes[key] = value
	if key == settings.KeyDismissedLoginNotification {
		m.current.DismissedLoginNotification = value.(bool)
	}
	return nil
}

func dir(p string) preview.Target {
	return preview.Target{Owner: "o", Repo: "r", Branch: "main", Path: p, Kind: preview.KindDirectory}
}

func file(p string) preview.Target {
	return preview.NewFile("o", "r", "main", p)
}

type fixture struct {
	t      *testing.T
	gw     *fakeGateway
	sched  *scheduler.Manual
	prefs  *memSettings
	s      *session.Session
	m      Model
	copied []string
}

func newFixture(t *testing.T, links ...Link) *fixture {
	t.Helper()
	fx := &fixture{
		t:     t,
		gw:    newFakeGateway(),
		sched: scheduler.NewManual(),
		prefs: &memSettings{current: settings.Defaults(), writes: map[string]any{}},
	}
	fx.s = session.New(session.Options{
		Gateway:   fx.gw,
		Settings:  fx.prefs,
		Scheduler: fx.sched,
		Geometry:  popup.DefaultGeometry(),
		Builder:   render.Builder{Policy: render.DefaultPolicy(), Highlighter: render.PlainHighlighter{}},
		Copy: func(s string) error {
			fx.copied = append(fx.copied, s)
			return nil
		},
	})
	t.Cleanup(fx.s.Close)

	fx.m = New(Options{Session: fx.s, Title: "o/r", Links: links})
	fx.update(tea.WindowSizeMsg{Width: 200, Height: 40})
	return fx
}

func (fx *fixture) update(msg tea.Msg) {
	next, _ := fx.m.Update(msg)
	fx.m = next.(Model)
}

// hoverLink moves the mouse onto link i.
func (fx *fixture) hoverLink(i int) {
	rect, ok := fx.m.linkRect(i)
	require.True(fx.t, ok, "link %d not on screen", i)
	fx.update(tea.MouseMsg{X: rect.X + 1, Y: rect.Y, Action: tea.MouseActionMotion})
}

func (fx *fixture) moveTo(x, y int) {
	fx.update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion})
}

func (fx *fixture) keys(s ...string) {
	for _, k := range s {
		switch k {
		case "esc":
			fx.update(tea.KeyMsg{Type: tea.KeyEsc})
		default:
			fx.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
		}
	}
}

// settle drains posted work until the frame at level has content.
func (fx *fixture) settle(level int) *session.Frame {
	fx.t.Helper()
	var f *session.Frame
	require.Eventually(fx.t, func() bool {
		fx.sched.Drain()
		f = fx.s.Stack().At(level)
		return f != nil && f.Content.State != session.Loading
	}, time.Second, time.Millisecond)
	fx.update(nil)
	return f
}

func (fx *fixture) advance(d time.Duration) {
	fx.sched.Advance(d)
	fx.update(nil)
}

func TestView_RendersTitleAndLinks(t *testing.T) {
	fx := newFixture(t,
		Link{Label: "docs", Target: dir("docs")},
		Link{Label: "main.go", Target: file("main.go")},
	)

	view := fx.m.View()
	require.Contains(t, view, "o/r")
	require.Contains(t, view, "docs")
	require.Contains(t, view, "main.go")
	require.Len(t, strings.Split(view, "\n"), 40)
}

func TestView_EmptyPage(t *testing.T) {
	fx := newFixture(t)

	require.Contains(t, fx.m.View(), "No links on this page")
}

func TestHover_ImageShowsRawURLWithoutFetching(t *testing.T) {
	fx := newFixture(t, Link{Label: "logo.png", Target: file("logo.png")})

	fx.hoverLink(0)
	f := fx.s.Stack().At(0)
	require.NotNil(t, f)
	require.Equal(t, session.Shown, f.Content.State)

	fx.sched.Drain()
	fx.update(nil)
	require.Equal(t, popup.Visible, f.Visibility)
	require.Contains(t, fx.m.View(), "https://raw.example/o/r/main/logo.png")
	require.Zero(t, fx.gw.calls)
}

func TestHover_FrameSitsRightOfLink(t *testing.T) {
	fx := newFixture(t, Link{Label: "logo.png", Target: file("logo.png")})

	fx.hoverLink(0)
	rect, _ := fx.m.linkRect(0)
	f := fx.s.Stack().At(0)
	require.Equal(t, rect.Right()+popup.DefaultGeometry().Gap, f.Bounds.X)
	require.Equal(t, rect.Y, f.Bounds.Y)
	require.Less(t, f.Bounds.H, f.MaxHeight, "frame is fitted to its content")
}

func TestHover_LeavingHidesAfterGrace(t *testing.T) {
	fx := newFixture(t, Link{Label: "logo.png", Target: file("logo.png")})

	fx.hoverLink(0)
	fx.moveTo(0, 30)
	require.Equal(t, 1, fx.s.Stack().Depth(), "grace keeps the frame")

	fx.advance(50 * time.Millisecond)
	require.Equal(t, 1, fx.s.Stack().Depth())

	fx.advance(60 * time.Millisecond)
	require.Zero(t, fx.s.Stack().Depth())
	require.Len(t, fx.s.Stack().Rendered(), 1, "fading out")

	fx.advance(popup.DefaultGeometry().Transition)
	require.Empty(t, fx.s.Stack().Rendered())
	require.NotContains(t, fx.m.View(), "raw.example")
}

func TestHover_CrossingIntoFrameKeepsIt(t *testing.T) {
	fx := newFixture(t, Link{Label: "logo.png", Target: file("logo.png")})

	fx.hoverLink(0)
	f := fx.s.Stack().At(0)
	fx.moveTo(f.Bounds.X+2, f.Bounds.Y+1)
	fx.advance(time.Second)

	require.Equal(t, 1, fx.s.Stack().Depth())
}

func TestHover_DirectoryThenNestedRow(t *testing.T) {
	fx := newFixture(t, Link{Label: "docs", Target: dir("docs")})
	fx.gw.dirs[dir("docs").Key()] = preview.PageResult{
		Entries: []preview.Entry{
			{Name: "guide", Type: preview.EntryDirectory},
			{Name: "README.md", Type: preview.EntryFile},
		},
		Files: map[string]string{"README.md": "# Docs\n"},
	}

	fx.hoverLink(0)
	root := fx.settle(0)
	require.Equal(t, session.Shown, root.Content.State)
	view := fx.m.View()
	require.Contains(t, view, "guide")
	require.Contains(t, view, "README.md")
	require.Contains(t, view, "2 items")

	rows := fx.s.RowAnchors(0)
	require.Len(t, rows, 2)
	fx.moveTo(rows[1].Rect.X+1, rows[1].Rect.Y)

	child := fx.settle(1)
	require.NotNil(t, child.Content.Code)
	require.Equal(t, 1, fx.gw.calls, "README.md came with the listing")
	require.Contains(t, fx.m.View(), "# Docs")
}

func TestKeyboard_WalksLinksAndRows(t *testing.T) {
	fx := newFixture(t,
		Link{Label: "logo.png", Target: file("logo.png")},
		Link{Label: "docs", Target: dir("docs")},
	)
	fx.gw.dirs[dir("docs").Key()] = preview.PageResult{
		Entries: []preview.Entry{{Name: "a.png", Type: preview.EntryFile}},
	}

	fx.keys("j")
	require.Equal(t, file("logo.png"), fx.s.Stack().At(0).Target)

	fx.keys("j")
	// the image frame is replaced at once and fades out
	fx.advance(popup.DefaultGeometry().Transition)
	root := fx.settle(0)
	require.Equal(t, dir("docs"), root.Target)

	fx.keys("l")
	require.Equal(t, 0, fx.m.focus)
	child := fx.s.Stack().At(1)
	require.NotNil(t, child)
	require.Equal(t, file("docs/a.png"), child.Target)

	fx.keys("h")
	require.Equal(t, -1, fx.m.focus)
	require.Equal(t, 1, fx.m.cursor)
	fx.advance(time.Second)
	require.NotNil(t, fx.s.Stack().At(0), "resting on the owning link keeps the folder")
}

func TestKeyboard_ExpandTruncatedCode(t *testing.T) {
	var lines []string
	for i := range 45 {
		lines = append(lines, fmt.Sprintf("line %d", i+1))
	}
	fx := newFixture(t, Link{Label: "big.go", Target: file("big.go")})
	fx.gw.files[file("big.go").Key()] = strings.Join(lines, "\n")

	fx.keys("j")
	f := fx.settle(0)
	require.True(t, f.Content.Code.Truncated())
	require.Contains(t, fx.m.View(), "+15 lines · e expand")

	fx.keys("e")
	require.True(t, f.Content.Expanded)
	require.NotContains(t, fx.m.View(), "e expand")
	require.Equal(t, 1, fx.gw.calls)
}

func TestKeyboard_EscapeClosesEverything(t *testing.T) {
	fx := newFixture(t, Link{Label: "logo.png", Target: file("logo.png")})

	fx.keys("j")
	require.Equal(t, 1, fx.s.Stack().Depth())

	fx.keys("esc")
	require.Zero(t, fx.s.Stack().Depth())
	require.Equal(t, -1, fx.m.focus)
}

func TestOpen_CopiesRowLink(t *testing.T) {
	fx := newFixture(t, Link{Label: "docs", Target: dir("docs")})
	fx.gw.dirs[dir("docs").Key()] = preview.PageResult{
		Entries: []preview.Entry{{Name: "guide", Type: preview.EntryDirectory}},
	}

	fx.keys("j")
	fx.settle(0)
	fx.keys("o")
	require.Equal(t, []string{"https://github.com/o/r/tree/main/docs"}, fx.copied)

	fx.keys("l", "o")
	require.Equal(t, "https://github.com/o/r/tree/main/docs/guide", fx.copied[1])
}

func TestScroll_LockedWhileRootFrameShown(t *testing.T) {
	var links []Link
	for i := range 80 {
		links = append(links, Link{Label: fmt.Sprintf("img-%02d.png", i), Target: file(fmt.Sprintf("img-%02d.png", i))})
	}
	fx := newFixture(t, links...)

	fx.update(tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	require.Equal(t, 1, fx.m.offset)

	fx.hoverLink(1)
	require.True(t, fx.s.Stack().ScrollLocked())
	fx.update(tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	require.Equal(t, 1, fx.m.offset)
	require.Contains(t, fx.m.View(), "🔒")
}

func TestNotice_LoginPromptAndDismiss(t *testing.T) {
	fx := newFixture(t)

	fx.update(pubsub.Event[session.Notice]{Payload: session.Notice{
		Kind:  session.NoticeLogin,
		Title: "Authentication Required",
		Text:  "Sign in to preview files and folders on hover",
	}})
	require.Contains(t, fx.m.View(), "Authentication Required")

	fx.keys("d")
	require.NotContains(t, fx.m.View(), "Authentication Required")
	require.Equal(t, true, fx.prefs.writes[settings.KeyDismissedLoginNotification])
}

func TestStartup_OffersLoginWithoutToken(t *testing.T) {
	fx := newFixture(t)

	fx.update(startedMsg{})
	select {
	case ev := <-fx.m.notices:
		fx.update(ev)
	case <-time.After(time.Second):
		t.Fatal("no sign-in notice at startup")
	}
	require.Contains(t, fx.m.View(), "Authentication Required")

	fx.update(startedMsg{})
	require.Empty(t, fx.m.notices, "offered once per session")
}

func TestStartup_NoLoginWithFallbackToken(t *testing.T) {
	fx := newFixture(t)
	fx.prefs.fallback = "from-env"

	fx.update(startedMsg{})
	require.Empty(t, fx.m.notices)
	require.NotContains(t, fx.m.View(), "Authentication Required")
}

func TestNotice_CopiedToast(t *testing.T) {
	fx := newFixture(t)

	fx.update(pubsub.Event[session.Notice]{Payload: session.Notice{
		Kind: session.NoticeCopied, Text: "Copied link", URL: "https://github.com/o/r",
	}})
	require.Contains(t, fx.m.View(), "Copied link")
}

func TestSettingsEvent_AppliesDelay(t *testing.T) {
	fx := newFixture(t, Link{Label: "logo.png", Target: file("logo.png")})
	st := settings.Defaults()
	st.EnableDelay = true
	st.PreviewDelay = 300

	fx.update(pubsub.Event[settings.Settings]{Payload: st})
	fx.hoverLink(0)
	require.Zero(t, fx.s.Stack().Depth())

	fx.advance(300 * time.Millisecond)
	require.Equal(t, 1, fx.s.Stack().Depth())
}

func TestLogs_ToggleAndAppend(t *testing.T) {
	fx := newFixture(t)

	fx.update(pubsub.Event[string]{Payload: "2026-01-02T15:04:05 [INFO] [session] session started\n"})
	fx.keys("L")
	require.True(t, fx.m.logView.Visible())
	require.Contains(t, fx.m.View(), "session started")

	fx.keys("j")
	require.Zero(t, fx.s.Stack().Depth(), "keys go to the log view while it is open")
	fx.update(tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, fx.m.logView.Visible())
}

func TestHelp_Toggle(t *testing.T) {
	fx := newFixture(t)

	fx.keys("?")
	require.Contains(t, fx.m.View(), "dismiss sign-in")
	fx.keys("?")
	require.NotContains(t, fx.m.View(), "dismiss sign-in")
}

func TestProgram_HoverAndQuit(t *testing.T) {
	loop := scheduler.NewLoop(64)
	t.Cleanup(loop.Close)
	s := session.New(session.Options{
		Gateway:   newFakeGateway(),
		Settings:  &memSettings{current: settings.Defaults(), fallback: "tok", writes: map[string]any{}},
		Scheduler: loop,
		Geometry:  popup.DefaultGeometry(),
	})
	m := New(Options{Session: s, Tasks: loop, Title: "o/r", Links: []Link{{Label: "logo.png", Target: file("logo.png")}}})

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 30))
	tm.Send(tea.MouseMsg{X: linkIndent + 1, Y: pageTop, Action: tea.MouseActionMotion})

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return strings.Contains(string(out), "raw.example")
	}, teatest.WithDuration(2*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
}

func TestProgram_StartupShowsSignIn(t *testing.T) {
	loop := scheduler.NewLoop(64)
	t.Cleanup(loop.Close)
	s := session.New(session.Options{
		Gateway:   newFakeGateway(),
		Settings:  &memSettings{current: settings.Defaults(), writes: map[string]any{}},
		Scheduler: loop,
		Geometry:  popup.DefaultGeometry(),
	})
	m := New(Options{Session: s, Tasks: loop, Title: "o/r"})

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 30))
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return strings.Contains(string(out), "Authentication Required")
	}, teatest.WithDuration(2*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
}
