// Package browser is the terminal front end: a page of repository links
// with hover previews that nest as the pointer moves into folder rows.
// Mouse motion and the keyboard both drive the same hover dispatcher.
package browser

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/peek-a-repo/peek/internal/hover"
	"github.com/peek-a-repo/peek/internal/keys"
	"github.com/peek-a-repo/peek/internal/log"
	"github.com/peek-a-repo/peek/internal/popup"
	"github.com/peek-a-repo/peek/internal/pubsub"
	"github.com/peek-a-repo/peek/internal/scheduler"
	"github.com/peek-a-repo/peek/internal/session"
	"github.com/peek-a-repo/peek/internal/settings"
	"github.com/peek-a-repo/peek/internal/ui/logoverlay"
	"github.com/peek-a-repo/peek/internal/ui/overlay"
	"github.com/peek-a-repo/peek/internal/ui/styles"
	"github.com/peek-a-repo/peek/internal/ui/toaster"
)

// Tasks delivers UI-task callbacks into the program, typically a
// *scheduler.Loop.
type Tasks interface {
	Next() tea.Cmd
}

// Options wires a Model.
type Options struct {
	Context context.Context
	Session *session.Session
	// Tasks is nil when callbacks are drained by the caller.
	Tasks    Tasks
	Settings <-chan pubsub.Event[settings.Settings]
	Logs     *log.LogListener
	Title    string
	Links    []Link
}

// pointer is the last known pointer position and what it rests on.
type pointer struct {
	x, y   int
	anchor *hover.Anchor
	// frame is the level under the pointer, -1 for the page.
	frame int
}

// Model is the bubbletea model for the browser.
type Model struct {
	ctx      context.Context
	session  *session.Session
	tasks    Tasks
	prefs    <-chan pubsub.Event[settings.Settings]
	notices  <-chan pubsub.Event[session.Notice]
	logs     *log.LogListener
	title    string
	links    []Link
	keys     keys.BrowserKeyMap
	help     help.Model
	spinner  spinner.Model
	toaster  toaster.Model
	logView  logoverlay.Model
	width    int
	height   int
	offset   int
	ptr      pointer
	mods     hover.Mods
	spinning bool
	showHelp bool

	// focus is the frame the keyboard walks, -1 for the page; cursor is the
	// link or row index within it.
	focus  int
	cursor int
}

// New creates the browser model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	sp := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.SpinnerColor)),
	)
	return Model{
		ctx:     ctx,
		session: opts.Session,
		tasks:   opts.Tasks,
		prefs:   opts.Settings,
		notices: opts.Session.Notices(ctx),
		logs:    opts.Logs,
		title:   opts.Title,
		links:   opts.Links,
		keys:    keys.Browser,
		help:    help.New(),
		spinner: sp,
		toaster: toaster.New(),
		logView: logoverlay.New(logoverlay.DefaultCapacity),
		ptr:     pointer{frame: -1},
		focus:   -1,
		cursor:  -1,
	}
}

// startedMsg runs first-frame work on the UI task.
type startedMsg struct{}

func started() tea.Msg { return startedMsg{} }

// Init starts the event listeners and offers sign-in when no token is set.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{pubsub.ListenCmd(m.ctx, m.notices), started}
	if m.tasks != nil {
		cmds = append(cmds, m.tasks.Next())
	}
	if m.prefs != nil {
		cmds = append(cmds, pubsub.ListenCmd(m.ctx, m.prefs))
	}
	if m.logs != nil {
		cmds = append(cmds, m.logs.Listen())
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.session.Stack().SetViewport(msg.Width, max(msg.Height-statusRows, 1))
		m.help.Width = msg.Width
		m.logView.SetSize(msg.Width, msg.Height)
		m.scroll(0)

	case startedMsg:
		m.session.OfferLogin()

	case scheduler.TaskMsg:
		msg.Run()
		if m.tasks != nil {
			cmds = append(cmds, m.tasks.Next())
		}

	case pubsub.Event[session.Notice]:
		cmds = append(cmds, m.notice(msg.Payload), pubsub.ListenCmd(m.ctx, m.notices))

	case pubsub.Event[settings.Settings]:
		m.session.ApplySettings(msg.Payload)
		log.Debug(log.CatUI, "settings applied", "delay", msg.Payload.Delay())
		cmds = append(cmds, pubsub.ListenCmd(m.ctx, m.prefs))

	case pubsub.Event[string]:
		m.logView.Append(msg.Payload)
		if m.logs != nil {
			cmds = append(cmds, m.logs.Listen())
		}

	case toaster.DismissMsg:
		m.toaster = m.toaster.Update(msg)

	case spinner.TickMsg:
		if !m.loading() {
			m.spinning = false
			break
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case logoverlay.CloseMsg:
		// already hidden

	case tea.MouseMsg:
		m.mouse(msg)

	case tea.KeyMsg:
		if m.logView.Visible() {
			var cmd tea.Cmd
			m.logView, cmd = m.logView.Update(msg)
			cmds = append(cmds, cmd)
			break
		}
		if cmd := m.key(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	m.fit()
	if depth := m.session.Stack().Depth(); m.focus >= depth {
		m.focus = depth - 1
		m.cursor = -1
	}
	if m.loading() && !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.spinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) loading() bool {
	for _, f := range m.session.Stack().Frames() {
		if f.Content.State == session.Loading {
			return true
		}
	}
	return false
}

func (m *Model) notice(n session.Notice) tea.Cmd {
	switch n.Kind {
	case session.NoticeLogin:
		m.toaster = m.toaster.Prompt(n.Title, n.Text, "d dismiss · set a token with peek settings set authToken <token>")
		return nil
	case session.NoticeCopied:
		m.toaster = m.toaster.Show(n.Text+": "+n.URL, toaster.StyleSuccess)
	default:
		m.toaster = m.toaster.Show(n.Text, toaster.StyleError)
	}
	return m.toaster.ScheduleDismiss(toaster.DefaultDuration)
}

func (m *Model) key(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.session.Close()
		return tea.Quit
	case key.Matches(msg, m.keys.Logs):
		m.logView.Toggle()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, m.keys.Close):
		m.session.Dispatcher().Reset()
		m.focus, m.cursor = -1, -1
		m.ptr = pointer{frame: -1}
	case key.Matches(msg, m.keys.Dismiss):
		if m.toaster.Sticky() {
			m.toaster = m.toaster.Hide()
			if err := m.session.DismissLogin(m.ctx); err != nil {
				log.ErrorErr(log.CatUI, "dismissing sign-in notice failed", err)
			}
		}
	case key.Matches(msg, m.keys.Expand):
		m.expand()
	case key.Matches(msg, m.keys.Open):
		m.open()
	case key.Matches(msg, m.keys.Down):
		m.step(1)
	case key.Matches(msg, m.keys.Up):
		m.step(-1)
	case key.Matches(msg, m.keys.Top):
		m.focus = -1
		m.cursor = -1
		m.step(1)
	case key.Matches(msg, m.keys.Into):
		m.into()
	case key.Matches(msg, m.keys.Back):
		m.back()
	}
	return nil
}

// expand opens the deepest truncated code frame, preferring the focused one.
func (m *Model) expand() {
	if m.focus >= 0 && m.session.Expand(m.focus) {
		return
	}
	for level := m.session.Stack().Depth() - 1; level >= 0; level-- {
		if m.session.Expand(level) {
			return
		}
	}
}

// open copies the link under the pointer: a row, or else the deepest frame.
func (m *Model) open() {
	s := m.session
	if a := m.ptr.anchor; a != nil && a.Depth > 0 {
		if _, err := s.Open(a.Depth-1, s.RowIndex(*a)); err != nil {
			log.ErrorErr(log.CatUI, "copy failed", err)
		}
		return
	}
	if depth := s.Stack().Depth(); depth > 0 {
		if _, err := s.Open(depth-1, -1); err != nil {
			log.ErrorErr(log.CatUI, "copy failed", err)
		}
	}
}

// View renders the page, the popup frames, then toasts and overlays.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	hovered := ""
	if m.ptr.anchor != nil {
		hovered = m.ptr.anchor.ID
	}

	var layers []overlay.Layer
	for _, f := range m.session.Stack().Rendered() {
		if f.Visibility == popup.Hidden {
			continue
		}
		layers = append(layers, overlay.Layer{X: f.Bounds.X, Y: f.Bounds.Y, Content: m.renderFrame(f, hovered)})
	}

	view := overlay.Stack(m.width, m.height-statusRows, m.renderPage(), layers...)
	view += "\n" + m.statusBar()
	if m.showHelp {
		view = overlay.Place(overlay.Config{Width: m.width, Height: m.height, Position: overlay.Center}, m.helpBox(), view)
	}
	view = m.toaster.Overlay(view, m.width, m.height)
	view = m.logView.Overlay(view)
	return zone.Scan(view)
}

func (m Model) statusBar() string {
	var parts []string
	if m.session.Stack().ScrollLocked() {
		parts = append(parts, "🔒")
	}
	parts = append(parts, m.help.ShortHelpView(m.keys.ShortHelp()))
	return styles.Fit(styles.StatusBarStyle.Render(strings.Join(parts, " ")), m.width)
}

func (m Model) helpBox() string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Padding(0, 1).
		Render(m.help.FullHelpView(m.keys.FullHelp()))
}
