// Package hover turns raw pointer enter/leave events into show and hide
// intents, one slot per nesting depth, with a show delay, a grace period
// before hiding and optional modifier gating.
package hover

import (
	"time"

	"github.com/peek-a-repo/peek/internal/log"
	"github.com/peek-a-repo/peek/internal/popup"
	"github.com/peek-a-repo/peek/internal/preview"
	"github.com/peek-a-repo/peek/internal/scheduler"
)

// DefaultGrace tolerates the pointer briefly crossing the gap between an
// anchor and its frame.
const DefaultGrace = 100 * time.Millisecond

// Mods is the modifier state reported with a pointer event.
type Mods struct {
	Ctrl  bool `json:"ctrl" mapstructure:"ctrl"`
	Alt   bool `json:"alt" mapstructure:"alt"`
	Shift bool `json:"shift" mapstructure:"shift"`
	Meta  bool `json:"meta" mapstructure:"meta"`
}

// Holds reports whether every modifier set in chord is pressed in m.
func (m Mods) Holds(chord Mods) bool {
	return (!chord.Ctrl || m.Ctrl) &&
		(!chord.Alt || m.Alt) &&
		(!chord.Shift || m.Shift) &&
		(!chord.Meta || m.Meta)
}

// Anchor is a hoverable element. Depth 0 is a page link; depth d > 0 is a
// row inside frame d-1. An anchor at depth d opens frame d.
type Anchor struct {
	ID     string
	Depth  int
	Rect   popup.Rect
	Target preview.Target
}

// Location is where the pointer went. Frame is -1 for the page itself.
type Location struct {
	Frame    int
	AnchorID string
}

// Page is the location outside every frame.
var Page = Location{Frame: -1}

// Handler receives the dispatcher's decisions.
type Handler interface {
	Show(level int, a Anchor)
	// Hide removes the frame at level and every deeper frame.
	Hide(level int)
}

// Config tunes timing and gating.
type Config struct {
	// Delay applies to page links; rows inside frames show immediately.
	Delay time.Duration
	Grace time.Duration
	// RequireModifier gates shows on Chord being held.
	RequireModifier bool
	Chord           Mods
}

// DefaultConfig shows immediately and hides after DefaultGrace.
func DefaultConfig() Config {
	return Config{Grace: DefaultGrace}
}

type slot struct {
	shown   *Anchor
	pending *Anchor
	show    scheduler.Timer
	hide    scheduler.Timer
}

// last is the anchor most recently chosen for this level.
func (s *slot) last() *Anchor {
	if s.pending != nil {
		return s.pending
	}
	return s.shown
}

func (s *slot) cancelShow() {
	if s.show != nil {
		s.show.Stop()
		s.show = nil
	}
	s.pending = nil
}

func (s *slot) cancelHide() {
	if s.hide != nil {
		s.hide.Stop()
		s.hide = nil
	}
}

// Dispatcher is the hover state machine. Drive it from the UI task only.
type Dispatcher struct {
	sched   scheduler.Scheduler
	handler Handler
	cfg     Config
	slots   []slot
	mods    Mods
	hovered *Anchor
}

// NewDispatcher creates a dispatcher that reports to handler.
func NewDispatcher(sched scheduler.Scheduler, handler Handler, cfg Config) *Dispatcher {
	if cfg.Grace <= 0 {
		cfg.Grace = DefaultGrace
	}
	return &Dispatcher{sched: sched, handler: handler, cfg: cfg}
}

// SetConfig applies new timing or gating; pending timers keep their old
// deadlines.
func (d *Dispatcher) SetConfig(cfg Config) {
	if cfg.Grace <= 0 {
		cfg.Grace = DefaultGrace
	}
	d.cfg = cfg
}

// Config returns the active configuration.
func (d *Dispatcher) Config() Config { return d.cfg }

func (d *Dispatcher) slot(depth int) *slot {
	for len(d.slots) <= depth {
		d.slots = append(d.slots, slot{})
	}
	return &d.slots[depth]
}

// Current returns the anchor shown or about to be shown at level.
func (d *Dispatcher) Current(level int) (Anchor, bool) {
	if level < 0 || level >= len(d.slots) {
		return Anchor{}, false
	}
	if a := d.slots[level].last(); a != nil {
		return *a, true
	}
	return Anchor{}, false
}

// Enter records that the pointer entered a.
func (d *Dispatcher) Enter(a Anchor) {
	d.hovered = &a
	s := d.slot(a.Depth)

	if last := s.last(); last != nil && last.ID == a.ID {
		d.cancelHides(a.Depth)
		return
	}

	d.cancelHides(a.Depth - 1)
	if d.cfg.RequireModifier && !d.mods.Holds(d.cfg.Chord) {
		log.Debug(log.CatHover, "modifier not held", "anchor", a.ID)
		return
	}
	d.schedule(a)
}

func (d *Dispatcher) schedule(a Anchor) {
	s := d.slot(a.Depth)
	s.cancelShow()
	d.forgetFrom(a.Depth + 1)

	delay := time.Duration(0)
	if a.Depth == 0 {
		delay = d.cfg.Delay
	}
	if delay <= 0 {
		d.fire(a)
		return
	}

	s.pending = &a
	s.show = d.sched.AfterFunc(delay, func() {
		s := d.slot(a.Depth)
		if s.pending == nil || s.pending.ID != a.ID {
			return
		}
		s.show = nil
		d.fire(a)
	})
	log.Debug(log.CatHover, "show scheduled", "anchor", a.ID, "depth", a.Depth, "delay", delay)
}

func (d *Dispatcher) fire(a Anchor) {
	s := d.slot(a.Depth)
	s.pending = nil
	s.cancelHide()
	s.shown = &a
	d.forgetFrom(a.Depth + 1)
	log.Debug(log.CatHover, "show", "anchor", a.ID, "depth", a.Depth)
	d.handler.Show(a.Depth, a)
}

// Leave records that the pointer left a for to.
func (d *Dispatcher) Leave(a Anchor, to Location) {
	if d.hovered != nil && d.hovered.ID == a.ID {
		d.hovered = nil
	}

	s := d.slot(a.Depth)
	if s.pending != nil && s.pending.ID == a.ID {
		s.cancelShow()
	}
	if to.Frame >= a.Depth {
		return
	}
	d.scheduleHide(to.Frame + 1)
}

// FrameEnter records that the pointer entered frame level.
func (d *Dispatcher) FrameEnter(level int) {
	d.cancelHides(level)
}

// FrameLeave records that the pointer left frame level for to.
func (d *Dispatcher) FrameLeave(level int, to Location) {
	if to.Frame > level {
		return
	}
	if shown := d.slot(level).shown; shown != nil && to.AnchorID == shown.ID {
		return
	}
	d.scheduleHide(min(to.Frame+1, level))
}

// Modifiers updates the held modifiers. With gating enabled, pressing the
// chord while resting on an anchor opens its preview.
func (d *Dispatcher) Modifiers(m Mods) {
	d.mods = m
	if !d.cfg.RequireModifier || d.hovered == nil || !m.Holds(d.cfg.Chord) {
		return
	}
	a := *d.hovered
	if last := d.slot(a.Depth).last(); last != nil && last.ID == a.ID {
		return
	}
	d.schedule(a)
}

func (d *Dispatcher) scheduleHide(level int) {
	level = max(level, 0)
	if !d.active(level) {
		return
	}
	s := d.slot(level)
	if s.hide != nil {
		return
	}
	s.hide = d.sched.AfterFunc(d.cfg.Grace, func() {
		d.slot(level).hide = nil
		d.hideNow(level)
	})
	log.Debug(log.CatHover, "hide scheduled", "level", level, "grace", d.cfg.Grace)
}

// active reports whether anything is shown or pending at level or deeper.
func (d *Dispatcher) active(level int) bool {
	for i := level; i < len(d.slots); i++ {
		if d.slots[i].last() != nil {
			return true
		}
	}
	return false
}

func (d *Dispatcher) hideNow(level int) {
	log.Debug(log.CatHover, "hide", "level", level)
	if level < len(d.slots) {
		d.slots[level].shown = nil
	}
	d.forgetFrom(level + 1)
	d.handler.Hide(level)
}

// Reset hides everything and cancels every timer.
func (d *Dispatcher) Reset() {
	d.hovered = nil
	had := d.active(0)
	d.forgetFrom(0)
	if had {
		d.handler.Hide(0)
	}
}

// cancelHides stops pending hides at levels 0..level.
func (d *Dispatcher) cancelHides(level int) {
	for i := 0; i <= level && i < len(d.slots); i++ {
		d.slots[i].cancelHide()
	}
}

func (d *Dispatcher) forgetFrom(level int) {
	for i := max(level, 0); i < len(d.slots); i++ {
		s := &d.slots[i]
		s.cancelShow()
		s.cancelHide()
		s.shown = nil
	}
	if level >= 0 && level < len(d.slots) {
		d.slots = d.slots[:level]
	}
}
