// Package popup manages the chain of preview frames: one frame per nesting
// level, each anchored to a row of its parent, placed to the right of its
// anchor and unwound level by level.
package popup

import (
	"time"

	"github.com/peek-a-repo/peek/internal/log"
	"github.com/peek-a-repo/peek/internal/preview"
	"github.com/peek-a-repo/peek/internal/scheduler"
)

// Visibility is a frame's place in its show/hide transition.
type Visibility int

const (
	// Hidden frames exist but have not been drawn yet.
	Hidden Visibility = iota
	Visible
	// Leaving frames are detached and fading out.
	Leaving
)

func (v Visibility) String() string {
	switch v {
	case Visible:
		return "visible"
	case Leaving:
		return "leaving"
	default:
		return "hidden"
	}
}

// Frame is one popup. Level 0 is anchored to a page link, level N+1 to a row
// inside level N.
type Frame[C any] struct {
	Level      int
	Anchor     Rect
	Bounds     Rect
	Parent     *Frame[C]
	Target     preview.Target
	Visibility Visibility
	Content    C
	// MaxHeight is the tallest the frame may grow; Bounds.H tracks the
	// drawn height.
	MaxHeight int

	seq uint64
}

// Fit sets the drawn height, bounded by MaxHeight.
func (f *Frame[C]) Fit(height int) {
	f.Bounds.H = min(max(height, 1), f.MaxHeight)
}

// Seq is unique per frame within a stack.
func (f *Frame[C]) Seq() uint64 { return f.seq }

// Stack owns the live chain of frames. It is not safe for concurrent use;
// drive it from the UI task.
type Stack[C any] struct {
	sched    scheduler.Scheduler
	geo      Geometry
	viewport Rect
	live     []*Frame[C]
	leaving  []*Frame[C]
	seq      uint64

	scrollLocked bool
	onScrollLock func(locked bool)
	onDestroy    func(f *Frame[C])
}

// New creates an empty stack.
func New[C any](sched scheduler.Scheduler, geo Geometry) *Stack[C] {
	return &Stack[C]{sched: sched, geo: geo}
}

// SetViewport updates the surface size used for placement.
func (s *Stack[C]) SetViewport(width, height int) {
	s.viewport = Rect{W: width, H: height}
}

// Viewport returns the current surface size.
func (s *Stack[C]) Viewport() Rect { return s.viewport }

// OnScrollLock registers fn, called with true when the root frame appears and
// false when it is destroyed.
func (s *Stack[C]) OnScrollLock(fn func(locked bool)) {
	s.onScrollLock = fn
}

// OnDestroy registers fn, called for every frame as it is detached, deepest
// first.
func (s *Stack[C]) OnDestroy(fn func(f *Frame[C])) {
	s.onDestroy = fn
}

// ScrollLocked reports whether page scrolling is locked by a root frame.
func (s *Stack[C]) ScrollLocked() bool { return s.scrollLocked }

// Show replaces the frame at level, and everything above it, with a new
// frame for target. Nested frames without room to the right of their anchor
// are refused and nothing changes. The new frame starts Hidden and becomes
// Visible on the next pass of the UI task.
func (s *Stack[C]) Show(level int, anchor Rect, target preview.Target, content C) (*Frame[C], bool) {
	if level < 0 || level > len(s.live) {
		log.Debug(log.CatPopup, "show without parent frame", "level", level, "depth", len(s.live))
		return nil, false
	}
	if level > 0 && s.geo.room(s.viewport, anchor) < s.geo.MinWidth {
		log.Debug(log.CatPopup, "no room for nested frame", "level", level, "room", s.geo.room(s.viewport, anchor))
		return nil, false
	}

	s.DestroyFromLevel(level)

	s.seq++
	f := &Frame[C]{
		Level:      level,
		Anchor:     anchor,
		Bounds:     s.geo.place(s.viewport, anchor, level == 0),
		Target:     target,
		Visibility: Hidden,
		Content:    content,
		seq:        s.seq,
	}
	f.MaxHeight = f.Bounds.H
	if level > 0 {
		f.Parent = s.live[level-1]
	}
	s.live = append(s.live, f)

	if level == 0 {
		s.setScrollLock(true)
	}

	s.sched.Post(func() {
		if s.IsCurrent(f) && f.Visibility == Hidden {
			f.Visibility = Visible
		}
	})

	log.Debug(log.CatPopup, "frame created", "level", level, "target", target.String(), "bounds", f.Bounds)
	return f, true
}

// DestroyFromLevel detaches every frame at level or deeper. Detached frames
// stay renderable as Leaving until the transition has run.
func (s *Stack[C]) DestroyFromLevel(level int) {
	level = max(level, 0)
	if level >= len(s.live) {
		return
	}

	for i := len(s.live) - 1; i >= level; i-- {
		f := s.live[i]
		f.Visibility = Leaving
		s.leaving = append(s.leaving, f)
		s.sched.AfterFunc(s.geo.Transition, func() { s.remove(f) })
		log.Debug(log.CatPopup, "frame destroyed", "level", f.Level, "target", f.Target.String())
		if s.onDestroy != nil {
			s.onDestroy(f)
		}
	}
	clear(s.live[level:])
	s.live = s.live[:level]

	if level == 0 {
		s.setScrollLock(false)
	}
}

func (s *Stack[C]) remove(f *Frame[C]) {
	for i, candidate := range s.leaving {
		if candidate == f {
			s.leaving = append(s.leaving[:i], s.leaving[i+1:]...)
			return
		}
	}
}

func (s *Stack[C]) setScrollLock(locked bool) {
	if s.scrollLocked == locked {
		return
	}
	s.scrollLocked = locked
	if s.onScrollLock != nil {
		s.onScrollLock(locked)
	}
}

// Depth is the number of live frames.
func (s *Stack[C]) Depth() int { return len(s.live) }

// At returns the live frame at level, or nil.
func (s *Stack[C]) At(level int) *Frame[C] {
	if level < 0 || level >= len(s.live) {
		return nil
	}
	return s.live[level]
}

// IsCurrent reports whether f is still the live frame at its level.
func (s *Stack[C]) IsCurrent(f *Frame[C]) bool {
	return f != nil && s.At(f.Level) == f
}

// Frames returns the live chain, root first.
func (s *Stack[C]) Frames() []*Frame[C] {
	return append([]*Frame[C](nil), s.live...)
}

// Rendered returns every frame that should be drawn, bottom of the z-order
// first: leaving frames, then the live chain.
func (s *Stack[C]) Rendered() []*Frame[C] {
	out := make([]*Frame[C], 0, len(s.leaving)+len(s.live))
	out = append(out, s.leaving...)
	return append(out, s.live...)
}

// HitTest returns the deepest live frame containing (x, y), or nil.
func (s *Stack[C]) HitTest(x, y int) *Frame[C] {
	for i := len(s.live) - 1; i >= 0; i-- {
		if s.live[i].Bounds.Contains(x, y) {
			return s.live[i]
		}
	}
	return nil
}

// Transition is how long destroyed frames remain renderable.
func (s *Stack[C]) Transition() time.Duration { return s.geo.Transition }
