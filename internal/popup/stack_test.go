package popup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/peek-a-repo/peek/internal/preview"
	"github.com/peek-a-repo/peek/internal/scheduler"
)

func newStack(t *testing.T) (*Stack[string], *scheduler.Manual) {
	t.Helper()
	sched := scheduler.NewManual()
	s := New[string](sched, DefaultGeometry())
	s.SetViewport(200, 50)
	return s, sched
}

func dir(p string) preview.Target {
	return preview.Target{Owner: "o", Repo: "r", Branch: "main", Path: p, Kind: preview.KindDirectory}
}

func TestShow_PlacesRightOfAnchor(t *testing.T) {
	s, _ := newStack(t)
	geo := DefaultGeometry()

	f, ok := s.Show(0, Rect{X: 4, Y: 10, W: 12, H: 1}, dir("a"), "a")
	require.True(t, ok)
	require.Equal(t, 16+geo.Gap, f.Bounds.X)
	require.Equal(t, 10, f.Bounds.Y)
	require.Equal(t, geo.MaxWidth, f.Bounds.W)
	require.Equal(t, 50-10-geo.EdgeMargin, f.MaxHeight)
	require.Nil(t, f.Parent)
}

func TestShow_StartsHiddenThenVisible(t *testing.T) {
	s, sched := newStack(t)

	f, ok := s.Show(0, Rect{X: 0, Y: 0, W: 5, H: 1}, dir("a"), "a")
	require.True(t, ok)
	require.Equal(t, Hidden, f.Visibility)

	sched.Drain()
	require.Equal(t, Visible, f.Visibility)
}

func TestShow_NestedWithoutRoomIsRefused(t *testing.T) {
	s, _ := newStack(t)
	root, _ := s.Show(0, Rect{X: 0, Y: 0, W: 5, H: 1}, dir("a"), "a")

	anchor := Rect{X: 175, Y: 3, W: 10, H: 1}
	_, ok := s.Show(1, anchor, dir("a/b"), "a/b")

	require.False(t, ok)
	require.Equal(t, 1, s.Depth())
	require.True(t, s.IsCurrent(root))
}

func TestShow_RootClampsInsteadOfRefusing(t *testing.T) {
	s, _ := newStack(t)
	geo := DefaultGeometry()

	f, ok := s.Show(0, Rect{X: 180, Y: 2, W: 15, H: 1}, dir("a"), "a")
	require.True(t, ok)
	require.GreaterOrEqual(t, f.Bounds.X, geo.EdgeMargin)
	require.LessOrEqual(t, f.Bounds.Right(), 200-geo.EdgeMargin)
}

func TestShow_LowAnchorMovesUp(t *testing.T) {
	s, _ := newStack(t)
	geo := DefaultGeometry()

	f, _ := s.Show(0, Rect{X: 0, Y: 49, W: 5, H: 1}, dir("a"), "a")
	require.Equal(t, geo.MinHeight, f.MaxHeight)
	require.Equal(t, 50-geo.EdgeMargin, f.Bounds.Bottom())
}

func TestShow_RequiresParent(t *testing.T) {
	s, _ := newStack(t)

	_, ok := s.Show(1, Rect{X: 0, Y: 0, W: 5, H: 1}, dir("a/b"), "a/b")
	require.False(t, ok)
	require.Zero(t, s.Depth())
}

func TestShow_SiblingReplacesNestedFrame(t *testing.T) {
	s, sched := newStack(t)
	root, _ := s.Show(0, Rect{X: 0, Y: 0, W: 5, H: 1}, dir("a"), "a")
	b, _ := s.Show(1, Rect{X: 10, Y: 3, W: 10, H: 1}, dir("a/b"), "a/b")
	deep, _ := s.Show(2, Rect{X: 100, Y: 4, W: 10, H: 1}, dir("a/b/x"), "a/b/x")
	sched.Drain()

	c, ok := s.Show(1, Rect{X: 10, Y: 4, W: 10, H: 1}, dir("a/c"), "a/c")
	require.True(t, ok)

	require.Equal(t, []*Frame[string]{root, c}, s.Frames())
	require.Same(t, root, c.Parent)
	require.Equal(t, Leaving, b.Visibility)
	require.Equal(t, Leaving, deep.Visibility)
	require.False(t, s.IsCurrent(b))

	// Leaving frames are still drawn until the transition ends.
	require.Contains(t, s.Rendered(), b)
	sched.Advance(DefaultGeometry().Transition)
	require.Equal(t, []*Frame[string]{root, c}, s.Rendered())
}

func TestDestroyFromLevel_RootReleasesScrollLock(t *testing.T) {
	s, sched := newStack(t)
	var locks []bool
	s.OnScrollLock(func(locked bool) { locks = append(locks, locked) })

	s.Show(0, Rect{X: 0, Y: 0, W: 5, H: 1}, dir("a"), "a")
	s.Show(0, Rect{X: 0, Y: 1, W: 5, H: 1}, dir("b"), "b")
	require.True(t, s.ScrollLocked())

	s.DestroyFromLevel(0)
	sched.Advance(time.Second)

	require.False(t, s.ScrollLocked())
	require.Equal(t, []bool{true, false, true, false}, locks)
	require.Empty(t, s.Rendered())
}

func TestDestroyFromLevel_IgnoresMissingLevels(t *testing.T) {
	s, _ := newStack(t)
	s.Show(0, Rect{X: 0, Y: 0, W: 5, H: 1}, dir("a"), "a")

	s.DestroyFromLevel(3)
	require.Equal(t, 1, s.Depth())
}

func TestHitTest_PrefersDeepestFrame(t *testing.T) {
	s, _ := newStack(t)
	root, _ := s.Show(0, Rect{X: 0, Y: 0, W: 5, H: 1}, dir("a"), "a")
	root.Fit(20)
	nested, _ := s.Show(1, Rect{X: 20, Y: 2, W: 10, H: 1}, dir("a/b"), "a/b")
	nested.Fit(5)

	require.Same(t, nested, s.HitTest(nested.Bounds.X, nested.Bounds.Y))
	require.Same(t, root, s.HitTest(root.Bounds.X, root.Bounds.Y))
	require.Nil(t, s.HitTest(199, 49))
}

func TestFrame_FitBoundedByMaxHeight(t *testing.T) {
	s, _ := newStack(t)
	f, _ := s.Show(0, Rect{X: 0, Y: 40, W: 5, H: 1}, dir("a"), "a")

	f.Fit(100)
	require.Equal(t, f.MaxHeight, f.Bounds.H)
	f.Fit(0)
	require.Equal(t, 1, f.Bounds.H)
}

// Any interleaving of shows and destroys leaves a strict chain: one frame
// per level, each parented by the frame one level up.
func TestStack_ChainInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sched := scheduler.NewManual()
		s := New[int](sched, DefaultGeometry())
		s.SetViewport(rapid.IntRange(40, 300).Draw(t, "width"), rapid.IntRange(10, 80).Draw(t, "height"))

		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			level := rapid.IntRange(0, 4).Draw(t, "level")
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0, 1:
				anchor := Rect{
					X: rapid.IntRange(0, 200).Draw(t, "x"),
					Y: rapid.IntRange(0, 60).Draw(t, "y"),
					W: rapid.IntRange(1, 30).Draw(t, "w"),
					H: 1,
				}
				s.Show(level, anchor, dir("p"), i)
			case 2:
				s.DestroyFromLevel(level)
			}
			if rapid.Bool().Draw(t, "advance") {
				sched.Advance(time.Duration(rapid.IntRange(0, 300).Draw(t, "ms")) * time.Millisecond)
			}

			frames := s.Frames()
			for lvl, f := range frames {
				if f.Level != lvl {
					t.Fatalf("frame at index %d has level %d", lvl, f.Level)
				}
				if lvl == 0 && f.Parent != nil {
					t.Fatalf("root has a parent")
				}
				if lvl > 0 && f.Parent != frames[lvl-1] {
					t.Fatalf("frame %d not parented by frame %d", lvl, lvl-1)
				}
				if f.Visibility == Leaving {
					t.Fatalf("live frame %d is leaving", lvl)
				}
			}
			if s.ScrollLocked() != (len(frames) > 0) {
				t.Fatalf("scroll lock %v with %d frames", s.ScrollLocked(), len(frames))
			}
		}
	})
}

func TestOnDestroy_DeepestFirst(t *testing.T) {
	s, _ := newStack(t)
	var destroyed []string
	s.OnDestroy(func(f *Frame[string]) { destroyed = append(destroyed, f.Content) })

	s.Show(0, Rect{X: 0, Y: 0, W: 5, H: 1}, dir("a"), "a")
	s.Show(1, Rect{X: 10, Y: 3, W: 10, H: 1}, dir("a/b"), "a/b")
	s.Show(2, Rect{X: 100, Y: 4, W: 10, H: 1}, dir("a/b/c"), "a/b/c")
	s.DestroyFromLevel(1)

	require.Equal(t, []string{"a/b/c", "a/b"}, destroyed)
}
