package settings

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peek-a-repo/peek/internal/pubsub"
	"github.com/peek-a-repo/peek/internal/watcher"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_Defaults(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "nested", "settings.db"))

	require.Equal(t, Defaults(), s.Current())
	require.True(t, s.Current().NeedsLogin())
	require.Empty(t, s.Token(context.Background()))
}

func TestSet_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "settings.db")
	s := openStore(t, path)

	require.NoError(t, s.Set(ctx, KeyAuthToken, "ghp_abc"))
	require.NoError(t, s.Set(ctx, KeyEnableImagePreviews, false))
	require.NoError(t, s.Set(ctx, KeyModifierKey, Chord{Alt: true, Key: "Alt"}))

	got := s.Current()
	require.Equal(t, "ghp_abc", got.AuthToken)
	require.False(t, got.EnableImagePreviews)
	require.Equal(t, &Chord{Alt: true, Key: "Alt"}, got.ModifierKey)
	require.Equal(t, "ghp_abc", s.Token(ctx))

	// A fresh store on the same file sees the same values.
	again := openStore(t, path)
	require.True(t, equal(got, again.Current()))
}

func TestSet_ClampsDelay(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "settings.db"))

	require.NoError(t, s.Set(ctx, KeyEnableDelay, true))
	require.NoError(t, s.Set(ctx, KeyPreviewDelay, 9000))
	require.Equal(t, MaxPreviewDelay, s.Current().PreviewDelay)
	require.Equal(t, 2*time.Second, s.Current().Delay())

	require.NoError(t, s.Set(ctx, KeyPreviewDelay, -5))
	require.Zero(t, s.Current().Delay())
}

func TestSet_UnknownKey(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "settings.db"))

	err := s.Set(context.Background(), "colour", "red")
	require.ErrorIs(t, err, ErrUnknownKey)
}

func TestLoad_SkipsMalformedValues(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "settings.db"))

	_, err := s.db.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?), (?, ?)`,
		KeyEnableCodePreviews, `"not a bool"`, KeyEnableFolderPreviews, `false`)
	require.NoError(t, err)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, got.EnableCodePreviews)
	require.False(t, got.EnableFolderPreviews)
}

func TestToken_Fallback(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "settings.db"))
	s.SetFallbackToken("from-env")

	require.Equal(t, "from-env", s.Token(ctx))
	require.NoError(t, s.Set(ctx, KeyAuthToken, "stored"))
	require.Equal(t, "stored", s.Token(ctx))
}

func TestNeedsLogin_CountsFallbackToken(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "settings.db"))
	require.True(t, s.NeedsLogin())

	s.SetFallbackToken("from-env")
	require.False(t, s.NeedsLogin())
	require.True(t, s.Current().NeedsLogin(), "snapshot only sees the stored token")

	s.SetFallbackToken("")
	require.NoError(t, s.Set(ctx, KeyDismissedLoginNotification, true))
	require.False(t, s.NeedsLogin())
}

func TestReload_PublishesChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := openStore(t, filepath.Join(t.TempDir(), "settings.db"))
	events := s.Subscribe(ctx)

	require.NoError(t, s.Set(ctx, KeyDismissedLoginNotification, true))

	select {
	case ev := <-events:
		require.Equal(t, pubsub.SettingsChangedEvent, ev.Type)
		require.True(t, ev.Payload.DismissedLoginNotification)
		require.False(t, ev.Payload.NeedsLogin())
	case <-time.After(time.Second):
		t.Fatal("no settings event")
	}

	// Writing the same value again publishes nothing.
	require.NoError(t, s.Set(ctx, KeyDismissedLoginNotification, true))
	select {
	case <-events:
		t.Fatal("unchanged settings published")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatch_PicksUpOtherWriters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	path := filepath.Join(t.TempDir(), "settings.db")
	reader := openStore(t, path)
	writer := openStore(t, path)

	require.NoError(t, reader.Watch(ctx, watcher.Config{Debounce: 20 * time.Millisecond}))
	require.NoError(t, writer.Set(ctx, KeyEnableCodePreviews, false))

	require.Eventually(t, func() bool {
		return !reader.Current().EnableCodePreviews
	}, 3*time.Second, 20*time.Millisecond)
}

func TestSettings_Gated(t *testing.T) {
	s := Defaults()
	_, ok := s.Gated()
	require.False(t, ok)

	s.EnableModifierKey = true
	_, ok = s.Gated()
	require.False(t, ok, "no chord recorded")

	s.ModifierKey = &Chord{Ctrl: true}
	chord, ok := s.Gated()
	require.True(t, ok)
	require.True(t, chord.Ctrl)
}
