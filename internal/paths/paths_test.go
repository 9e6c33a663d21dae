package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHome_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvHome, dir)

	require.Equal(t, dir, Home())
	require.Equal(t, filepath.Join(dir, "config.yaml"), ConfigFile())
	require.Equal(t, filepath.Join(dir, "settings.db"), SettingsDB())
	require.Equal(t, filepath.Join(dir, "traces", "traces.jsonl"), TracesFile())
}

func TestExpand(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	require.Equal(t, filepath.Join(home, "x", "y"), Expand("~/x/y"))
	require.Equal(t, home, Expand("~"))
	require.Equal(t, "/a/b", Expand("/a//b/"))
	require.Equal(t, "", Expand(""))
}
