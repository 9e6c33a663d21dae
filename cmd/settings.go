package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/peek-a-repo/peek/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and write preview preferences",
	Long: `Preferences live in a small SQLite store shared by every running peek.
Changes made here reach open browsers without a restart.

Keys: ` + strings.Join(settings.Keys, ", "),
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every preference",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := settings.Open(cmd.Context(), c.Settings.Path)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		return listSettings(cmd.OutOrStdout(), store.Current())
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one preference",
	Long: `Change one preference. Booleans take true/false, previewDelay takes
milliseconds (0-2000) and modifierKey takes a chord such as ctrl+shift.

Examples:
  peek settings set authToken ghp_xxx
  peek settings set enableDelay true
  peek settings set previewDelay 300
  peek settings set enableModifierKey true
  peek settings set modifierKey alt`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		value, err := parseSetting(args[0], args[1])
		if err != nil {
			return err
		}
		store, err := settings.Open(cmd.Context(), c.Settings.Path)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		return store.Set(cmd.Context(), args[0], value)
	},
}

func init() {
	settingsCmd.AddCommand(settingsListCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

// parseSetting converts a command-line value to the type stored for key.
func parseSetting(key, raw string) (any, error) {
	switch key {
	case settings.KeyAuthToken:
		return strings.TrimSpace(raw), nil
	case settings.KeyPreviewDelay:
		ms, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s takes milliseconds: %w", key, err)
		}
		return ms, nil
	case settings.KeyModifierKey:
		return parseChord(raw)
	case settings.KeyEnableImagePreviews, settings.KeyEnableCodePreviews,
		settings.KeyEnableFolderPreviews, settings.KeyEnableDelay,
		settings.KeyEnableModifierKey, settings.KeyDismissedLoginNotification:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s takes true or false: %w", key, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %s", settings.ErrUnknownKey, key)
	}
}

// parseChord reads "ctrl+alt" style chords. "none" clears the chord.
func parseChord(raw string) (*settings.Chord, error) {
	if raw == "" || raw == "none" {
		return nil, nil
	}
	var chord settings.Chord
	for _, part := range strings.Split(strings.ToLower(raw), "+") {
		switch strings.TrimSpace(part) {
		case "ctrl", "control":
			chord.Ctrl = true
		case "alt", "option":
			chord.Alt = true
		case "shift":
			chord.Shift = true
		case "meta", "cmd", "super":
			chord.Meta = true
		default:
			return nil, fmt.Errorf("unknown modifier %q in %q", part, raw)
		}
	}
	chord.Key = raw
	return &chord, nil
}

// listSettings prints one key per line with its JSON value. The token is
// masked.
func listSettings(w io.Writer, st settings.Settings) error {
	if st.AuthToken != "" {
		st.AuthToken = mask(st.AuthToken)
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for _, key := range settings.Keys {
		if _, err := fmt.Fprintf(w, "%s = %s\n", key, fields[key]); err != nil {
			return err
		}
	}
	return nil
}

func mask(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + strings.Repeat("*", 8)
}
