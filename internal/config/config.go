// Package config provides configuration types and defaults for peek.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/peek-a-repo/peek/internal/gateway"
	"github.com/peek-a-repo/peek/internal/hover"
	"github.com/peek-a-repo/peek/internal/log"
	"github.com/peek-a-repo/peek/internal/paths"
	"github.com/peek-a-repo/peek/internal/pdf"
	"github.com/peek-a-repo/peek/internal/popup"
	"github.com/peek-a-repo/peek/internal/render"
	"github.com/peek-a-repo/peek/internal/tracing"
)

// Config holds all configuration options for peek.
type Config struct {
	GitHub   GitHubConfig   `mapstructure:"github"`
	Preview  PreviewConfig  `mapstructure:"preview"`
	PDF      PDFConfig      `mapstructure:"pdf"`
	Settings SettingsConfig `mapstructure:"settings"`
	UI       UIConfig       `mapstructure:"ui"`
	Tracing  tracing.Config `mapstructure:"tracing"`
}

// GitHubConfig points the gateway at a GitHub (or GHES) instance.
type GitHubConfig struct {
	APIURL     string        `mapstructure:"api_url"`
	RawURL     string        `mapstructure:"raw_url"`
	WebURL     string        `mapstructure:"web_url"`
	Token      string        `mapstructure:"token"` // used when the settings store has none
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// PreviewConfig bounds what previews show and how popups behave.
type PreviewConfig struct {
	MaxLines         int            `mapstructure:"max_lines"`
	MaxEntries       int            `mapstructure:"max_entries"`
	PrefetchLimit    int            `mapstructure:"prefetch_limit"`
	PrefetchMaxBytes int64          `mapstructure:"prefetch_max_bytes"`
	PrefetchParallel int            `mapstructure:"prefetch_parallel"`
	TextExtensions   []string       `mapstructure:"text_extensions"`
	HoverGrace       time.Duration  `mapstructure:"hover_grace"`
	Popup            popup.Geometry `mapstructure:",squash"`
}

// PDFConfig controls the rendering surface.
type PDFConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	// Command runs the surface out of process; empty runs it in process.
	Command  string      `mapstructure:"command"`
	Args     []string    `mapstructure:"args"`
	TopLevel pdf.Options `mapstructure:"top_level"`
	Nested   pdf.Options `mapstructure:"nested"`
}

// SettingsConfig locates the preference store.
type SettingsConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	SyntaxStyle     string `mapstructure:"syntax_style"`
	SyntaxFormatter string `mapstructure:"syntax_formatter"`
	MarkdownStyle   string `mapstructure:"markdown_style"` // "dark" (default) or "light"
	ShowLog         bool   `mapstructure:"show_log"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	prefetch := gateway.DefaultPrefetchPolicy()
	policy := render.DefaultPolicy()
	trace := tracing.DefaultConfig()
	trace.FilePath = paths.TracesFile()

	return Config{
		GitHub: GitHubConfig{
			APIURL:     gateway.DefaultAPIURL,
			RawURL:     gateway.DefaultRawURL,
			WebURL:     "https://github.com",
			Timeout:    30 * time.Second,
			MaxRetries: 2,
		},
		Preview: PreviewConfig{
			MaxLines:         policy.MaxLines,
			MaxEntries:       policy.MaxEntries,
			PrefetchLimit:    prefetch.Limit,
			PrefetchMaxBytes: prefetch.MaxBytes,
			PrefetchParallel: prefetch.Parallel,
			TextExtensions:   prefetch.Extensions,
			HoverGrace:       hover.DefaultGrace,
			Popup:            popup.DefaultGeometry(),
		},
		PDF: PDFConfig{
			Timeout:  pdf.DefaultTimeout,
			TopLevel: pdf.TopLevelOptions(),
			Nested:   pdf.NestedOptions(),
		},
		Settings: SettingsConfig{
			Path:  paths.SettingsDB(),
			Watch: true,
		},
		UI: UIConfig{
			SyntaxStyle:     "monokai",
			SyntaxFormatter: render.AutoFormatter,
			MarkdownStyle:   "dark",
		},
		Tracing: trace,
	}
}

// Policy returns the render policy.
func (c Config) Policy() render.Policy {
	return render.Policy{MaxLines: c.Preview.MaxLines, MaxEntries: c.Preview.MaxEntries}
}

// PrefetchPolicy returns the gateway prefetch policy.
func (c Config) PrefetchPolicy() gateway.PrefetchPolicy {
	return gateway.PrefetchPolicy{
		Limit:      c.Preview.PrefetchLimit,
		MaxBytes:   c.Preview.PrefetchMaxBytes,
		Extensions: c.Preview.TextExtensions,
		Parallel:   c.Preview.PrefetchParallel,
	}
}

// Validate checks the configuration and normalises paths.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{
		"github.api_url": c.GitHub.APIURL,
		"github.raw_url": c.GitHub.RawURL,
		"github.web_url": c.GitHub.WebURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	if c.GitHub.MaxRetries < 0 {
		return fmt.Errorf("github.max_retries must not be negative, got %d", c.GitHub.MaxRetries)
	}

	if err := ValidatePreview(c.Preview); err != nil {
		return err
	}
	if err := ValidatePDF(c.PDF); err != nil {
		return err
	}
	if err := ValidateTracing(c.Tracing); err != nil {
		return err
	}

	c.Settings.Path = paths.Expand(c.Settings.Path)
	c.Tracing.FilePath = paths.Expand(c.Tracing.FilePath)
	if c.Settings.Path == "" {
		return fmt.Errorf("settings.path is required")
	}
	return nil
}

// ValidatePreview checks preview bounds and popup geometry.
func ValidatePreview(p PreviewConfig) error {
	switch {
	case p.MaxLines < 1:
		return fmt.Errorf("preview.max_lines must be at least 1, got %d", p.MaxLines)
	case p.MaxEntries < 1:
		return fmt.Errorf("preview.max_entries must be at least 1, got %d", p.MaxEntries)
	case p.PrefetchLimit < 0:
		return fmt.Errorf("preview.prefetch_limit must not be negative, got %d", p.PrefetchLimit)
	case p.HoverGrace <= 0:
		return fmt.Errorf("preview.hover_grace must be positive, got %v", p.HoverGrace)
	case p.Popup.MinWidth < 1:
		return fmt.Errorf("preview.min_popup_width must be at least 1, got %d", p.Popup.MinWidth)
	case p.Popup.MaxWidth < p.Popup.MinWidth:
		return fmt.Errorf("preview.max_popup_width (%d) must not be below min_popup_width (%d)", p.Popup.MaxWidth, p.Popup.MinWidth)
	case p.Popup.Gap < 0 || p.Popup.EdgeMargin < 0:
		return fmt.Errorf("preview.popup_gap and preview.edge_margin must not be negative")
	case p.Popup.Transition < 0:
		return fmt.Errorf("preview.transition must not be negative, got %v", p.Popup.Transition)
	}
	return nil
}

// ValidatePDF checks the render surface options.
func ValidatePDF(p PDFConfig) error {
	if p.Timeout <= 0 {
		return fmt.Errorf("pdf.timeout must be positive, got %v", p.Timeout)
	}
	for name, o := range map[string]pdf.Options{"pdf.top_level": p.TopLevel, "pdf.nested": p.Nested} {
		if o.MaxPages < 1 || o.Scale <= 0 || o.MaxWidth < 1 {
			return fmt.Errorf("%s needs max_pages >= 1, scale > 0 and max_width >= 1", name)
		}
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	switch t.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}

	if t.Enabled {
		if t.Exporter == "file" && t.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if t.Exporter == "otlp" && t.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# peek configuration

# GitHub endpoints (change for GitHub Enterprise)
github:
  api_url: https://api.github.com
  raw_url: https://raw.githubusercontent.com
  web_url: https://github.com
  # token: ghp_...      # used when no token is stored in settings (GITHUB_TOKEN also works)
  timeout: 30s
  max_retries: 2        # retries on 502/503/504

# What previews show
preview:
  max_lines: 30         # code previews are clamped here; press e to expand
  max_entries: 25       # folder rows shown
  prefetch_limit: 10    # small text files fetched with each listing
  prefetch_max_bytes: 50000
  prefetch_parallel: 4
  # text_extensions: [js, ts, jsx, tsx, json, md, txt, css, html, py, go, rs, yaml, yml, sh, bash]
  hover_grace: 100ms    # how long the pointer may leave before a popup closes
  popup_gap: 1
  min_popup_width: 30   # nested popups need this many free columns
  max_popup_width: 84
  min_popup_height: 6
  edge_margin: 1
  transition: 150ms

# PDF rendering surface
pdf:
  timeout: 15s
  # command: peek       # run the surface out of process
  # args: [pdf-surface]
  top_level:
    max_pages: 2
    scale: 1.2
    max_width: 380
  nested:
    max_pages: 1
    scale: 1.0
    max_width: 300

# Preference store (token, toggles, delay, modifier key)
settings:
  # path: ~/.config/peek/settings.db
  watch: true           # reload when another peek writes it

ui:
  syntax_style: monokai
  syntax_formatter: auto  # or terminal16m, terminal256, terminal16, noop
  markdown_style: dark  # "dark" or "light"
  show_log: false

# Distributed tracing
# tracing:
#   enabled: false
#   exporter: file                 # none, file, stdout, otlp
#   file_path: ~/.config/peek/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
