package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/peek-a-repo/peek/internal/config"
	"github.com/peek-a-repo/peek/internal/log"
	"github.com/peek-a-repo/peek/internal/paths"
	"github.com/peek-a-repo/peek/internal/scheduler"
	"github.com/peek-a-repo/peek/internal/session"
	"github.com/peek-a-repo/peek/internal/ui/browser"
)

func init() {
	// Query the terminal background before bubbletea owns stdin, otherwise
	// the OSC 11 reply races the input loop and shows up as typed text.
	_ = lipgloss.HasDarkBackground()
}

// localConfig is checked before the user config.
const localConfig = ".peek/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	cfg       config.Config
	configErr error
	debug     bool
	token     string
)

var rootCmd = &cobra.Command{
	Use:   "peek <url> [url...]",
	Short: "Hover previews for GitHub repository links",
	Long: `Open a page of GitHub repository links and preview files, folders,
images and PDFs by hovering over them. Folder previews nest: hover a row
inside a popup to open the next level.

A single tree URL lists that folder. Several URLs become the page links.

Examples:
  peek https://github.com/charmbracelet/bubbletea/tree/main
  peek https://github.com/owner/repo/blob/main/README.md https://github.com/owner/repo/tree/main/docs`,
	Version: version,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/peek/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false,
		"write debug logs to the peek home directory")
	rootCmd.PersistentFlags().StringVar(&token, "token", "",
		"GitHub token used when none is stored in settings")
}

func initConfig() {
	cfg = config.Defaults()
	defaults := cfg
	viper.SetDefault("github.api_url", defaults.GitHub.APIURL)
	viper.SetDefault("github.raw_url", defaults.GitHub.RawURL)
	viper.SetDefault("github.web_url", defaults.GitHub.WebURL)
	viper.SetDefault("github.token", "")
	viper.SetDefault("github.timeout", defaults.GitHub.Timeout)
	viper.SetDefault("github.max_retries", defaults.GitHub.MaxRetries)
	viper.SetDefault("pdf.timeout", defaults.PDF.Timeout)
	viper.SetDefault("pdf.command", "")
	viper.SetDefault("settings.path", defaults.Settings.Path)
	viper.SetDefault("settings.watch", defaults.Settings.Watch)
	viper.SetDefault("ui.syntax_style", defaults.UI.SyntaxStyle)
	viper.SetDefault("ui.markdown_style", defaults.UI.MarkdownStyle)
	viper.SetDefault("ui.show_log", defaults.UI.ShowLog)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)

	viper.SetEnvPrefix("PEEK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Lookup order: --config, ./.peek/config.yaml, then the user config,
	// which is created from the template the first time.
	switch {
	case cfgFile != "":
		viper.SetConfigFile(cfgFile)
	case fileExists(localConfig):
		viper.SetConfigFile(localConfig)
	default:
		userConfig := paths.ConfigFile()
		if !fileExists(userConfig) {
			if err := config.WriteDefaultConfig(userConfig); err != nil {
				log.Warn(log.CatConfig, "could not write default config", "path", userConfig, "error", err)
			}
		}
		viper.SetConfigFile(userConfig)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			configErr = fmt.Errorf("reading config: %w", err)
			return
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		configErr = fmt.Errorf("decoding config: %w", err)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// loadConfig validates the config read by initConfig.
func loadConfig() (config.Config, error) {
	if configErr != nil {
		return cfg, configErr
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// configPath is where `config set` writes: the file in use, else the user
// config.
func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return paths.ConfigFile()
}

// initLogging enables the file logger when --debug, PEEK_DEBUG or
// ui.show_log asks for it.
func initLogging(c config.Config) (func(), error) {
	if !debug && os.Getenv("PEEK_DEBUG") == "" && !c.UI.ShowLog {
		return func() {}, nil
	}
	logPath := filepath.Join(paths.Home(), "peek-debug.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	cleanup, err := log.InitWithTeaLog(logPath, "peek")
	if err != nil {
		return nil, fmt.Errorf("opening debug log: %w", err)
	}
	log.Info(log.CatConfig, "peek starting", "version", version, "config", viper.ConfigFileUsed())
	return cleanup, nil
}

func runApp(cmd *cobra.Command, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	closeLog, err := initLogging(c)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	deps, err := wire(ctx, c)
	if err != nil {
		return err
	}
	defer deps.Close()

	title, links, err := pageLinks(ctx, deps.gateway, args)
	if err != nil {
		return err
	}

	loop := scheduler.NewLoop(64)
	defer loop.Close()

	sess := session.New(session.Options{
		Gateway:   deps.gateway,
		PDF:       deps.pdf,
		Settings:  deps.store,
		Scheduler: loop,
		Geometry:  c.Preview.Popup,
		Grace:     c.Preview.HoverGrace,
		Builder:   deps.builder,
		WebURL:    c.GitHub.WebURL,
		TopPDF:    &c.PDF.TopLevel,
		NestedPDF: &c.PDF.Nested,
		Copy:      clipboard.WriteAll,
	})

	zone.NewGlobal()
	model := browser.New(browser.Options{
		Context:  ctx,
		Session:  sess,
		Tasks:    loop,
		Settings: deps.store.Subscribe(ctx),
		Logs:     log.NewListener(ctx),
		Title:    title,
		Links:    links,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
