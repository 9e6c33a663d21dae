package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/peek-a-repo/peek/internal/config"
	"github.com/peek-a-repo/peek/internal/log"
	"github.com/peek-a-repo/peek/internal/preview"
	"github.com/peek-a-repo/peek/internal/render"
)

var showCmd = &cobra.Command{
	Use:   "show <url>",
	Short: "Print the preview for one link",
	Long: `Print the preview a hover would show for one repository link, without
starting the interactive browser.

Examples:
  peek show https://github.com/owner/repo/blob/main/main.go
  peek show --all https://github.com/owner/repo/blob/main/main.go
  peek show --markdown https://github.com/owner/repo/blob/main/README.md
  peek show https://github.com/owner/repo/tree/main/docs`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

// showOptions select how a preview is printed.
type showOptions struct {
	All      bool
	Markdown bool
	Plain    bool
	Width    int
}

var showOpts showOptions

func init() {
	showCmd.Flags().BoolVarP(&showOpts.All, "all", "a", false, "print every line instead of the clamped preview")
	showCmd.Flags().BoolVarP(&showOpts.Markdown, "markdown", "m", false, "render markdown files with glamour")
	showCmd.Flags().BoolVar(&showOpts.Plain, "plain", false, "disable syntax highlighting")
	showCmd.Flags().IntVarP(&showOpts.Width, "width", "w", 80, "wrap width for markdown")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	if debug {
		defer log.InitWriter(cmd.ErrOrStderr(), log.LevelDebug)()
	}

	t, err := preview.ParseURL(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	d, err := wire(ctx, c)
	if err != nil {
		return err
	}
	defer d.Close()
	if showOpts.Plain {
		d.builder.Highlighter = render.PlainHighlighter{}
	}
	return show(ctx, cmd.OutOrStdout(), d, c, t, showOpts)
}

// show prints the preview of t. Classified failures print their message
// and are not returned as errors.
func show(ctx context.Context, w io.Writer, d *deps, c config.Config, t preview.Target, opts showOptions) error {
	res := preview.NewResolver(d.gateway, d.builder.File)
	var lines []string
	var err error
	switch t.Kind {
	case preview.KindDirectory:
		lines, err = showDirectory(ctx, res, c, t)
	case preview.KindImage:
		img := render.NewImage(t, c.GitHub.RawURL)
		lines = []string{img.Name, "Image source:", img.URL}
	case preview.KindPDF:
		lines, err = showPDF(ctx, d, c, t)
	default:
		lines, err = showFile(ctx, res, c, t, opts)
	}
	if err != nil {
		if preview.IsCancelled(err) {
			return err
		}
		log.ErrorErr(log.CatRender, "show failed", err, "target", t.String())
		_, werr := fmt.Fprintln(w, preview.Message(preview.KindOf(err)))
		return werr
	}
	_, err = fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func showDirectory(ctx context.Context, res *preview.Resolver[*render.Code], c config.Config, t preview.Target) ([]string, error) {
	page, err := res.Directory(ctx, t)
	if err != nil {
		return nil, err
	}
	if page.Empty() {
		return []string{preview.Message(preview.EmptyResult)}, nil
	}
	rows := render.Listing(t, page.Entries, c.Preview.MaxEntries)
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, fmt.Sprintf("%s · %d items", pageTitle(t), len(page.Entries)))
	for _, row := range rows {
		lines = append(lines, render.PadIcon(row.Icon)+" "+row.Name)
	}
	return lines, nil
}

func showFile(ctx context.Context, res *preview.Resolver[*render.Code], c config.Config, t preview.Target, opts showOptions) ([]string, error) {
	code, err := res.File(ctx, t)
	if err != nil {
		return nil, err
	}
	if opts.Markdown && (t.Ext() == "md" || t.Ext() == "markdown") {
		md, err := render.NewMarkdown(opts.Width, c.UI.MarkdownStyle)
		if err != nil {
			return nil, fmt.Errorf("creating markdown renderer: %w", err)
		}
		out, err := md.Render(code.Content())
		if err != nil {
			return nil, fmt.Errorf("rendering markdown: %w", err)
		}
		return []string{strings.TrimRight(out, "\n")}, nil
	}

	lines := slices.Clone(code.Styled(opts.All))
	if !opts.All && code.Truncated() {
		lines = append(lines, fmt.Sprintf("+%d lines (use --all)", code.TotalLines()-len(lines)))
	}
	return lines, nil
}

func showPDF(ctx context.Context, d *deps, c config.Config, t preview.Target) ([]string, error) {
	data, err := d.gateway.FetchRaw(ctx, t)
	if err != nil {
		return nil, err
	}
	res, err := d.pdf.Render(ctx, data, c.PDF.TopLevel)
	if err != nil {
		return nil, err
	}
	lines := append([]string{fmt.Sprintf("%s · %d %s", t.Name(), res.Pages, pages(res.Pages))}, res.Lines...)
	return append(lines, "Open: "+t.WebURL(c.GitHub.WebURL)), nil
}

func pages(n int) string {
	if n == 1 {
		return "page"
	}
	return "pages"
}
