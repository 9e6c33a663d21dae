package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/peek-a-repo/peek/internal/config"
	"github.com/peek-a-repo/peek/internal/gateway"
	"github.com/peek-a-repo/peek/internal/log"
	"github.com/peek-a-repo/peek/internal/pdf"
	"github.com/peek-a-repo/peek/internal/preview"
	"github.com/peek-a-repo/peek/internal/render"
	"github.com/peek-a-repo/peek/internal/settings"
	"github.com/peek-a-repo/peek/internal/tracing"
	"github.com/peek-a-repo/peek/internal/ui/browser"
	"github.com/peek-a-repo/peek/internal/watcher"
)

// deps are the long-lived collaborators of a preview session.
type deps struct {
	tracing *tracing.Provider
	store   *settings.Store
	gateway *gateway.Client
	pdf     *pdf.Channel
	builder render.Builder
}

// fallbackToken picks the token used while the settings store has none:
// --token, then github.token, then GITHUB_TOKEN.
func fallbackToken(c config.Config) string {
	for _, t := range []string{token, c.GitHub.Token, os.Getenv("GITHUB_TOKEN")} {
		if t != "" {
			return t
		}
	}
	return ""
}

// openStore opens the settings store with the fallback token applied.
func openStore(ctx context.Context, c config.Config) (*settings.Store, error) {
	store, err := settings.Open(ctx, c.Settings.Path)
	if err != nil {
		return nil, err
	}
	store.SetFallbackToken(fallbackToken(c))
	return store, nil
}

func newGateway(c config.Config, store *settings.Store, tp *tracing.Provider) *gateway.Client {
	return gateway.New(gateway.Options{
		APIURL:     c.GitHub.APIURL,
		RawURL:     c.GitHub.RawURL,
		HTTPClient: &http.Client{Timeout: c.GitHub.Timeout},
		Tokens:     store,
		Tracer:     tp.Tracer(),
		Prefetch:   c.PrefetchPolicy(),
		MaxRetries: c.GitHub.MaxRetries,
	})
}

// newSurface starts the PDF surface: a child process when pdf.command is
// set, otherwise the bundled inspector on an in-memory pipe.
func newSurface(ctx context.Context, c config.Config, tp *tracing.Provider) (*pdf.Channel, error) {
	var transport pdf.Transport
	if c.PDF.Command != "" {
		proc, err := pdf.StartProcess(ctx, c.PDF.Command, c.PDF.Args...)
		if err != nil {
			return nil, err
		}
		transport = proc
	} else {
		transport = pdf.NewPipe(pdf.Inspector{})
	}
	return pdf.NewChannel(transport, c.PDF.Timeout, tp.Tracer()), nil
}

// wire builds every collaborator the browser needs. Close releases them in
// reverse order.
func wire(ctx context.Context, c config.Config) (*deps, error) {
	tp, err := tracing.NewProvider(c.Tracing)
	if err != nil {
		return nil, fmt.Errorf("starting tracing: %w", err)
	}
	d := &deps{tracing: tp}

	d.store, err = openStore(ctx, c)
	if err != nil {
		d.Close()
		return nil, err
	}
	if c.Settings.Watch {
		if err := d.store.Watch(ctx, watcher.DefaultConfig(c.Settings.Path)); err != nil {
			log.ErrorErr(log.CatSettings, "watching settings store", err)
		}
	}

	d.gateway = newGateway(c, d.store, tp)
	d.pdf, err = newSurface(ctx, c, tp)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.builder = render.Builder{
		Policy:      c.Policy(),
		Highlighter: render.NewChromaHighlighter(c.UI.SyntaxStyle, c.UI.SyntaxFormatter),
	}
	return d, nil
}

// Close releases everything wire opened.
func (d *deps) Close() {
	if d.pdf != nil {
		if err := d.pdf.Close(); err != nil {
			log.Debug(log.CatPDF, "closing surface", "error", err)
		}
	}
	if d.store != nil {
		_ = d.store.Close()
	}
	if d.tracing != nil {
		_ = d.tracing.Shutdown(context.Background())
	}
}

// pageLinks turns the command line into the page. A single tree URL lists
// that folder; anything else becomes one link per URL.
func pageLinks(ctx context.Context, gw preview.Gateway, args []string) (string, []browser.Link, error) {
	targets := make([]preview.Target, 0, len(args))
	for _, arg := range args {
		t, err := preview.ParseURL(arg)
		if err != nil {
			return "", nil, err
		}
		targets = append(targets, t)
	}

	if len(targets) == 1 && targets[0].Kind == preview.KindDirectory {
		dir := targets[0]
		page, err := gw.GetDirectory(ctx, dir)
		if err != nil {
			return "", nil, fmt.Errorf("listing %s: %s: %w", dir, preview.Message(preview.KindOf(err)), err)
		}
		return pageTitle(dir), browser.LinksFromListing(dir, page.Entries), nil
	}

	links := make([]browser.Link, 0, len(targets))
	for _, t := range targets {
		links = append(links, browser.Link{Label: pageTitle(t), Target: t})
	}
	return "peek", links, nil
}

func pageTitle(t preview.Target) string {
	title := t.Owner + "/" + t.Repo
	if t.Path != "" {
		title += "/" + t.Path
	}
	return title
}
