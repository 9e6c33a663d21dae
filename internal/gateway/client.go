// Package gateway is the GitHub REST glue behind preview lookups: directory
// listings and file content via the contents API, and raw bytes for PDFs.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/peek-a-repo/peek/internal/log"
	"github.com/peek-a-repo/peek/internal/preview"
	"github.com/peek-a-repo/peek/internal/tracing"
)

const (
	DefaultAPIURL = "https://api.github.com"
	DefaultRawURL = "https://raw.githubusercontent.com"

	acceptRaw  = "application/vnd.github.v3.raw"
	acceptJSON = "application/vnd.github.v3+json"

	// maxBody caps any single response read into memory.
	maxBody = 32 << 20
)

// TokenSource supplies the current credential. An empty token means
// unauthenticated requests.
type TokenSource interface {
	Token(ctx context.Context) string
}

// StaticToken is a fixed TokenSource.
type StaticToken string

func (s StaticToken) Token(context.Context) string { return string(s) }

// PrefetchPolicy bounds the small text files fetched alongside a listing.
type PrefetchPolicy struct {
	Limit      int
	MaxBytes   int64
	Extensions []string
	// Parallel caps concurrent prefetch requests.
	Parallel int
}

// DefaultPrefetchPolicy returns the first-10, under-50000-bytes text policy.
func DefaultPrefetchPolicy() PrefetchPolicy {
	return PrefetchPolicy{
		Limit:    10,
		MaxBytes: 50000,
		Extensions: []string{
			"js", "ts", "jsx", "tsx", "json", "md", "txt", "css",
			"html", "py", "go", "rs", "yaml", "yml", "sh", "bash",
		},
		Parallel: 4,
	}
}

// Options configures a Client.
type Options struct {
	APIURL     string
	RawURL     string
	HTTPClient *http.Client
	Tokens     TokenSource
	Tracer     trace.Tracer
	Prefetch   PrefetchPolicy
	MaxRetries int
	// RetryDelay overrides exponential backoff between attempts.
	RetryDelay func(attempt int) time.Duration
}

// Client talks to the GitHub REST API.
type Client struct {
	apiURL     string
	rawURL     string
	http       *http.Client
	tokens     TokenSource
	tracer     trace.Tracer
	prefetch   PrefetchPolicy
	maxRetries int
	retryDelay func(int) time.Duration
}

var _ preview.Gateway = (*Client)(nil)

// New creates a Client. Zero-valued options fall back to defaults.
func New(opts Options) *Client {
	c := &Client{
		apiURL:     strings.TrimRight(opts.APIURL, "/"),
		rawURL:     strings.TrimRight(opts.RawURL, "/"),
		http:       opts.HTTPClient,
		tokens:     opts.Tokens,
		tracer:     opts.Tracer,
		prefetch:   opts.Prefetch,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
	}
	if c.apiURL == "" {
		c.apiURL = DefaultAPIURL
	}
	if c.rawURL == "" {
		c.rawURL = DefaultRawURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.tokens == nil {
		c.tokens = StaticToken("")
	}
	if c.tracer == nil {
		c.tracer = noop.NewTracerProvider().Tracer("gateway")
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if c.retryDelay == nil {
		c.retryDelay = backoffDelay
	}
	if c.prefetch.Parallel < 1 {
		c.prefetch.Parallel = 1
	}
	return c
}

// contentItem is one element of a contents API directory response.
type contentItem struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// GetFile returns the raw text of a file.
func (c *Client) GetFile(ctx context.Context, t preview.Target) (content string, err error) {
	ctx, span := tracing.Start(ctx, c.tracer, tracing.SpanGetFile, targetAttrs(t)...)
	defer func() {
		tracing.End(span, err, attribute.Int(tracing.AttrBytes, len(content)))
	}()

	body, err := c.get(ctx, c.contentsURL(t), acceptRaw)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetDirectory returns the listing for a directory, sorted directories first,
// with content for the first few small text files.
func (c *Client) GetDirectory(ctx context.Context, t preview.Target) (page preview.PageResult, err error) {
	ctx, span := tracing.Start(ctx, c.tracer, tracing.SpanGetDirectory, targetAttrs(t)...)
	defer func() {
		tracing.End(span, err,
			attribute.Int(tracing.AttrEntries, len(page.Entries)),
			attribute.Int(tracing.AttrPrefetch, len(page.Files)),
		)
	}()

	body, err := c.get(ctx, c.contentsURL(t), acceptJSON)
	if err != nil {
		return preview.PageResult{}, err
	}

	var items []contentItem
	if err := json.Unmarshal(body, &items); err != nil {
		// A single object means the path is a file, not a directory.
		var single map[string]any
		if json.Unmarshal(body, &single) == nil {
			log.Debug(log.CatGateway, "contents response is not a listing", "target", t)
			return preview.PageResult{}, nil
		}
		return preview.PageResult{}, &preview.Error{Kind: preview.GenericFailure, Err: fmt.Errorf("decoding listing: %w", err)}
	}

	entries := make([]preview.Entry, 0, len(items))
	for _, item := range items {
		kind := preview.EntryFile
		if item.Type == "dir" {
			kind = preview.EntryDirectory
		}
		entries = append(entries, preview.Entry{Name: item.Name, Type: kind, Size: item.Size})
	}
	preview.SortEntries(entries)

	page = preview.PageResult{Entries: entries, Files: c.prefetchFiles(ctx, t, entries)}
	log.Debug(log.CatGateway, "listing fetched", "target", t, "entries", len(entries), "prefetched", len(page.Files))
	return page, nil
}

// FetchRaw returns the bytes of a file from the raw content host.
func (c *Client) FetchRaw(ctx context.Context, t preview.Target) (data []byte, err error) {
	ctx, span := tracing.Start(ctx, c.tracer, tracing.SpanFetchRaw, targetAttrs(t)...)
	defer func() {
		tracing.End(span, err, attribute.Int(tracing.AttrBytes, len(data)))
	}()

	return c.get(ctx, t.RawURL(c.rawURL), "")
}

// RawURL is where an image or PDF for t can be loaded from directly.
func (c *Client) RawURL(t preview.Target) string {
	return t.RawURL(c.rawURL)
}

// prefetchFiles fetches the first Limit text entries under MaxBytes.
// Failures are dropped: the content is advisory.
func (c *Client) prefetchFiles(ctx context.Context, dir preview.Target, entries []preview.Entry) map[string]string {
	candidates := c.prefetchCandidates(entries)
	if len(candidates) == 0 {
		return nil
	}

	ctx, span := tracing.Start(ctx, c.tracer, tracing.SpanPrefetch, targetAttrs(dir)...)
	results := make([]string, len(candidates))
	ok := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.prefetch.Parallel)
	for i, entry := range candidates {
		g.Go(func() error {
			content, err := c.GetFile(gctx, dir.Child(entry))
			if err != nil {
				log.Debug(log.CatGateway, "prefetch skipped", "name", entry.Name, "kind", preview.KindOf(err))
				return nil
			}
			results[i], ok[i] = content, true
			return nil
		})
	}
	_ = g.Wait()

	files := make(map[string]string, len(candidates))
	for i, entry := range candidates {
		if ok[i] {
			files[entry.Name] = results[i]
		}
	}
	tracing.End(span, nil, attribute.Int(tracing.AttrPrefetch, len(files)))
	return files
}

func (c *Client) prefetchCandidates(entries []preview.Entry) []preview.Entry {
	if c.prefetch.Limit <= 0 {
		return nil
	}
	var out []preview.Entry
	for _, e := range entries {
		if len(out) == c.prefetch.Limit {
			break
		}
		if e.Type != preview.EntryFile || e.Size >= c.prefetch.MaxBytes {
			continue
		}
		if hasTextExtension(e.Name, c.prefetch.Extensions) {
			out = append(out, e)
		}
	}
	return out
}

func hasTextExtension(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, "."+strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

func (c *Client) contentsURL(t preview.Target) string {
	u := fmt.Sprintf("%s/repos/%s/%s/contents", c.apiURL, url.PathEscape(t.Owner), url.PathEscape(t.Repo))
	if t.Path != "" {
		segments := strings.Split(t.Path, "/")
		for i, s := range segments {
			segments[i] = url.PathEscape(s)
		}
		u += "/" + strings.Join(segments, "/")
	}
	return u + "?" + url.Values{"ref": {t.Branch}}.Encode()
}

// get performs a GET with retries on transient failures and classifies
// the outcome.
func (c *Client) get(ctx context.Context, u, accept string) ([]byte, error) {
	token := c.tokens.Token(ctx)

	resp, err := withRetry(ctx, c.maxRetries, c.retryDelay, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		if accept != "" {
			req.Header.Set("Accept", accept)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if isRetryableStatus(resp.StatusCode) {
			_ = resp.Body.Close()
			log.Debug(log.CatGateway, "retrying transient status", "url", u, "status", resp.StatusCode)
			return nil, &retryableStatusError{StatusCode: resp.StatusCode}
		}
		return resp, nil
	})
	if err != nil {
		var statusErr *retryableStatusError
		if errors.As(err, &statusErr) {
			return nil, &preview.Error{Kind: preview.GenericFailure, Status: statusErr.StatusCode, Err: err}
		}
		return nil, &preview.Error{Kind: preview.GenericFailure, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		classified := classify(resp, token != "")
		log.Warn(log.CatGateway, "request failed", "url", u, "status", resp.StatusCode, "kind", classified.Kind)
		return nil, classified
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &preview.Error{Kind: preview.GenericFailure, Status: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}
	return body, nil
}

func targetAttrs(t preview.Target) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(tracing.AttrOwner, t.Owner),
		attribute.String(tracing.AttrRepo, t.Repo),
		attribute.String(tracing.AttrBranch, t.Branch),
		attribute.String(tracing.AttrPath, t.Path),
		attribute.String(tracing.AttrKind, t.Kind.String()),
	}
}
