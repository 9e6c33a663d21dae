// Package preview holds the hover-preview domain model: what a hovered link
// points at, what the remote API returns for it, how failures are classified,
// and the Resolver that caches and coalesces lookups for one session.
package preview

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Kind is what a Target points at.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
	KindImage
	KindPDF
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindImage:
		return "image"
	case KindPDF:
		return "pdf"
	default:
		return "file"
	}
}

// CacheKey identifies a Target in the session caches: owner/repo/branch/path.
type CacheKey string

// Target is a parsed, immutable reference to a repository path.
type Target struct {
	Owner  string
	Repo   string
	Branch string
	Path   string
	Kind   Kind
}

var (
	linkPattern  = regexp.MustCompile(`^/([^/]+)/([^/]+)/(blob|tree)/([^/]+)(?:/(.*))?$`)
	imagePattern = regexp.MustCompile(`(?i)\.(png|jpe?g|gif|svg|webp)$`)
)

// ParseURL parses a repository link of the form
// https://github.com/<owner>/<repo>/(blob|tree)/<branch>/<path>. A bare path
// starting with "/" is accepted too.
func ParseURL(raw string) (Target, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Target{}, fmt.Errorf("invalid URL %q: %w", raw, err)
	}

	match := linkPattern.FindStringSubmatch(u.Path)
	if match == nil {
		return Target{}, fmt.Errorf("not a blob or tree link: %s", raw)
	}

	p := strings.Trim(match[5], "/")
	if match[3] == "tree" {
		return Target{Owner: match[1], Repo: match[2], Branch: match[4], Path: p, Kind: KindDirectory}, nil
	}
	if p == "" {
		return Target{}, fmt.Errorf("blob link without a path: %s", raw)
	}
	return NewFile(match[1], match[2], match[4], p), nil
}

// NewFile builds a file target, classifying images and PDFs by extension.
func NewFile(owner, repo, branch, filePath string) Target {
	return Target{Owner: owner, Repo: repo, Branch: branch, Path: filePath, Kind: classify(filePath)}
}

func classify(filePath string) Kind {
	switch {
	case strings.EqualFold(path.Ext(filePath), ".pdf"):
		return KindPDF
	case imagePattern.MatchString(filePath):
		return KindImage
	default:
		return KindFile
	}
}

// Key returns the cache key for t.
func (t Target) Key() CacheKey {
	return CacheKey(t.Owner + "/" + t.Repo + "/" + t.Branch + "/" + t.Path)
}

// Name is the last path element, or the repository name at the root.
func (t Target) Name() string {
	if t.Path == "" {
		return t.Repo
	}
	return path.Base(t.Path)
}

// Ext returns the lower-cased extension without the dot.
func (t Target) Ext() string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(t.Path), "."))
}

// Child returns the target for entry inside directory t.
func (t Target) Child(e Entry) Target {
	p := e.Name
	if t.Path != "" {
		p = t.Path + "/" + e.Name
	}
	if e.Type == EntryDirectory {
		return Target{Owner: t.Owner, Repo: t.Repo, Branch: t.Branch, Path: p, Kind: KindDirectory}
	}
	return NewFile(t.Owner, t.Repo, t.Branch, p)
}

// WebURL returns the browsable link for t under base (https://github.com).
func (t Target) WebURL(base string) string {
	mode := "blob"
	if t.Kind == KindDirectory {
		mode = "tree"
	}
	u := fmt.Sprintf("%s/%s/%s/%s/%s", strings.TrimRight(base, "/"), t.Owner, t.Repo, mode, t.Branch)
	if t.Path != "" {
		u += "/" + t.Path
	}
	return u
}

// RawURL returns the raw content URL for t under base
// (https://raw.githubusercontent.com).
func (t Target) RawURL(base string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", strings.TrimRight(base, "/"), t.Owner, t.Repo, t.Branch, t.Path)
}

func (t Target) String() string {
	return string(t.Key())
}
