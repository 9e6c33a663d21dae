package preview

import (
	"sort"
	"strings"
)

// EntryType distinguishes directory listing rows.
type EntryType string

const (
	EntryDirectory EntryType = "tree"
	EntryFile      EntryType = "blob"
)

// Entry is one row of a directory listing.
type Entry struct {
	Name string
	Type EntryType
	Size int64
}

// PageResult is a directory listing plus content for a bounded prefix of
// small text files. Files is advisory: a missing name means fetch on demand.
type PageResult struct {
	Entries []Entry
	Files   map[string]string
}

// Empty reports whether the listing has no entries.
func (p PageResult) Empty() bool {
	return len(p.Entries) == 0
}

// File returns prefetched content for name.
func (p PageResult) File(name string) (string, bool) {
	content, ok := p.Files[name]
	return content, ok
}

// SortEntries orders directories before files, then by case-insensitive
// name. Ties fall back to the raw name so the order is total.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entryLess(entries[i], entries[j])
	})
}

func entryLess(a, b Entry) bool {
	if a.Type != b.Type {
		return a.Type == EntryDirectory
	}
	la, lb := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if la != lb {
		return la < lb
	}
	return a.Name < b.Name
}
