package preview

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Target
	}{
		{
			name: "blob file",
			raw:  "https://github.com/acme/widgets/blob/main/src/app.go",
			want: Target{Owner: "acme", Repo: "widgets", Branch: "main", Path: "src/app.go", Kind: KindFile},
		},
		{
			name: "tree directory",
			raw:  "https://github.com/acme/widgets/tree/main/src",
			want: Target{Owner: "acme", Repo: "widgets", Branch: "main", Path: "src", Kind: KindDirectory},
		},
		{
			name: "tree root",
			raw:  "https://github.com/acme/widgets/tree/dev",
			want: Target{Owner: "acme", Repo: "widgets", Branch: "dev", Path: "", Kind: KindDirectory},
		},
		{
			name: "image upper-case extension",
			raw:  "/acme/widgets/blob/main/docs/Logo.PNG",
			want: Target{Owner: "acme", Repo: "widgets", Branch: "main", Path: "docs/Logo.PNG", Kind: KindImage},
		},
		{
			name: "pdf",
			raw:  "https://github.com/acme/widgets/blob/main/paper.pdf",
			want: Target{Owner: "acme", Repo: "widgets", Branch: "main", Path: "paper.pdf", Kind: KindPDF},
		},
		{
			name: "jpeg",
			raw:  "https://github.com/acme/widgets/blob/main/a.jpeg",
			want: Target{Owner: "acme", Repo: "widgets", Branch: "main", Path: "a.jpeg", Kind: KindImage},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURL(tt.raw)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseURL_Rejects(t *testing.T) {
	for _, raw := range []string{
		"https://github.com/acme/widgets",
		"https://github.com/acme/widgets/pulls/1",
		"https://github.com/acme/widgets/blob/main",
		"://bad",
	} {
		_, err := ParseURL(raw)
		require.Error(t, err, raw)
	}
}

func TestTarget_KeyAndURLs(t *testing.T) {
	dir := Target{Owner: "o", Repo: "r", Branch: "main", Path: "a", Kind: KindDirectory}

	require.Equal(t, CacheKey("o/r/main/a"), dir.Key())
	require.Equal(t, "https://github.com/o/r/tree/main/a", dir.WebURL("https://github.com/"))

	file := dir.Child(Entry{Name: "b.go", Type: EntryFile})
	require.Equal(t, "a/b.go", file.Path)
	require.Equal(t, KindFile, file.Kind)
	require.Equal(t, "go", file.Ext())
	require.Equal(t, "https://raw.githubusercontent.com/o/r/main/a/b.go", file.RawURL("https://raw.githubusercontent.com"))
	require.Equal(t, "https://github.com/o/r/blob/main/a/b.go", file.WebURL("https://github.com"))

	sub := dir.Child(Entry{Name: "c", Type: EntryDirectory})
	require.Equal(t, KindDirectory, sub.Kind)
	require.Equal(t, "c", sub.Name())

	root := Target{Owner: "o", Repo: "r", Branch: "main", Kind: KindDirectory}
	require.Equal(t, "r", root.Name())
	require.Equal(t, "x.png", root.Child(Entry{Name: "x.png", Type: EntryFile}).Path)
	require.Equal(t, KindImage, root.Child(Entry{Name: "x.png", Type: EntryFile}).Kind)
}
