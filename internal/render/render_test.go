package render

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docsieve/internal/doctree"
	"github.com/dgallion1/docsieve/internal/fiber"
	"github.com/dgallion1/docsieve/internal/library"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "short text", 20, "short text"},
		{"collapses whitespace", "a\n\n  b\tc", 20, "a b c"},
		{"cut", "the quick brown fox", 10, "the qui..."},
		{"no limit", "the quick brown fox", 0, "the quick brown fox"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.width))
		})
	}
}

func TestTruncate_WideRunes(t *testing.T) {
	got := Truncate("日本語のテキストです", 9)
	assert.LessOrEqual(t, runewidth.StringWidth(got), 9)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestOutline(t *testing.T) {
	b := doctree.NewBuilder("Guide")
	b.Heading(1, "Install")
	b.Heading(2, "Linux")
	b.Paragraph("apt install docsieve")
	b.Heading(1, "")
	b.Paragraph("loose text")
	out := Outline("Guide", b.Tree().Children, Options{Previews: true, Width: 40})

	for _, want := range []string{"Guide", "Install", "Linux", "apt install docsieve", untitled} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "Install"), strings.Index(out, "Linux"))
}

func TestSearchResult(t *testing.T) {
	res := &library.Result{
		Matches:  1,
		Included: 2,
		Forest: []*fiber.Node[library.Hit]{
			{
				Value: library.Hit{Title: "Install"},
				Children: []*fiber.Node[library.Hit]{
					{Value: library.Hit{Title: "macOS", Text: "brew install docsieve", Matched: true, Page: 3}},
				},
			},
		},
		Snippets: []doctree.Chunk{
			{Text: "brew install docsieve", Breadcrumb: []string{"Install", "macOS"}},
		},
	}

	out := SearchResult("guide.md", res, Options{Previews: true, Width: 12})
	assert.Contains(t, out, "guide.md: 1 matches, 2 sections")
	assert.Contains(t, out, "macOS (p.3)")
	assert.Contains(t, out, "brew inst...")
	assert.Contains(t, out, "Install > macOS")
}

func TestSearchResult_Empty(t *testing.T) {
	out := SearchResult("doc", &library.Result{}, Options{})
	require.Contains(t, out, "doc: 0 matches, 0 sections")
	assert.NotContains(t, out, untitled)
}

func TestOutline_Previews(t *testing.T) {
	long := strings.Repeat("word ", 40)
	b := doctree.NewBuilder("Guide")
	b.Heading(1, "Install")
	b.Paragraph(long)
	forest := b.Tree().Children

	tests := []struct {
		name string
		opts Options
		want string
		not  string
	}{
		{"off", Options{Width: 20}, "", "word"},
		{"cut", Options{Previews: true, Width: 20}, "...", ""},
		{"no limit", Options{Previews: true}, strings.TrimSpace(long), "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Outline("Guide", forest, tt.opts)
			assert.Contains(t, out, "Install")
			if tt.want != "" {
				assert.Contains(t, out, tt.want)
			}
			if tt.not != "" {
				assert.NotContains(t, out, tt.not)
			}
		})
	}
}

func TestSearchResult_ZeroWidthKeepsText(t *testing.T) {
	text := strings.Repeat("brew install docsieve ", 10)
	res := &library.Result{
		Matches:  1,
		Included: 1,
		Forest: []*fiber.Node[library.Hit]{
			{Value: library.Hit{Title: "macOS", Text: text, Matched: true}},
		},
		Snippets: []doctree.Chunk{{Text: text, Breadcrumb: []string{"macOS"}}},
	}

	out := SearchResult("guide.md", res, Options{Previews: true, Width: 0})
	assert.Equal(t, 2, strings.Count(out, strings.TrimSpace(text)))
	assert.NotContains(t, out, "...")
}
