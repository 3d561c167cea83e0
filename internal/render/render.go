// Package render draws section trees for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/mattn/go-runewidth"

	"github.com/dgallion1/docsieve/internal/doctree"
	"github.com/dgallion1/docsieve/internal/fiber"
	"github.com/dgallion1/docsieve/internal/library"
)

const (
	colorBranch = "#6C7086"
	colorMatch  = "#F9E2AF"
	colorMuted  = "#A6ADC8"
	colorHeader = "#89B4FA"

	untitled = "(untitled)"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorHeader)).Bold(true)
	branchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorBranch))
	matchStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMatch)).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
)

// Options controls rendering.
type Options struct {
	// Previews shows section text under each outline entry and matched hit.
	Previews bool
	// Width is the maximum display width of text previews and snippets.
	// Zero or less means no limit.
	Width int
}

// Outline renders a document's full section tree.
func Outline(title string, forest []*doctree.Node, opts Options) string {
	root := tree.New().Root(headerStyle.Render(title)).EnumeratorStyle(branchStyle)
	for _, n := range forest {
		root.Child(outlineNode(n, opts))
	}
	return root.String()
}

func outlineNode(n *doctree.Node, opts Options) *tree.Tree {
	t := tree.New().Root(label(n.Value.Title, n.Value.Page)).EnumeratorStyle(branchStyle)
	if opts.Previews && n.Value.Text != "" {
		t.Child(mutedStyle.Render(Truncate(n.Value.Text, opts.Width)))
	}
	for _, c := range n.Children {
		t.Child(outlineNode(c, opts))
	}
	return t
}

// SearchResult renders a search result tree followed by any snippets.
// Matched sections are highlighted and show a preview of their text.
func SearchResult(title string, res *library.Result, opts Options) string {
	var out strings.Builder

	header := fmt.Sprintf("%s: %d matches, %d sections", title, res.Matches, res.Included)
	if len(res.Forest) == 0 {
		out.WriteString(headerStyle.Render(header))
		out.WriteString("\n")
		return out.String()
	}

	root := tree.New().Root(headerStyle.Render(header)).EnumeratorStyle(branchStyle)
	for _, n := range res.Forest {
		root.Child(hitNode(n, opts))
	}
	out.WriteString(root.String())
	out.WriteString("\n")

	for _, c := range res.Snippets {
		out.WriteString("\n")
		out.WriteString(matchStyle.Render(breadcrumb(c.Breadcrumb)))
		out.WriteString("\n")
		out.WriteString(Truncate(c.Text, opts.Width))
		out.WriteString("\n")
	}
	return out.String()
}

func hitNode(n *fiber.Node[library.Hit], opts Options) *tree.Tree {
	h := n.Value
	name := label(h.Title, h.Page)
	if h.Matched {
		name = matchStyle.Render(name)
	}
	t := tree.New().Root(name).EnumeratorStyle(branchStyle)
	if h.Matched && opts.Previews && h.Text != "" {
		t.Child(mutedStyle.Render(Truncate(h.Text, opts.Width)))
	}
	for _, c := range n.Children {
		t.Child(hitNode(c, opts))
	}
	return t
}

func label(title string, page int) string {
	if title == "" {
		title = untitled
	}
	if page > 0 {
		return fmt.Sprintf("%s (p.%d)", title, page)
	}
	return title
}

func breadcrumb(parts []string) string {
	if len(parts) == 0 {
		return untitled
	}
	return strings.Join(parts, " > ")
}

// Truncate collapses whitespace in s and cuts it to width display cells,
// ending in "..." when cut. A width of zero or less returns the collapsed
// text whole.
func Truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
