package doctree

import (
	"strings"

	"github.com/dgallion1/docsieve/internal/fiber"
)

// Section is a heading and the text that follows it.
type Section struct {
	Title string `json:"title,omitempty"` // Section heading (empty for leaf text)
	Text  string `json:"text,omitempty"`  // Text content of this section (may be empty for container sections)
	Page  int    `json:"page,omitempty"`  // Source page/line (0 if N/A)
	Level int    `json:"level,omitempty"` // Heading level, 0 for flat sections
}

// Node is a section with its subsections.
type Node = fiber.Node[Section]

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string  // Document title (from metadata or filename)
	Children []*Node // Top-level sections
}

// Chunk is a sized text segment with structural context.
type Chunk struct {
	Text       string   `json:"text"`
	Index      int      `json:"index"`
	Breadcrumb []string `json:"breadcrumb,omitempty"` // Heading hierarchy, e.g. ["Financial Results", "Revenue", "Q4"]
	PageStart  int      `json:"page_start,omitempty"`
	PageEnd    int      `json:"page_end,omitempty"`
}

// Builder assembles a DocTree from a flat stream of headings and
// paragraphs. Text is attached to the most recent heading; a heading nests
// under the nearest preceding heading of a lower level.
type Builder struct {
	title   string
	root    *Node
	stack   []*Node
	pending strings.Builder
}

func NewBuilder(title string) *Builder {
	root := &Node{Value: Section{Title: title}}
	return &Builder{
		title: title,
		root:  root,
		stack: []*Node{root},
	}
}

// Heading opens a new section at the given level (1 = top).
func (b *Builder) Heading(level int, title string) {
	b.flush()
	n := &Node{Value: Section{Title: title, Level: level}}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].Value.Level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1]
	parent.Children = append(parent.Children, n)
	b.stack = append(b.stack, n)
}

// Paragraph queues text for the current section. Blank text is ignored.
func (b *Builder) Paragraph(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if b.pending.Len() > 0 {
		b.pending.WriteString("\n\n")
	}
	b.pending.WriteString(text)
}

// Add appends a complete top-level section, bypassing heading nesting.
func (b *Builder) Add(s Section) {
	b.flush()
	b.root.Children = append(b.root.Children, &Node{Value: s})
	b.stack = b.stack[:1]
}

// SetTitle replaces the document title.
func (b *Builder) SetTitle(title string) {
	b.title = title
	b.root.Value.Title = title
}

// Tree finishes the document. Text found before any heading in a document
// with no headings at all becomes a single untitled section.
func (b *Builder) Tree() *DocTree {
	b.flush()
	tree := &DocTree{Title: b.title, Children: b.root.Children}
	if len(tree.Children) == 0 && b.root.Value.Text != "" {
		tree.Children = []*Node{{Value: Section{Text: b.root.Value.Text}}}
	}
	return tree
}

func (b *Builder) flush() {
	t := strings.TrimSpace(b.pending.String())
	b.pending.Reset()
	if t == "" {
		return
	}
	top := &b.stack[len(b.stack)-1].Value
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
}

// Count returns the number of sections in the tree.
func (t *DocTree) Count() int {
	n := 0
	var walk func([]*Node)
	walk = func(nodes []*Node) {
		for _, c := range nodes {
			n++
			walk(c.Children)
		}
	}
	walk(t.Children)
	return n
}

// Fibers converts the document into a fiber tree. It fails with
// fiber.ErrEmptyTree when the document has no sections.
func (t *DocTree) Fibers() (*fiber.Tree[Section], error) {
	return fiber.Convert(t.Children)
}

// FlatText joins the text of every section in document order.
func (t *DocTree) FlatText() string {
	var sb strings.Builder
	var walk func([]*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			if n.Value.Text != "" {
				if sb.Len() > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString(n.Value.Text)
			}
			walk(n.Children)
		}
	}
	walk(t.Children)
	return sb.String()
}
