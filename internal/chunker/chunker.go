package chunker

import (
	"slices"
	"strings"

	"github.com/dgallion1/docsieve/internal/doctree"
	"github.com/dgallion1/docsieve/internal/fiber"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // Target chunk size in tokens.
	ChunkOverlap int // Overlap between consecutive chunks in tokens, 0 for none.
	MinChunk     int // Minimum chunk size to emit.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1500,
		ChunkOverlap: 200,
		MinChunk:     100,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = d.ChunkOverlap
	}
	if c.MinChunk <= 0 {
		c.MinChunk = d.MinChunk
	}
	return c
}

// ChunkTree produces structure-aware chunks for every section of t, in
// document order.
func ChunkTree(t *fiber.Tree[doctree.Section], cfg Config) []doctree.Chunk {
	var ids []fiber.ID
	for id := range t.All() {
		ids = append(ids, id)
	}
	return ChunkSections(t, ids, cfg)
}

// ChunkSections chunks only the given sections. Each chunk's breadcrumb is
// the titles of the section's ancestors followed by its own title.
func ChunkSections(t *fiber.Tree[doctree.Section], ids []fiber.ID, cfg Config) []doctree.Chunk {
	cfg = cfg.withDefaults()

	var chunks []doctree.Chunk
	for _, id := range ids {
		s := t.Value(id)
		if s.Text == "" {
			continue
		}

		var parts []string
		if EstimateTokens(s.Text) <= cfg.ChunkSize {
			parts = []string{s.Text}
		} else {
			parts = splitText(s.Text, cfg.ChunkSize, cfg.ChunkOverlap)
		}

		bc := breadcrumb(t, id)
		for _, part := range parts {
			if EstimateTokens(part) < cfg.MinChunk {
				continue
			}
			chunks = append(chunks, doctree.Chunk{
				Text:       part,
				Index:      len(chunks),
				Breadcrumb: slices.Clone(bc),
				PageStart:  s.Page,
				PageEnd:    s.Page,
			})
		}
	}
	return chunks
}

// breadcrumb returns the non-empty titles from the outermost ancestor down
// to id itself.
func breadcrumb(t *fiber.Tree[doctree.Section], id fiber.ID) []string {
	ancestors := t.Ancestors(id)
	var bc []string
	for i := len(ancestors) - 1; i >= 0; i-- {
		if title := t.Value(ancestors[i]).Title; title != "" {
			bc = append(bc, title)
		}
	}
	if title := t.Value(id).Title; title != "" {
		bc = append(bc, title)
	}
	return bc
}

// splitText breaks text into chunks of approximately targetTokens. It packs
// whole paragraphs, and falls back to sentences for paragraphs that are too
// large on their own.
func splitText(text string, targetTokens, overlapTokens int) []string {
	var result []string
	p := packer{sep: "\n\n", target: targetTokens, overlap: overlapTokens}

	for _, para := range splitByParagraphs(text) {
		if EstimateTokens(para) > targetTokens {
			result = append(result, p.flush()...)
			p.reset()
			sp := packer{sep: " ", target: targetTokens, overlap: overlapTokens}
			for _, sent := range splitSentences(para) {
				result = append(result, sp.add(sent)...)
			}
			result = append(result, sp.flush()...)
			continue
		}
		result = append(result, p.add(para)...)
	}
	return append(result, p.flush()...)
}

// packer accumulates parts up to a token target. When a part would push the
// buffer over target, the buffer is emitted and the next one starts with an
// overlap taken from its tail.
type packer struct {
	sep     string
	target  int
	overlap int

	buf    strings.Builder
	tokens int
}

func (p *packer) add(part string) []string {
	n := EstimateTokens(part)
	var out []string
	if p.tokens > 0 && p.tokens+n > p.target {
		prev := p.buf.String()
		out = append(out, prev)
		p.reset()
		if tail := getOverlapText(prev, p.overlap); tail != "" {
			p.buf.WriteString(tail)
			p.tokens = EstimateTokens(tail)
		}
	}
	if p.buf.Len() > 0 {
		p.buf.WriteString(p.sep)
	}
	p.buf.WriteString(part)
	p.tokens += n
	return out
}

func (p *packer) flush() []string {
	if p.tokens == 0 {
		return nil
	}
	return []string{p.buf.String()}
}

func (p *packer) reset() {
	p.buf.Reset()
	p.tokens = 0
}

// splitByParagraphs splits on double-newlines.
func splitByParagraphs(text string) []string {
	var result []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitSentences does basic sentence splitting on terminal punctuation
// followed by a space.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// getOverlapText extracts the last N tokens worth of text for overlap.
func getOverlapText(text string, targetTokens int) string {
	words := strings.Fields(text)
	targetWords := int(float64(targetTokens) / tokensPerWord)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}
