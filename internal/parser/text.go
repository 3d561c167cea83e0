package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docsieve/internal/doctree"
)

// TextParser handles plain text files. Each paragraph becomes a section
// whose Page field holds the paragraph's first line number.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	b := doctree.NewBuilder(trimExt(filename, ".txt"))
	var current strings.Builder
	lineNo, start := 0, 0

	emit := func() {
		if current.Len() == 0 {
			return
		}
		b.Add(doctree.Section{Text: current.String(), Page: start})
		current.Reset()
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			emit()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		} else {
			start = lineNo
		}
		current.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	emit()

	return b.Tree(), nil
}
