package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docsieve/internal/doctree"
)

// csvBatchSize is the number of data rows grouped into one section.
const csvBatchSize = 20

// CSVParser handles CSV files. The first row is treated as headers.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	b := doctree.NewBuilder(trimExt(filename, ".csv"))
	if len(records) == 0 {
		return b.Tree(), nil
	}

	headers := records[0]
	rows := records[1:]
	for i := 0; i < len(rows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(rows))

		var text strings.Builder
		text.WriteString("Headers: " + strings.Join(headers, ", ") + "\n\n")
		for _, row := range rows[i:end] {
			cells := make([]string, len(row))
			for j, cell := range row {
				if j < len(headers) {
					cells[j] = headers[j] + ": " + cell
				} else {
					cells[j] = cell
				}
			}
			text.WriteString(strings.Join(cells, ", "))
			text.WriteString("\n")
		}

		// Row numbers are 1-indexed and count the header line.
		b.Add(doctree.Section{
			Title: fmt.Sprintf("Rows %d-%d", i+2, end+1),
			Text:  text.String(),
			Page:  i + 2,
		})
	}

	return b.Tree(), nil
}
