package library

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/docsieve/internal/doctree"
)

// ErrInvalidQuery is returned when a query cannot be compiled.
var ErrInvalidQuery = errors.New("invalid query")

// Field selects which parts of a section a query looks at.
type Field string

const (
	FieldAny   Field = "any"
	FieldTitle Field = "title"
	FieldText  Field = "text"
)

// Query describes a section search.
type Query struct {
	Text          string `json:"query"`
	Field         Field  `json:"field,omitempty"`
	Regex         bool   `json:"regex,omitempty"`
	CaseSensitive bool   `json:"case_sensitive,omitempty"`
	Snippets      bool   `json:"snippets,omitempty"` // Include chunked text of matched sections
}

// Compile turns q into a section predicate.
func (q Query) Compile() (func(doctree.Section) bool, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidQuery)
	}

	fields, err := q.fields()
	if err != nil {
		return nil, err
	}

	var contains func(string) bool
	switch {
	case q.Regex:
		pattern := text
		if !q.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		contains = re.MatchString
	case q.CaseSensitive:
		contains = func(s string) bool { return strings.Contains(s, text) }
	default:
		needle := strings.ToLower(text)
		contains = func(s string) bool { return strings.Contains(strings.ToLower(s), needle) }
	}

	return func(s doctree.Section) bool {
		for _, f := range fields(s) {
			if f != "" && contains(f) {
				return true
			}
		}
		return false
	}, nil
}

func (q Query) fields() (func(doctree.Section) []string, error) {
	switch q.Field {
	case "", FieldAny:
		return func(s doctree.Section) []string { return []string{s.Title, s.Text} }, nil
	case FieldTitle:
		return func(s doctree.Section) []string { return []string{s.Title} }, nil
	case FieldText:
		return func(s doctree.Section) []string { return []string{s.Text} }, nil
	default:
		return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidQuery, q.Field)
	}
}

// key is a canonical form of q. Queries with equal keys match the same
// sections and produce the same result.
func (q Query) key() string {
	text := strings.TrimSpace(q.Text)
	if !q.Regex && !q.CaseSensitive {
		text = strings.ToLower(text)
	}
	field := q.Field
	if field == "" {
		field = FieldAny
	}
	return fmt.Sprintf("%s|%t|%t|%t|%s", field, q.Regex, q.CaseSensitive, q.Snippets, text)
}
