package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docsieve/internal/chunker"
	"github.com/dgallion1/docsieve/internal/library"
	"github.com/dgallion1/docsieve/internal/render"
)

func newSearchCmd(root *rootOptions) *cobra.Command {
	var (
		q      library.Query
		field  string
		width  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search FILE QUERY",
		Short: "Show the sections of a document that match a query, with their context",
		Long: `Search prints every section that matches QUERY together with the
sections above it and everything nested below it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := root.logger(cmd)
			doc, err := root.loadDocument(args[0])
			if err != nil {
				return err
			}

			lib := library.New(library.Options{Chunk: chunker.DefaultConfig()}, log)
			defer lib.Close()
			if err := lib.Put(doc); err != nil {
				return err
			}

			q.Text = args[1]
			q.Field = library.Field(field)
			res, err := lib.Search(doc.ID, q)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), render.SearchResult(doc.Title, res, render.Options{Previews: true, Width: width}))
			return err
		},
	}
	cmd.Flags().StringVarP(&field, "field", "f", string(library.FieldAny), "Section field to match: any, title or text")
	cmd.Flags().BoolVarP(&q.Regex, "regex", "r", false, "Treat QUERY as a regular expression")
	cmd.Flags().BoolVarP(&q.CaseSensitive, "case-sensitive", "c", false, "Match case exactly")
	cmd.Flags().BoolVarP(&q.Snippets, "snippets", "s", false, "Print chunked text of matched sections")
	cmd.Flags().IntVarP(&width, "width", "w", 80, "Maximum width of text previews and snippets, 0 for no limit")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}
