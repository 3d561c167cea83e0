package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docsieve/internal/render"
)

func newOutlineCmd(root *rootOptions) *cobra.Command {
	var (
		text   bool
		width  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "outline FILE",
		Short: "Print the section tree of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := root.loadDocument(args[0])
			if err != nil {
				return err
			}
			root.logger(cmd).Debug("parsed document", "file", args[0], "sections", doc.Tree.Len())

			forest := doc.Tree.Forest()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"title": doc.Title, "sections": forest})
			}
			// Setting a width alone still asks for previews.
			opts := render.Options{Previews: text || cmd.Flags().Changed("width"), Width: width}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), render.Outline(doc.Title, forest, opts))
			return err
		},
	}
	cmd.Flags().BoolVarP(&text, "text", "t", false, "Show a preview of each section's text")
	cmd.Flags().IntVarP(&width, "width", "w", 80, "Maximum width of text previews, 0 for no limit")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the tree as JSON")
	return cmd
}
