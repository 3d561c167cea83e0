package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docsieve/internal/library"
	"github.com/dgallion1/docsieve/internal/parser"
	"github.com/dgallion1/docsieve/internal/pipeline"
)

type rootOptions struct {
	verbose   bool
	pdftotext bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "docsieve",
		Short:         "Inspect and search the section structure of documents",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging on stderr")
	cmd.PersistentFlags().BoolVar(&opts.pdftotext, "pdftotext", true, "Fall back to pdftotext for PDFs without extractable text")

	cmd.AddCommand(newOutlineCmd(opts), newSearchCmd(opts))
	return cmd
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// loadDocument parses a file from disk into a library document.
func (o *rootOptions) loadDocument(path string) (*library.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	tree, err := pipeline.Parse(data, name, parser.Options{PDFFallbackPdftotext: o.pdftotext})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	ft, err := tree.Fibers()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &library.Document{
		ID:          name,
		Title:       tree.Title,
		Filename:    name,
		ContentHash: pipeline.TreeHash(ft),
		Tree:        ft,
	}, nil
}
