package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docsieve/internal/doctree"
	"github.com/dgallion1/docsieve/internal/fiber"
	"github.com/dgallion1/docsieve/internal/library"
	"github.com/dgallion1/docsieve/internal/parser"
)

// Worker processes a single document job.
type Worker struct {
	lib        *library.Library
	log        *slog.Logger
	parserOpts parser.Options
}

func NewWorker(lib *library.Library, log *slog.Logger, parserOpts parser.Options) *Worker {
	return &Worker{
		lib:        lib,
		log:        log,
		parserOpts: parserOpts,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)
	defer job.releaseFileData()

	if err := ctx.Err(); err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "canceled")
		return
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	tree, err := Parse(job.FileData(), job.Filename, w.parserOpts)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if job.Title != "" {
		tree.Title = job.Title
	}

	// Phase 2: Index
	job.SetStatus(StatusIndexing, "indexing")
	ft, err := tree.Fibers()
	if err != nil {
		if errors.Is(err, fiber.ErrEmptyTree) {
			log.Warn("no sections produced")
			job.AddError("no extractable content")
		} else {
			job.AddError(fmt.Sprintf("index: %s", err))
		}
		job.SetStatus(StatusFailed, "indexing")
		return
	}

	// Compute content hash from the section tree.
	job.SetContentHash(TreeHash(ft))

	// Phase 2.5: Dedup check
	if !job.Force {
		if existing, ok := w.lib.FindByHash(job.ContentHash); ok {
			log.Info("duplicate document, skipping", "existing_doc_id", existing.ID)
			job.MarkDuplicate(existing.ID)
			return
		}
	}

	doc := &library.Document{
		ID:          job.DocID,
		Title:       tree.Title,
		Filename:    job.Filename,
		ContentHash: job.ContentHash,
		Tree:        ft,
	}
	if err := w.lib.Put(doc); err != nil {
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "indexing")
		return
	}

	depth := maxDepth(ft)
	job.SetIndexed(ft.Len(), depth)
	log.Info("indexed document", "sections", ft.Len(), "depth", depth)
	job.SetStatus(StatusCompleted, "done")
}

// Parse picks a parser by file extension and parses data into a DocTree.
func Parse(data []byte, filename string, opts parser.Options) (*doctree.DocTree, error) {
	p, err := parser.ForFile(filename, opts)
	if err != nil {
		return nil, err
	}
	tree, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return tree, nil
}

// maxDepth returns the depth of the deepest section, 0 for a flat tree.
func maxDepth(t *fiber.Tree[doctree.Section]) int {
	depth := make([]int, t.Len())
	deepest := 0
	for id := range t.All() {
		if p := t.Fiber(id).Parent; p != fiber.None {
			depth[id] = depth[p] + 1
		}
		deepest = max(deepest, depth[id])
	}
	return deepest
}
