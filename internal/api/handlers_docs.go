package api

import (
	"errors"
	"net/http"

	"github.com/dgallion1/docsieve/internal/library"
	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

// handleListDocuments lists all indexed documents, oldest first.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := lo.Map(s.lib.List(), func(d *library.Document, _ int) library.Info {
		return d.Info()
	})
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleDeleteDocument removes a document and its cached searches.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if !s.lib.Delete(docID) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": docID})
}

// handleOutline returns the full section tree of a document.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	doc, ok := s.lib.Get(docID)
	if !ok {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	forest, err := s.lib.Outline(docID)
	if err != nil {
		// Deleted between Get and Outline.
		if errors.Is(err, library.ErrNotFound) {
			jsonError(w, "document not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":   doc.ID,
		"title":    doc.Title,
		"sections": forest,
	})
}
