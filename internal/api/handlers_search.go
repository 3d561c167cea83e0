package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/docsieve/internal/library"
	"github.com/go-chi/chi/v5"
)

// maxQueryBytes bounds the JSON body of a search request.
const maxQueryBytes = 64 << 10

// handleSearch runs a section search over one document.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	var q library.Query
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBytes)).Decode(&q); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.lib.Search(docID, q)
	switch {
	case errors.Is(err, library.ErrNotFound):
		jsonError(w, "document not found", http.StatusNotFound)
		return
	case errors.Is(err, library.ErrInvalidQuery):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		s.log.Error("search failed", "doc_id", docID, "error", err)
		jsonError(w, "search failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
