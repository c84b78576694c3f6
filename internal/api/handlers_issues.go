package api

import (
	"errors"
	"net/http"

	"github.com/dgallion1/kozlony/internal/fetch"
	"github.com/dgallion1/kozlony/internal/listing"
)

func (s *Server) handleIssues(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Issues.Latest(r.Context())
	if err != nil {
		s.log.Error("listing failed", "error", err)
		jsonError(w, "could not load issue list", http.StatusBadGateway)
		return
	}
	if items == nil {
		items = []listing.Item{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"issues": items})
}

// handleProxy passes an allow-listed document through unchanged.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		jsonError(w, "url is required", http.StatusBadRequest)
		return
	}
	if !s.deps.Fetcher.Allowed(target) {
		jsonError(w, "host not allowed", http.StatusForbidden)
		return
	}

	body, err := s.deps.Fetcher.Get(r.Context(), target)
	if err != nil {
		s.fetchError(w, target, err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(body))
	w.Write(body)
}

func (s *Server) fetchError(w http.ResponseWriter, target string, err error) {
	s.log.Warn("fetch failed", "url", target, "error", err)
	switch {
	case errors.Is(err, fetch.ErrHostNotAllowed):
		jsonError(w, "host not allowed", http.StatusForbidden)
	case errors.Is(err, fetch.ErrTooLarge):
		jsonError(w, "document too large", http.StatusRequestEntityTooLarge)
	default:
		jsonError(w, "could not fetch document", http.StatusBadGateway)
	}
}
