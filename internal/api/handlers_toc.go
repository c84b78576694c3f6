package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/dgallion1/kozlony/internal/parser"
	"github.com/dgallion1/kozlony/internal/toc"
)

type tocResponse struct {
	toc.Document
	Empty bool `json:"empty"`
}

// handleTocFromURL downloads an issue and returns its table of contents.
func (s *Server) handleTocFromURL(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		jsonError(w, "url is required", http.StatusBadRequest)
		return
	}
	if !s.deps.Fetcher.Allowed(target) {
		jsonError(w, "host not allowed", http.StatusForbidden)
		return
	}

	data, err := s.deps.Fetcher.Get(r.Context(), target)
	if err != nil {
		s.fetchError(w, target, err)
		return
	}
	s.extract(w, r, data, r.URL.Query().Get("title"))
}

// handleTocUpload extracts the table of contents from an uploaded PDF.
func (s *Server) handleTocUpload(w http.ResponseWriter, r *http.Request) {
	data, title, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	s.extract(w, r, data, title)
}

// readUpload reads the multipart "file" and "title" fields. On failure it
// writes the error response and returns ok=false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (data []byte, title string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxDocumentBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, "", false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return nil, "", false
	}
	defer file.Close()

	if !parser.IsSupportedExtension(header.Filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(header.Filename)), http.StatusBadRequest)
		return nil, "", false
	}

	data, err = io.ReadAll(io.LimitReader(file, s.cfg.MaxDocumentBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return nil, "", false
	}
	if int64(len(data)) > s.cfg.MaxDocumentBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxDocumentBytes), http.StatusRequestEntityTooLarge)
		return nil, "", false
	}
	return data, r.FormValue("title"), true
}

func (s *Server) extract(w http.ResponseWriter, r *http.Request, data []byte, title string) {
	doc, err := s.deps.Parser.Parse(r.Context(), bytes.NewReader(data), title)
	if err != nil {
		if toc.IsSupplierFailure(err) {
			s.log.Warn("document could not be decoded", "title", title, "error", err)
			jsonError(w, "could not load document", http.StatusUnprocessableEntity)
			return
		}
		s.log.Error("extraction failed", "title", title, "error", err)
		jsonError(w, "extraction failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tocResponse{Document: doc, Empty: doc.Empty()})
}
