package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	"github.com/dgallion1/kozlony/internal/export"
	"github.com/dgallion1/kozlony/internal/toc"
	"github.com/go-chi/chi/v5"
)

var unsafeFilename = regexp.MustCompile(`[^\pL\pN._-]+`)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var doc toc.Document
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		jsonError(w, "invalid document: "+err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, doc, f); err != nil {
		s.log.Error("export failed", "format", f, "error", err)
		jsonError(w, "export failed", http.StatusInternalServerError)
		return
	}

	name := unsafeFilename.ReplaceAllString(doc.Title, "_")
	if name == "" || name == "_" {
		name = "tartalomjegyzek"
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+f.Extension()))
	w.Write(buf.Bytes())
}
