package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/kozlony/internal/summary"
	"github.com/dgallion1/kozlony/internal/toc"
)

type summaryRequest struct {
	Entries []toc.Entry `json:"entries"`
}

// summaryResponse keeps the {code, text} shape clients already consume;
// code is 0 on success.
type summaryResponse struct {
	Code  int    `json:"code"`
	Text  string `json:"text"`
	HTML  string `json:"html,omitempty"`
	Model string `json:"model,omitempty"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if _, off := s.deps.Summarizer.(summary.Noop); off {
		jsonError(w, "summaries are disabled", http.StatusServiceUnavailable)
		return
	}

	var req summaryRequest
	r.Body = http.MaxBytesReader(w, r.Body, 2<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Entries) == 0 {
		jsonError(w, "entries are required", http.StatusBadRequest)
		return
	}

	text, err := s.deps.Summarizer.Summarize(r.Context(), req.Entries)
	if err != nil {
		s.log.Error("summary failed", "entries", len(req.Entries), "error", err)
		code := http.StatusBadGateway
		var re *summary.RetryableError
		if errors.As(err, &re) {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, summaryResponse{Code: 1, Text: "summary failed"})
		return
	}

	html, err := summary.RenderHTML(text)
	if err != nil {
		s.log.Warn("summary render failed", "error", err)
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Code:  0,
		Text:  text,
		HTML:  html,
		Model: s.deps.Summarizer.Model(),
	})
}
