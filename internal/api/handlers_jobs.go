package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgallion1/kozlony/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

type jobsRequest struct {
	Issues []struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	} `json:"issues"`
}

func (s *Server) handleSubmitJobs(w http.ResponseWriter, r *http.Request) {
	if s.deps.Orchestrator == nil {
		jsonError(w, "batch jobs unavailable", http.StatusServiceUnavailable)
		return
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		s.submitUpload(w, r)
		return
	}

	var req jobsRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Issues) == 0 {
		jsonError(w, "at least one issue is required", http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(req.Issues))
	for _, is := range req.Issues {
		if !s.deps.Fetcher.Allowed(is.URL) {
			results = append(results, map[string]any{
				"url":   is.URL,
				"error": "host not allowed",
			})
			continue
		}

		job := pipeline.NewJob(is.URL, is.Title)
		if err := s.deps.Orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"url":   is.URL,
				"error": err.Error(),
			})
			continue
		}
		results = append(results, map[string]any{
			"url":      is.URL,
			"job_id":   job.ID,
			"status":   pipeline.StatusQueued,
			"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
		})
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

// submitUpload queues a job for an uploaded PDF. The job carries the bytes
// and skips the download step.
func (s *Server) submitUpload(w http.ResponseWriter, r *http.Request) {
	data, title, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	job := pipeline.NewJob("", title)
	job.SetFileData(data)
	if err := s.deps.Orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": []map[string]any{{
		"title":    title,
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	}}})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Orchestrator == nil {
		jsonError(w, "batch jobs unavailable", http.StatusServiceUnavailable)
		return
	}
	job := s.deps.Orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}
