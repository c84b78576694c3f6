package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/kozlony/internal/toc"
	"github.com/google/uuid"
)

// JobStatus represents the state of an issue processing job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusDownloading JobStatus = "downloading"
	StatusParsing     JobStatus = "parsing"
	StatusSummarizing JobStatus = "summarizing"
	StatusCompleted   JobStatus = "completed"
	StatusEmpty       JobStatus = "empty"
	StatusFailed      JobStatus = "failed"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusEmpty || s == StatusFailed
}

// Job tracks one issue from download to table of contents.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	DocID string `json:"doc_id"`
	URL   string `json:"url"`
	Title string `json:"title"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	doc      *toc.Document
	summary  string
	errors   []string
}

// NewJob creates a queued job for the issue at url. Uploads submitted to
// POST /api/jobs pass an empty url and attach their bytes with SetFileData.
func NewJob(url, title string) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.New().String(),
		URL:       url,
		Title:     title,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes finished jobs that have not changed within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Done() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// update applies fn under the job lock and bumps UpdatedAt.
func (j *Job) update(fn func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	fn()
	j.UpdatedAt = time.Now()
}

func (j *Job) SetStatus(status JobStatus, phase string) {
	j.update(func() { j.Status, j.Phase = status, phase })
}

func (j *Job) AddError(msg string) {
	j.update(func() { j.errors = append(j.errors, msg) })
}

// SetDocument stores the extracted table of contents and drops the PDF bytes.
func (j *Job) SetDocument(doc toc.Document) {
	j.update(func() { j.doc, j.fileData = &doc, nil })
}

func (j *Job) SetSummary(text string) {
	j.update(func() { j.summary = text })
}

func (j *Job) setDocID(id string) {
	j.update(func() { j.DocID = id })
}

// SetFileData attaches the raw PDF bytes; a job with data skips the download.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string        `json:"job_id"`
	DocID     string        `json:"doc_id,omitempty"`
	URL       string        `json:"url,omitempty"`
	Title     string        `json:"title"`
	Status    JobStatus     `json:"status"`
	Phase     string        `json:"phase"`
	Errors    []string      `json:"errors"`
	Document  *toc.Document `json:"document,omitempty"`
	Summary   string        `json:"summary,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.errors))
	copy(errs, j.errors)
	return JobSnapshot{
		ID:        j.ID,
		DocID:     j.DocID,
		URL:       j.URL,
		Title:     j.Title,
		Status:    j.Status,
		Phase:     j.Phase,
		Errors:    errs,
		Document:  j.doc,
		Summary:   j.summary,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

// DocID is the short content hash used to identify a PDF.
func DocID(data []byte) string {
	return ContentHashHex(data)[:16]
}
