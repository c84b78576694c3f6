package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/kozlony/internal/config"
	"github.com/dgallion1/kozlony/internal/fetch"
	"github.com/dgallion1/kozlony/internal/listing"
	"github.com/dgallion1/kozlony/internal/pipeline"
	"github.com/dgallion1/kozlony/internal/summary"
	"github.com/dgallion1/kozlony/internal/toc"
)

var testLog = slog.New(slog.DiscardHandler)

type fakeLister struct {
	items []listing.Item
	err   error
}

func (f fakeLister) Latest(context.Context) ([]listing.Item, error) { return f.items, f.err }

type fakeFetcher struct {
	body []byte
	err  error
}

func (f fakeFetcher) Get(_ context.Context, rawURL string) ([]byte, error) {
	if !f.Allowed(rawURL) {
		return nil, fetch.ErrHostNotAllowed
	}
	return f.body, f.err
}

func (f fakeFetcher) Allowed(rawURL string) bool {
	return strings.HasPrefix(rawURL, "https://magyarkozlony.hu/")
}

type fakeParser struct {
	doc toc.Document
	err error
}

func (f fakeParser) Parse(_ context.Context, r io.Reader, title string) (toc.Document, error) {
	if _, err := io.ReadAll(r); err != nil {
		return toc.Document{}, err
	}
	if f.err != nil {
		return toc.Document{}, f.err
	}
	doc := f.doc
	doc.Title = title
	return doc, nil
}

type fakeSummarizer struct {
	text string
	err  error
}

func (f fakeSummarizer) Summarize(context.Context, []toc.Entry) (string, error) { return f.text, f.err }
func (f fakeSummarizer) Model() string                                          { return "fake-model" }

var sampleDoc = toc.Document{
	Variant: toc.Gazette,
	Blocks: []toc.Block{{
		{ID: "2025. évi I. törvény", Name: "valamiről ", Num: "2025"},
	}},
}

func testConfig() config.Config {
	return config.Config{MaxDocumentBytes: 1 << 20, WorkerCount: 1, MaxQueueSize: 10, JobTTL: time.Hour}
}

func newTestServer(deps Deps, cfg config.Config) *Server {
	if deps.Fetcher == nil {
		deps.Fetcher = fakeFetcher{body: []byte("%PDF-1.7")}
	}
	if deps.Parser == nil {
		deps.Parser = fakeParser{doc: sampleDoc}
	}
	if deps.Issues == nil {
		deps.Issues = fakeLister{}
	}
	return NewServer(deps, testLog, cfg)
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(Deps{}, testConfig())
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
}

func TestAuth(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = "secret"
	s := newTestServer(Deps{}, cfg)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/issues", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/issues", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	if rec := do(t, s, req); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/issues", nil)
	req.Header.Set("Authorization", "Bearer secret")
	if rec := do(t, s, req); rec.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", rec.Code)
	}

	if rec := do(t, s, httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusOK {
		t.Errorf("expected health to stay public, got %d", rec.Code)
	}
}

func TestIssues(t *testing.T) {
	items := []listing.Item{{Date: "2025-03-14", Title: "Magyar Közlöny 30", Download: "https://magyarkozlony.hu/a/letoltes"}}
	s := newTestServer(Deps{Issues: fakeLister{items: items}}, testConfig())

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/issues", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Issues []listing.Item `json:"issues"`
	}
	decode(t, rec, &body)
	if len(body.Issues) != 1 || body.Issues[0].Title != "Magyar Közlöny 30" {
		t.Errorf("unexpected issues %+v", body.Issues)
	}

	s = newTestServer(Deps{Issues: fakeLister{err: errors.New("down")}}, testConfig())
	if rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/issues", nil)); rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502 on listing failure, got %d", rec.Code)
	}
}

func TestProxy(t *testing.T) {
	s := newTestServer(Deps{}, testConfig())

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/proxy?url=https://magyarkozlony.hu/a/letoltes", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "%PDF-1.7" {
		t.Errorf("unexpected proxy response %d %q", rec.Code, rec.Body.String())
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/proxy?url=https://evil.example/", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for foreign host, got %d", rec.Code)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/proxy", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without url, got %d", rec.Code)
	}

	s = newTestServer(Deps{Fetcher: fakeFetcher{err: fetch.ErrTooLarge}}, testConfig())
	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/proxy?url=https://magyarkozlony.hu/x", nil))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413 for oversized document, got %d", rec.Code)
	}
}

func TestTocFromURL(t *testing.T) {
	s := newTestServer(Deps{}, testConfig())
	rec := do(t, s, httptest.NewRequest(http.MethodGet,
		"/api/toc?url=https://magyarkozlony.hu/a/letoltes&title=Magyar+K%C3%B6zl%C3%B6ny", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Title   string      `json:"title"`
		Variant toc.Variant `json:"variant"`
		Blocks  []toc.Block `json:"blocks"`
		Empty   bool        `json:"empty"`
	}
	decode(t, rec, &body)
	if body.Title != "Magyar Közlöny" || body.Empty || len(body.Blocks) != 1 {
		t.Errorf("unexpected body %+v", body)
	}
	if body.Blocks[0][0].Num != "2025" {
		t.Errorf("unexpected entry %+v", body.Blocks[0][0])
	}
}

func TestTocFromURL_Empty(t *testing.T) {
	s := newTestServer(Deps{Parser: fakeParser{doc: toc.Document{Blocks: []toc.Block{}}}}, testConfig())
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/toc?url=https://magyarkozlony.hu/a", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"empty":true`) || !strings.Contains(rec.Body.String(), `"blocks":[]`) {
		t.Errorf("expected empty document, got %s", rec.Body.String())
	}
}

func TestTocFromURL_SupplierFailure(t *testing.T) {
	parserErr := &toc.SupplierError{Page: 3, Err: errors.New("bad xref")}
	s := newTestServer(Deps{Parser: fakeParser{err: parserErr}}, testConfig())
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/toc?url=https://magyarkozlony.hu/a", nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "could not load document") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestTocFromURL_ForbiddenHost(t *testing.T) {
	s := newTestServer(Deps{}, testConfig())
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/toc?url=http://localhost/secret", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func multipartUpload(t *testing.T, path, filename string, data []byte, title string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(data)
	mw.WriteField("title", title)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestTocUpload(t *testing.T) {
	s := newTestServer(Deps{}, testConfig())

	rec := do(t, s, multipartUpload(t, "/api/toc", "kozlony.pdf", []byte("%PDF-1.7"), "Hivatalos Értesítő 12"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Hivatalos Értesítő 12") {
		t.Errorf("expected title in response, got %s", rec.Body.String())
	}

	rec = do(t, s, multipartUpload(t, "/api/toc", "notes.txt", []byte("x"), ""))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-pdf upload, got %d", rec.Code)
	}

	cfg := testConfig()
	cfg.MaxDocumentBytes = 4
	s = newTestServer(Deps{}, cfg)
	rec = do(t, s, multipartUpload(t, "/api/toc", "big.pdf", []byte("%PDF-1.7 too big"), ""))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestExport(t *testing.T) {
	s := newTestServer(Deps{}, testConfig())
	doc := sampleDoc
	doc.Title = "Magyar Közlöny 2025/30"
	body, _ := json.Marshal(doc)

	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/export/text", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "2025. évi I. törvény valamiről 2025\n" {
		t.Errorf("unexpected export body %q", rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `Magyar_Közlöny_2025_30.txt`) {
		t.Errorf("unexpected content disposition %q", cd)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodPost, "/api/export/html", bytes.NewReader(body)))
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Errorf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}

	rec = do(t, s, httptest.NewRequest(http.MethodPost, "/api/export/pdf", bytes.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown format, got %d", rec.Code)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodPost, "/api/export/json", strings.NewReader(`{"variant":"nope"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid document, got %d", rec.Code)
	}
}

func TestSummary(t *testing.T) {
	req := func() *http.Request {
		return httptest.NewRequest(http.MethodPost, "/api/summary",
			strings.NewReader(`{"entries":[{"id":"2025. évi I. törvény","name":"valamiről ","num":"2025"}]}`))
	}

	s := newTestServer(Deps{}, testConfig())
	if rec := do(t, s, req()); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when summaries are off, got %d", rec.Code)
	}

	s = newTestServer(Deps{Summarizer: fakeSummarizer{text: "**Két** új törvény."}}, testConfig())
	rec := do(t, s, req())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body summaryResponse
	decode(t, rec, &body)
	if body.Code != 0 || body.Text != "**Két** új törvény." || body.Model != "fake-model" {
		t.Errorf("unexpected summary %+v", body)
	}
	if !strings.Contains(body.HTML, "<strong>Két</strong>") {
		t.Errorf("expected rendered html, got %q", body.HTML)
	}

	s = newTestServer(Deps{Summarizer: fakeSummarizer{err: &summary.RetryableError{StatusCode: 429}}}, testConfig())
	rec = do(t, s, req())
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 for rate limited provider, got %d", rec.Code)
	}
	decode(t, rec, &body)
	if body.Code != 1 {
		t.Errorf("expected error code 1, got %d", body.Code)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodPost, "/api/summary", strings.NewReader(`{"entries":[]}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without entries, got %d", rec.Code)
	}
}

func TestJobs(t *testing.T) {
	cfg := testConfig()
	worker := pipeline.NewWorker(fakeFetcher{body: []byte("%PDF-1.7")}, fakeParser{doc: sampleDoc}, nil, testLog)
	orch := pipeline.NewOrchestrator(cfg, worker, testLog)
	orch.Start(context.Background())
	defer orch.Stop()

	s := newTestServer(Deps{Orchestrator: orch}, cfg)
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(
		`{"issues":[{"url":"https://magyarkozlony.hu/a/letoltes","title":"Magyar Közlöny 30"},{"url":"https://evil.example/x"}]}`)))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Jobs []struct {
			JobID string `json:"job_id"`
			Error string `json:"error"`
		} `json:"jobs"`
	}
	decode(t, rec, &body)
	if len(body.Jobs) != 2 || body.Jobs[0].JobID == "" || body.Jobs[1].Error == "" {
		t.Fatalf("unexpected jobs response %+v", body.Jobs)
	}

	snap := waitJob(t, s, body.Jobs[0].JobID)
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed job, got %q %v", snap.Status, snap.Errors)
	}
	if snap.Document == nil || snap.Document.Title != "Magyar Közlöny 30" {
		t.Errorf("expected document in job snapshot, got %+v", snap.Document)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown job, got %d", rec.Code)
	}
}

func waitJob(t *testing.T, h http.Handler, id string) pipeline.JobSnapshot {
	t.Helper()
	var snap pipeline.JobSnapshot
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/jobs/"+id, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		decode(t, rec, &snap)
		if snap.Status.Done() || time.Now().After(deadline) {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestJobs_Upload(t *testing.T) {
	cfg := testConfig()
	// Downloads always fail, so a completed job proves the upload skipped them.
	noDownload := fakeFetcher{err: errors.New("download not expected")}
	worker := pipeline.NewWorker(noDownload, fakeParser{doc: sampleDoc}, nil, testLog)
	orch := pipeline.NewOrchestrator(cfg, worker, testLog)
	orch.Start(context.Background())
	defer orch.Stop()

	s := newTestServer(Deps{Orchestrator: orch}, cfg)
	rec := do(t, s, multipartUpload(t, "/api/jobs", "kozlony.pdf", []byte("%PDF-1.7"), "Magyar Közlöny 31"))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Jobs []struct {
			JobID string `json:"job_id"`
		} `json:"jobs"`
	}
	decode(t, rec, &body)
	if len(body.Jobs) != 1 || body.Jobs[0].JobID == "" {
		t.Fatalf("unexpected jobs response %+v", body.Jobs)
	}

	snap := waitJob(t, s, body.Jobs[0].JobID)
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed job, got %q %v", snap.Status, snap.Errors)
	}
	if snap.URL != "" || snap.DocID == "" {
		t.Errorf("expected uploaded job without url and with doc id, got url=%q doc_id=%q", snap.URL, snap.DocID)
	}
	if snap.Document == nil || snap.Document.Title != "Magyar Közlöny 31" {
		t.Errorf("expected uploaded document in job snapshot, got %+v", snap.Document)
	}

	rec = do(t, s, multipartUpload(t, "/api/jobs", "notes.txt", []byte("x"), ""))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-pdf upload, got %d", rec.Code)
	}
}

func TestLLMStats(t *testing.T) {
	s := newTestServer(Deps{}, testConfig())
	if rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil)); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without stats, got %d", rec.Code)
	}

	stats := summary.NewLLMStats("fake-model", time.Hour)
	stats.Record(120)
	s = newTestServer(Deps{Summarizer: fakeSummarizer{}, Stats: stats}, testConfig())
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Model string                `json:"model"`
		Stats summary.StatsSnapshot `json:"stats"`
	}
	decode(t, rec, &body)
	if body.Model != "fake-model" || body.Stats.Count != 1 {
		t.Errorf("unexpected stats %+v", body)
	}
}
