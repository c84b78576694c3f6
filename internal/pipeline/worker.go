package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dgallion1/kozlony/internal/summary"
	"github.com/dgallion1/kozlony/internal/toc"
)

// Downloader fetches issue PDFs.
type Downloader interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// DocumentParser turns PDF bytes into a table of contents.
type DocumentParser interface {
	Parse(ctx context.Context, r io.Reader, title string) (toc.Document, error)
}

// Worker processes a single issue job.
type Worker struct {
	downloader Downloader
	parser     DocumentParser
	summarizer summary.Summarizer
	log        *slog.Logger

	backoff func(attempt int) time.Duration
}

// NewWorker builds a worker; a nil summarizer disables summaries.
func NewWorker(d Downloader, p DocumentParser, s summary.Summarizer, log *slog.Logger) *Worker {
	if s == nil {
		s = summary.Noop{}
	}
	return &Worker{
		downloader: d,
		parser:     p,
		summarizer: s,
		log:        log,
		backoff:    Backoff,
	}
}

// Process runs download, extraction and summary for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "url", job.URL)

	data := job.FileData()
	if data == nil {
		job.SetStatus(StatusDownloading, "downloading")
		var err error
		data, err = w.downloader.Get(ctx, job.URL)
		if err != nil {
			log.Error("download failed", "error", err)
			job.AddError(fmt.Sprintf("download: %s", err))
			job.SetStatus(StatusFailed, "downloading")
			return
		}
	}
	docID := DocID(data)
	job.setDocID(docID)
	log = log.With("doc_id", docID)

	job.SetStatus(StatusParsing, "parsing")
	doc, err := w.parser.Parse(ctx, bytes.NewReader(data), job.Title)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.SetDocument(doc)
	log.Info("extracted table of contents", "variant", doc.Variant, "blocks", len(doc.Blocks))

	if doc.Empty() {
		job.SetStatus(StatusEmpty, "done")
		return
	}

	if _, off := w.summarizer.(summary.Noop); off {
		job.SetStatus(StatusCompleted, "done")
		return
	}

	// The first block is the main part of the issue.
	job.SetStatus(StatusSummarizing, "summarizing")
	text, err := w.summarize(ctx, log, doc.Blocks[0])
	if err != nil {
		log.Warn("summary failed", "error", err)
		job.AddError(fmt.Sprintf("summary: %s", err))
	} else {
		job.SetSummary(text)
	}
	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) summarize(ctx context.Context, log *slog.Logger, entries []toc.Entry) (string, error) {
	var text string
	var lastErr error
	for attempt := range MaxRetries {
		text, lastErr = w.summarizer.Summarize(ctx, entries)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		log.Warn("retryable summary error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(w.backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return text, lastErr
}
