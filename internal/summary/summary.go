// Package summary produces short natural-language overviews of a table of
// contents using an LLM provider.
package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/dgallion1/kozlony/internal/toc"
)

type Summarizer interface {
	Summarize(ctx context.Context, entries []toc.Entry) (string, error)
	Model() string
}

// Noop is used when summaries are switched off.
type Noop struct{}

func (Noop) Summarize(context.Context, []toc.Entry) (string, error) { return "", nil }
func (Noop) Model() string                                          { return "off" }

// RetryableError indicates a transient provider failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// Timed records the latency of every call to the wrapped summarizer.
type Timed struct {
	Summarizer
	Stats *LLMStats
}

func (t Timed) Summarize(ctx context.Context, entries []toc.Entry) (string, error) {
	start := time.Now()
	text, err := t.Summarizer.Summarize(ctx, entries)
	if t.Stats != nil {
		if err != nil {
			t.Stats.RecordFailure()
		} else {
			t.Stats.Record(time.Since(start).Milliseconds())
		}
	}
	return text, err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
