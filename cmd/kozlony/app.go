package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dgallion1/kozlony/internal/config"
	"github.com/dgallion1/kozlony/internal/fetch"
	"github.com/dgallion1/kozlony/internal/listing"
	"github.com/dgallion1/kozlony/internal/parser"
	"github.com/dgallion1/kozlony/internal/summary"
	"github.com/dgallion1/kozlony/internal/toc"
)

// app holds the components shared by the subcommands.
type app struct {
	cfg        config.Config
	log        *slog.Logger
	fetcher    *fetch.Client
	issues     *listing.Client
	parser     *parser.PDFParser
	summarizer summary.Summarizer
	stats      *summary.LLMStats
	closers    []func()
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func newApp(ctx context.Context, logOut io.Writer) (*app, error) {
	log := newLogger(logOut)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	fetcher := fetch.New(fetch.Options{
		AllowedHosts: cfg.ProxyAllowedHosts,
		Timeout:      cfg.FetchTimeout,
		Attempts:     cfg.FetchAttempts,
		MaxBytes:     cfg.MaxDocumentBytes,
		Logger:       log,
	})

	a := &app{
		cfg:     cfg,
		log:     log,
		fetcher: fetcher,
		issues:  listing.NewClient(fetcher, cfg.ListingURL, cfg.ListingTitleFilter),
		parser: &parser.PDFParser{
			Extractor: toc.NewExtractor(cfg.Layout(), log),
			Preflight: cfg.PDFPreflight,
		},
		summarizer: summary.Noop{},
	}

	switch cfg.SummaryProvider {
	case "claude":
		c := summary.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.SummaryMaxTokens)
		a.closers = append(a.closers, c.Close)
		a.withStats(c)
	case "gemini":
		g, err := summary.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.SummaryMaxTokens)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		a.withStats(g)
	}
	return a, nil
}

func (a *app) withStats(s summary.Summarizer) {
	a.stats = summary.NewLLMStats(s.Model(), time.Hour)
	a.summarizer = summary.Timed{Summarizer: s, Stats: a.stats}
}

func (a *app) Close() {
	for _, c := range a.closers {
		c()
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// loadDocument reads a PDF from a local path or an allowed URL and extracts
// its table of contents.
func (a *app) loadDocument(ctx context.Context, src, title string) (toc.Document, error) {
	var data []byte
	var err error
	if isURL(src) {
		data, err = a.fetcher.Get(ctx, src)
	} else {
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return toc.Document{}, fmt.Errorf("load %s: %w", src, err)
	}

	doc, err := a.parser.Parse(ctx, bytes.NewReader(data), title)
	if err != nil {
		if toc.IsSupplierFailure(err) {
			return toc.Document{}, fmt.Errorf("could not load document: %w", err)
		}
		return toc.Document{}, err
	}
	return doc, nil
}
