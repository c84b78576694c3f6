package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dgallion1/kozlony/internal/toc"
	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDFParser extracts the table of contents from a gazette PDF.
type PDFParser struct {
	Extractor *toc.Extractor
	// Preflight validates the file with pdfcpu before text extraction so
	// that encrypted or corrupt documents fail early.
	Preflight bool
}

// Parse reads the whole document and runs the extractor over its pages.
func (p *PDFParser) Parse(ctx context.Context, r io.Reader, title string) (toc.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return toc.Document{}, fmt.Errorf("read document: %w", err)
	}
	src, err := OpenPDF(data, p.Preflight)
	if err != nil {
		return toc.Document{}, err
	}
	return p.Extractor.Extract(ctx, title, src)
}

// PDFSource serves per-page tokens from an in-memory PDF.
type PDFSource struct {
	reader *pdflib.Reader
	pages  int
}

// OpenPDF opens data as a PDF. Any failure is reported as a *toc.SupplierError.
func OpenPDF(data []byte, preflight bool) (src *PDFSource, err error) {
	if !LooksLikePDF(data) {
		return nil, &toc.SupplierError{Err: errors.New("not a PDF document")}
	}
	if preflight {
		if _, err := api.PageCount(bytes.NewReader(data), nil); err != nil {
			return nil, &toc.SupplierError{Err: fmt.Errorf("validate: %w", err)}
		}
	}

	// ledongthuc/pdf reports some decode errors by panicking.
	defer func() {
		if r := recover(); r != nil {
			src, err = nil, &toc.SupplierError{Err: fmt.Errorf("%v", r)}
		}
	}()
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &toc.SupplierError{Err: err}
	}
	return &PDFSource{reader: reader, pages: reader.NumPage()}, nil
}

func (s *PDFSource) NumPages() int {
	return s.pages
}

// PageTokens decodes one page. Pages without a content stream yield no tokens.
func (s *PDFSource) PageTokens(ctx context.Context, page int) (toks []toc.Token, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			toks, err = nil, &toc.SupplierError{Page: page, Err: fmt.Errorf("%v", r)}
		}
	}()
	p := s.reader.Page(page)
	if p.V.IsNull() {
		return nil, nil
	}
	return Coalesce(p.Content().Text), nil
}

// LooksLikePDF checks for the %PDF- header.
func LooksLikePDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data[:min(len(data), 1024)], "\x00\t\r\n "), []byte("%PDF-"))
}

const (
	// A baseline shift of more than this fraction of the font size starts a new line.
	lineShift = 0.5
	// A horizontal gap wider than this fraction of the font size splits a run.
	runGap = 0.8
)

// Coalesce merges per-glyph text into tokens. A token ends when the font or
// size changes, at a wide horizontal gap, or at a line change; only the last
// case sets EndsLine.
func Coalesce(glyphs []pdflib.Text) []toc.Token {
	var (
		out     []toc.Token
		cur     strings.Builder
		open    bool
		font    string
		size    float64
		lastY   float64
		lastEnd float64
	)
	flush := func(endsLine bool) {
		if !open {
			return
		}
		if text := strings.TrimSpace(cur.String()); text != "" {
			out = append(out, toc.Token{Text: text, FontHeight: roundHeight(size), EndsLine: endsLine})
		} else if endsLine && len(out) > 0 {
			out[len(out)-1].EndsLine = true
		}
		cur.Reset()
		open = false
	}

	for _, g := range glyphs {
		if g.S == "\n" {
			flush(true)
			continue
		}
		if open {
			switch {
			case math.Abs(g.Y-lastY) > lineShift*math.Max(size, 1):
				flush(true)
			case g.Font != font || math.Abs(g.FontSize-size) > 0.01:
				flush(false)
			case g.X-lastEnd > runGap*math.Max(size, 1):
				flush(false)
			}
		}
		if !open {
			open = true
			font = g.Font
			size = g.FontSize
		}
		cur.WriteString(g.S)
		lastY = g.Y
		lastEnd = g.X + g.W
	}
	flush(true)
	return out
}

func roundHeight(h float64) float64 {
	return math.Round(h*100) / 100
}
