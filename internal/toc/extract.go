package toc

import (
	"context"
	"log/slog"
)

// Extractor runs the full pipeline: classify, segment, assemble, filter.
type Extractor struct {
	layout Layout
	log    *slog.Logger
}

func NewExtractor(layout Layout, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Extractor{layout: layout, log: log}
}

// Layout returns the layout the extractor was configured with.
func (x *Extractor) Layout() Layout {
	return x.layout
}

// Extract pulls pages from src strictly in order and builds the document.
// Supplier errors are returned unchanged.
func (x *Extractor) Extract(ctx context.Context, title string, src PageSource) (Document, error) {
	variant := x.layout.Classify(title)
	seg := NewSegmenter(x.layout, variant)

	n := src.NumPages()
	for page := 1; page <= n; page++ {
		if err := ctx.Err(); err != nil {
			return Document{}, err
		}
		toks, err := src.PageTokens(ctx, page)
		if err != nil {
			return Document{}, err
		}
		seg.FeedPage(page, toks)
	}

	doc := x.build(title, variant, seg.Blocks())
	x.log.Debug("extracted table of contents",
		"title", title,
		"variant", variant.String(),
		"pages", n,
		"blocks", len(doc.Blocks),
	)
	return doc, nil
}

// ExtractPages runs the engine over in-memory pages; pages[0] is page 1.
func (x *Extractor) ExtractPages(title string, pages [][]Token) Document {
	variant := x.layout.Classify(title)
	seg := NewSegmenter(x.layout, variant)
	for i, toks := range pages {
		seg.FeedPage(i+1, toks)
	}
	return x.build(title, variant, seg.Blocks())
}

func (x *Extractor) build(title string, variant Variant, raw [][]Fragment) Document {
	assembled := make([][]Entry, 0, len(raw))
	for _, b := range raw {
		assembled = append(assembled, Assemble(b))
	}
	blocks := FilterBlocks(assembled, x.layout.IgnoreIDs)
	if blocks == nil {
		blocks = []Block{}
	}
	return Document{Title: title, Variant: variant, Blocks: blocks}
}
