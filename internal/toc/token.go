package toc

import "context"

// Token is one positioned text fragment yielded by the PDF supplier.
type Token struct {
	Text       string
	FontHeight float64
	EndsLine   bool
}

// PageSource yields tokens page by page. Pages are 1-based.
type PageSource interface {
	NumPages() int
	PageTokens(ctx context.Context, page int) ([]Token, error)
}

// FragmentKind tags a segmenter output string.
type FragmentKind int

const (
	Content FragmentKind = iota
	NumberTerminator
)

// Fragment is a single segmenter output item. A NumberTerminator closes the
// numeric field of the entry being assembled.
type Fragment struct {
	Kind FragmentKind
	Text string
}
