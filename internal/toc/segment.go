package toc

import "strings"

// Segmenter decides, token by token, which block each token belongs to.
// It carries state across the whole document and must be fed pages in
// increasing order.
type Segmenter struct {
	layout    Layout
	variant   Variant
	recording bool
	blocks    [][]Fragment
}

// NewSegmenter returns a segmenter with one empty block pre-allocated.
func NewSegmenter(layout Layout, variant Variant) *Segmenter {
	return &Segmenter{
		layout:  layout,
		variant: variant,
		blocks:  [][]Fragment{{}},
	}
}

// Feed processes a single token found on the given 1-based page.
func (s *Segmenter) Feed(page int, tok Token) {
	if strings.TrimSpace(tok.Text) == "" {
		return
	}
	if tok.Text == s.layout.TocMarker {
		s.recording = true
		return
	}

	switch s.variant {
	case Bulletin:
		if s.layout.isSectionHeading(tok.FontHeight) &&
			!strings.Contains(tok.Text, s.layout.ChapterMarker) &&
			!s.numberedHeading(page, tok.Text) {
			s.openBlock(tok.Text)
			return
		}
		if s.layout.isMasthead(tok.FontHeight) {
			s.recording = false
			return
		}
		// recording does not gate content in this variant.
	case Gazette:
		if !s.recording || s.layout.isSectionHeading(tok.FontHeight) || s.layout.isMasthead(tok.FontHeight) {
			s.recording = false
			return
		}
	}

	s.append(tok.Text)
}

// FeedPage processes every token of one page in order.
func (s *Segmenter) FeedPage(page int, toks []Token) {
	for _, tok := range toks {
		s.Feed(page, tok)
	}
}

// Blocks returns the raw blocks collected so far.
func (s *Segmenter) Blocks() [][]Fragment {
	return s.blocks
}

// Recording reports whether the segmenter is inside a table-of-contents window.
func (s *Segmenter) Recording() bool {
	return s.recording
}

func (s *Segmenter) numberedHeading(page int, text string) bool {
	if len(s.blocks) > s.layout.NumberedHeadingLimit {
		return false
	}
	return strings.HasPrefix(text, Roman(page+1)+". ")
}

// openBlock starts a new block seeded with a placeholder entry that has an
// empty name, so the heading itself never survives filtering.
func (s *Segmenter) openBlock(heading string) {
	s.recording = true
	s.blocks = append(s.blocks, []Fragment{
		{Kind: Content, Text: heading + " "},
		{Kind: Content, Text: ""},
		{Kind: NumberTerminator, Text: ""},
	})
}

func (s *Segmenter) append(text string) {
	last := len(s.blocks) - 1
	if trimmed := strings.TrimSpace(text); isEntryNumber(trimmed) {
		s.blocks[last] = append(s.blocks[last], Fragment{Kind: NumberTerminator, Text: trimmed})
		return
	}
	s.blocks[last] = append(s.blocks[last], Fragment{Kind: Content, Text: text + " "})
}

func isEntryNumber(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
