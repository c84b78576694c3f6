package toc

import "math"

// Layout holds the typographic conventions the engine keys on.
type Layout struct {
	SectionHeadingHeight float64
	MastheadHeight       float64
	TocMarker            string
	ChapterMarker        string
	BulletinPhrase       string
	IgnoreIDs            []string

	// Roman-numbered headings are only recognized while at most this many
	// blocks have been opened.
	NumberedHeadingLimit int
	HeightTolerance      float64
}

// DefaultLayout matches the Magyar Közlöny / Hivatalos Értesítő template.
func DefaultLayout() Layout {
	return Layout{
		SectionHeadingHeight: 10,
		MastheadHeight:       17,
		TocMarker:            "Tartalomjegyzék",
		ChapterMarker:        "FEJEZET",
		BulletinPhrase:       "Hivatalos Értesítő",
		IgnoreIDs:            []string{"Tartalomjegyzék"},
		NumberedHeadingLimit: 10,
		HeightTolerance:      0.01,
	}
}

// Classify picks the variant for a document title.
func (l Layout) Classify(title string) Variant {
	return ClassifyVariant(title, l.BulletinPhrase)
}

func (l Layout) isSectionHeading(h float64) bool {
	return l.sameHeight(h, l.SectionHeadingHeight)
}

func (l Layout) isMasthead(h float64) bool {
	return l.sameHeight(h, l.MastheadHeight)
}

func (l Layout) sameHeight(a, b float64) bool {
	return math.Abs(a-b) <= l.HeightTolerance
}
