package toc

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Variant selects the segmentation rules for a document.
type Variant int

const (
	Gazette Variant = iota
	Bulletin
)

func (v Variant) String() string {
	switch v {
	case Gazette:
		return "gazette"
	case Bulletin:
		return "bulletin"
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

func (v Variant) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Variant) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "gazette", "":
		*v = Gazette
	case "bulletin":
		*v = Bulletin
	default:
		return fmt.Errorf("unknown variant %q", s)
	}
	return nil
}

// ClassifyVariant returns Bulletin when title contains bulletinPhrase.
func ClassifyVariant(title, bulletinPhrase string) Variant {
	if bulletinPhrase != "" && strings.Contains(title, bulletinPhrase) {
		return Bulletin
	}
	return Gazette
}
