package toc

import "strings"

// Entry is one table-of-contents line item.
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Num  string `json:"num"`
}

// Assemble groups one block's fragments into entries. A content fragment
// following a number terminator (or at the start) opens a new entry and
// becomes its ID; further content is concatenated into the name.
func Assemble(block []Fragment) []Entry {
	var entries []Entry
	hadBreak := true

	for _, f := range block {
		if f.Kind == NumberTerminator {
			if len(entries) > 0 {
				entries[len(entries)-1].Num = f.Text
			}
			hadBreak = true
			continue
		}
		if hadBreak {
			entries = append(entries, Entry{ID: strings.TrimSpace(f.Text)})
			hadBreak = false
			continue
		}
		entries[len(entries)-1].Name += f.Text
	}
	return entries
}
