package toc

import "strings"

// Filter drops entries with an empty name or an ID matching the ignore list.
func Filter(entries []Entry, ignore []string) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Name == "" || ignored(e.ID, ignore) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterBlocks applies Filter to every block and removes blocks left empty.
func FilterBlocks(blocks [][]Entry, ignore []string) []Block {
	var out []Block
	for _, b := range blocks {
		if kept := Filter(b, ignore); len(kept) > 0 {
			out = append(out, Block(kept))
		}
	}
	return out
}

func ignored(id string, ignore []string) bool {
	id = strings.TrimSpace(id)
	for _, s := range ignore {
		if s != "" && strings.Contains(id, s) {
			return true
		}
	}
	return false
}
