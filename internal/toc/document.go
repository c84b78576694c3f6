package toc

// Block is one chapter worth of entries.
type Block []Entry

// Document is the engine output. Blocks never contain empty blocks.
type Document struct {
	Title   string  `json:"title"`
	Variant Variant `json:"variant"`
	Blocks  []Block `json:"blocks"`
}

// Entries flattens all blocks in order.
func (d Document) Entries() []Entry {
	var out []Entry
	for _, b := range d.Blocks {
		out = append(out, b...)
	}
	return out
}

// Empty reports whether no entry was recovered.
func (d Document) Empty() bool {
	return len(d.Blocks) == 0
}
