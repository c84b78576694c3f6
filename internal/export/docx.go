package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/kozlony/internal/toc"
	"github.com/fumiama/go-docx"
)

func writeDOCX(w io.Writer, doc toc.Document) error {
	d := docx.New().WithDefaultTheme().WithA4Page()
	if doc.Title != "" {
		d.AddParagraph().AddText(doc.Title).Bold().Size("28")
	}

	entries := doc.Entries()
	tbl := d.AddTable(len(entries)+1, 3, 0, nil)
	header := []string{"Azonosító", "Cím", "Szám"}
	for i, row := range tbl.TableRows {
		cells := header
		if i > 0 {
			e := entries[i-1]
			cells = []string{e.ID, strings.TrimSpace(e.Name), e.Num}
		}
		for j, c := range row.TableCells {
			run := c.AddParagraph().AddText(cells[j])
			if i == 0 {
				run.Bold()
			}
		}
	}

	if _, err := d.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
