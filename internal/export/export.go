// Package export renders an extracted table of contents in the formats
// offered for download.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/kozlony/internal/toc"
)

type Format string

const (
	HTML Format = "html"
	Text Format = "text"
	TSV  Format = "tsv"
	JSON Format = "json"
	DOCX Format = "docx"
)

// Formats lists every supported format.
var Formats = []Format{HTML, Text, TSV, JSON, DOCX}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case HTML, Text, TSV, JSON, DOCX:
		return f, nil
	case "txt":
		return Text, nil
	case "":
		return "", fmt.Errorf("missing export format")
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case HTML:
		return "text/html; charset=utf-8"
	case Text:
		return "text/plain; charset=utf-8"
	case TSV:
		return "text/tab-separated-values; charset=utf-8"
	case JSON:
		return "application/json"
	case DOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}

func (f Format) Extension() string {
	if f == Text {
		return ".txt"
	}
	return "." + string(f)
}

// Write renders doc to w. Entries from all blocks are written in order.
func Write(w io.Writer, doc toc.Document, f Format) error {
	switch f {
	case HTML:
		return writeHTML(w, doc)
	case Text:
		return writeText(w, doc)
	case TSV:
		return writeTSV(w, doc)
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case DOCX:
		return writeDOCX(w, doc)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

func writeText(w io.Writer, doc toc.Document) error {
	for _, e := range doc.Entries() {
		line := strings.TrimRight(e.ID+" "+strings.TrimSpace(e.Name)+" "+e.Num, " ")
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func writeTSV(w io.Writer, doc toc.Document) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write([]string{"id", "name", "num"}); err != nil {
		return err
	}
	for _, e := range doc.Entries() {
		if err := cw.Write([]string{e.ID, strings.TrimSpace(e.Name), e.Num}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
