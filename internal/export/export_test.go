package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dgallion1/kozlony/internal/toc"
	"github.com/fumiama/go-docx"
)

var sampleDoc = toc.Document{
	Title:   "Magyar Közlöny 2025. évi 30. szám",
	Variant: toc.Gazette,
	Blocks: []toc.Block{
		{
			{ID: "2025. évi I. törvény", Name: "valamiről ", Num: "2025"},
			{ID: "1/2025. (I. 9.) Korm. rendelet", Name: "a <különleges> & más ", Num: ""},
		},
		{
			{ID: "I. Közlemények", Name: "", Num: "2031"},
		},
	},
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		got, err := ParseFormat(strings.ToUpper(string(f)))
		if err != nil || got != f {
			t.Errorf("ParseFormat(%q): expected %q, got %q, %v", f, f, got, err)
		}
	}
	if got, _ := ParseFormat("txt"); got != Text {
		t.Errorf("expected txt alias for text, got %q", got)
	}
	for _, bad := range []string{"", "pdf"} {
		if _, err := ParseFormat(bad); err == nil {
			t.Errorf("ParseFormat(%q): expected error", bad)
		}
	}
}

func TestContentTypeAndExtension(t *testing.T) {
	if !strings.HasPrefix(HTML.ContentType(), "text/html") {
		t.Errorf("unexpected html content type %q", HTML.ContentType())
	}
	if Text.Extension() != ".txt" || DOCX.Extension() != ".docx" {
		t.Errorf("unexpected extensions %q %q", Text.Extension(), DOCX.Extension())
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleDoc, Text); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "2025. évi I. törvény valamiről 2025\n" +
		"1/2025. (I. 9.) Korm. rendelet a <különleges> & más\n" +
		"I. Közlemények  2031\n"
	if buf.String() != want {
		t.Errorf("unexpected text output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestWriteTSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleDoc, TSV); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d: %q", len(lines), lines)
	}
	if lines[0] != "id\tname\tnum" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != "2025. évi I. törvény\tvalamiről\t2025" {
		t.Errorf("unexpected row %q", lines[1])
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleDoc, HTML); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, `<table border="1" cellpadding="4" cellspacing="0" style="border-collapse: collapse;">`) {
		t.Errorf("unexpected table opening: %q", out)
	}
	if !strings.Contains(out, "<tr><td>2025. évi I. törvény</td><td>valamiről</td><td>2025</td></tr>") {
		t.Errorf("missing first row: %q", out)
	}
	if !strings.Contains(out, "a &lt;különleges&gt; &amp; más") {
		t.Errorf("expected escaped cell text: %q", out)
	}
	if got := strings.Count(out, "<tr>"); got != 3 {
		t.Errorf("expected 3 rows, got %d", got)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleDoc, JSON); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got toc.Document
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Title != sampleDoc.Title || got.Variant != toc.Gazette || len(got.Blocks) != 2 {
		t.Errorf("unexpected document %+v", got)
	}
}

func TestWriteDOCX(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleDoc, DOCX); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d, err := docx.Parse(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("parse written docx: %v", err)
	}

	var tables []*docx.Table
	for _, item := range d.Document.Body.Items {
		if tbl, ok := item.(*docx.Table); ok {
			tables = append(tables, tbl)
		}
	}
	if len(tables) != 1 {
		t.Fatalf("expected one table, got %d", len(tables))
	}
	if rows := len(tables[0].TableRows); rows != 4 {
		t.Errorf("expected header + 3 rows, got %d", rows)
	}
	for _, row := range tables[0].TableRows {
		if len(row.TableCells) != 3 {
			t.Errorf("expected 3 cells, got %d", len(row.TableCells))
		}
	}
}

func TestWriteUnsupported(t *testing.T) {
	if err := Write(&bytes.Buffer{}, sampleDoc, Format("pdf")); err == nil {
		t.Error("expected error for unsupported format")
	}
}
