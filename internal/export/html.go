package export

import (
	"io"
	"strings"

	"github.com/dgallion1/kozlony/internal/toc"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// writeHTML emits a bordered id/name/num table suitable for pasting into
// office documents.
func writeHTML(w io.Writer, doc toc.Document) error {
	table := element(atom.Table,
		html.Attribute{Key: "border", Val: "1"},
		html.Attribute{Key: "cellpadding", Val: "4"},
		html.Attribute{Key: "cellspacing", Val: "0"},
		html.Attribute{Key: "style", Val: "border-collapse: collapse;"},
	)
	for _, e := range doc.Entries() {
		tr := element(atom.Tr)
		for _, cell := range []string{e.ID, strings.TrimSpace(e.Name), e.Num} {
			td := element(atom.Td)
			td.AppendChild(&html.Node{Type: html.TextNode, Data: cell})
			tr.AppendChild(td)
		}
		table.AppendChild(tr)
	}
	return html.Render(w, table)
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}
