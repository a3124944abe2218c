package renderer

import (
	"bytes"
	"fmt"
	"strings"

	md "github.com/nao1215/markdown"

	"github.com/etnz/reconcile"
)

// SecuritiesMarkdown lists every canonical security known to the store.
func SecuritiesMarkdown(s *reconcile.Store) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Securities")
	doc.PlainText(fmt.Sprintf("%d canonical securities over %d documents.", s.Len(), len(s.Docs())))

	table := md.TableSet{
		Header: []string{"ID", "ISIN", "Description", "Aliases", "Documents", "First Seen", "Last Seen"},
		Rows:   [][]string{},
	}
	for _, sec := range s.All() {
		first, last := "", ""
		if day, ok := sec.FirstSeen(); ok {
			first = day.String()
		}
		if day, ok := sec.LastSeen(); ok {
			last = day.String()
		}
		table.Rows = append(table.Rows, []string{
			string(sec.ID()),
			sec.ISIN(),
			sec.Description(),
			fmt.Sprintf("%d", len(sec.Alternatives())),
			fmt.Sprintf("%d", len(sec.Documents())),
			first,
			last,
		})
	}
	doc.Table(table)

	return doc.String()
}

// HistoryMarkdown renders the valuation history of one canonical security.
func HistoryMarkdown(sec *reconcile.CanonicalSecurity) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	title := sec.Description()
	if title == "" {
		title = string(sec.ID())
	}
	doc.H1(fmt.Sprintf("History for %s", title))
	if sec.ISIN() != "" {
		doc.PlainText(fmt.Sprintf("ISIN: %s", sec.ISIN()))
	}
	if alts := sec.Alternatives(); len(alts) > 0 {
		doc.PlainText(fmt.Sprintf("Also seen as: %s", strings.Join(alts, "; ")))
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Document", "Date", "Nominal", "Price", "Valuation"},
		Rows:   [][]string{},
	}
	for _, docID := range sec.Documents() {
		point, _ := sec.Value(docID)
		table.Rows = append(table.Rows, []string{
			docID,
			point.Date,
			quantityCell(point.Nominal),
			quantityCell(point.Price),
			quantityCell(point.Valuation),
		})
	}
	doc.Table(table)

	return doc.String()
}
