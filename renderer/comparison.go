package renderer

import (
	"bytes"
	"fmt"
	"slices"

	md "github.com/nao1215/markdown"

	"github.com/etnz/reconcile"
)

func ComparisonMarkdown(c *reconcile.Comparison) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Comparison %s vs %s", c.Doc1ID, c.Doc2ID))
	if c.Doc1Date != "" && c.Doc2Date != "" {
		doc.PlainText(fmt.Sprintf("From %s to %s", c.Doc1Date, c.Doc2Date))
	}

	if c.Portfolio != nil {
		doc.H2("Portfolio")
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight},
			Header:    []string{"From", "To", "Change", "Percent"},
			Rows: [][]string{{
				c.Portfolio.From.String(),
				c.Portfolio.To.String(),
				c.Portfolio.Change.SignedString(),
				percentCell(c.Portfolio.Percent),
			}},
		}
		doc.Table(table)
	}

	if c.Performance != nil {
		doc.PlainText(fmt.Sprintf("Annualized return over %d days: %s",
			c.Performance.Days, c.Performance.AnnualizedReturn.SignedString()))
	}

	if len(c.Allocation) > 0 {
		doc.H2("Asset Allocation")
		doc.Table(allocationTable(c.Allocation))
	}

	if len(c.TopGainers) > 0 {
		doc.H2("Top Gainers")
		doc.Table(changesTable(c.TopGainers))
	}
	if len(c.TopLosers) > 0 {
		doc.H2("Top Losers")
		doc.Table(changesTable(c.TopLosers))
	}

	doc.H2("All Changes")
	if len(c.Changed) == 0 {
		doc.PlainText("No security present in both documents.")
	} else {
		doc.Table(changesTable(c.Changed))
	}

	if len(c.Added) > 0 {
		doc.H2("New Securities")
		doc.Table(changesTable(c.Added))
	}
	if len(c.Removed) > 0 {
		doc.H2("Removed Securities")
		doc.Table(changesTable(c.Removed))
	}

	return doc.String()
}

func changesTable(changes []reconcile.SecurityChange) md.TableSet {
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Security", "From", "To", "Change", "Percent"},
		Rows:   [][]string{},
	}
	for _, sc := range changes {
		label := sc.Description
		if label == "" {
			label = string(sc.SecurityID)
		}
		table.Rows = append(table.Rows, []string{
			label,
			quantityCell(sc.From),
			quantityCell(sc.To),
			sc.Change.String(),
			percentCell(sc.Percent),
		})
	}
	return table
}

func allocationTable(changes map[string]reconcile.AllocationChange) md.TableSet {
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Class", "From", "To", "Change", "Percent"},
		Rows:   [][]string{},
	}
	names := make([]string, 0, len(changes))
	for name := range changes {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		ac := changes[name]
		table.Rows = append(table.Rows, []string{
			name,
			quantityCell(ac.From),
			quantityCell(ac.To),
			ac.Change.String(),
			percentCell(ac.Percent),
		})
	}
	return table
}

func percentCell(p *reconcile.Percent) string {
	if p == nil {
		return "n/a"
	}
	return p.SignedString()
}
