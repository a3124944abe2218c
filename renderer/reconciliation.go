// Package renderer turns reconciliation reports into markdown documents,
// ready to be printed raw or through a terminal renderer.
package renderer

import (
	"bytes"
	"fmt"

	md "github.com/nao1215/markdown"

	"github.com/etnz/reconcile"
)

func ReconciliationMarkdown(snap *reconcile.DocumentSnapshot, result *reconcile.ReconciliationResult) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Reconciliation of %s", snap.ID))
	if snap.Date != "" {
		doc.PlainText(fmt.Sprintf("Document date: %s", snap.Date))
	}

	doc.H2("Issues")
	if len(result.Issues) == 0 {
		doc.PlainText("No issues found.")
	} else {
		table := md.TableSet{
			Header: []string{"Kind", "Description", "Discrepancy"},
			Rows:   [][]string{},
		}
		for _, issue := range result.Issues {
			discrepancy := ""
			if issue.Discrepancy != nil {
				discrepancy = issue.Discrepancy.String()
				if issue.DiscrepancyPct != nil {
					discrepancy += fmt.Sprintf(" (%s)", issue.DiscrepancyPct.String())
				}
			}
			table.Rows = append(table.Rows, []string{
				string(issue.Kind),
				issue.Description,
				discrepancy,
			})
		}
		doc.Table(table)
	}

	if len(result.Corrections) > 0 {
		doc.H2("Suggested Corrections")
		table := md.TableSet{
			Header: []string{"Kind", "Old Value", "New Value", "Action"},
			Rows:   [][]string{},
		}
		for _, c := range result.Corrections {
			table.Rows = append(table.Rows, []string{
				string(c.Kind),
				quantityCell(c.OldValue),
				c.NewValue.String(),
				c.Action,
			})
		}
		doc.Table(table)
	}

	doc.H2("Confidence")
	doc.Table(confidenceTable(result.Confidence))

	return doc.String()
}

func confidenceTable(score reconcile.ConfidenceScore) md.TableSet {
	table := md.TableSet{
		Header: []string{"Topic", "Score"},
		Rows:   [][]string{},
	}
	if score.PortfolioValue != nil {
		table.Rows = append(table.Rows, []string{"Portfolio value", fmt.Sprintf("%.2f", *score.PortfolioValue)})
	}
	if score.Securities != nil {
		table.Rows = append(table.Rows, []string{"Securities", fmt.Sprintf("%.2f", *score.Securities)})
	}
	table.Rows = append(table.Rows, []string{"Overall", fmt.Sprintf("%.2f", score.Overall)})
	return table
}

func quantityCell(q *reconcile.Quantity) string {
	if q == nil {
		return ""
	}
	return q.String()
}
