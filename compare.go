package reconcile

import (
	"fmt"
	"math"
	"slices"
)

// topChanges is the size of the gainers and losers rankings.
const topChanges = 10

// SecurityChange is the delta of one canonical entity between two documents.
type SecurityChange struct {
	SecurityID  SecurityID `json:"security_id"`
	ISIN        string     `json:"isin,omitempty"`
	Description string     `json:"description,omitempty"`
	From        *Quantity  `json:"from,omitempty"`
	To          *Quantity  `json:"to,omitempty"`
	Change      Quantity   `json:"change"`
	Percent     *Percent   `json:"percent"` // nil when the starting value is missing or zero
}

// AllocationChange is the delta of one asset class between two documents.
type AllocationChange struct {
	From       *Quantity                   `json:"from,omitempty"`
	To         *Quantity                   `json:"to,omitempty"`
	Change     Quantity                    `json:"change"`
	Percent    *Percent                    `json:"percent"`
	SubClasses map[string]AllocationChange `json:"sub_classes,omitempty"`
}

// PortfolioSummary is the headline delta between two documents.
type PortfolioSummary struct {
	From    Money    `json:"from"`
	To      Money    `json:"to"`
	Change  Money    `json:"change"`
	Percent *Percent `json:"percent"`
}

// PerformanceMetrics annualizes the portfolio change when both document
// dates parse.
type PerformanceMetrics struct {
	Days             int     `json:"days"`
	Years            float64 `json:"years"`
	AnnualizedReturn Percent `json:"annualized_return"`
}

// Comparison is the full delta between two ingested documents.
type Comparison struct {
	Doc1ID      string                      `json:"doc1_id"`
	Doc2ID      string                      `json:"doc2_id"`
	Doc1Date    string                      `json:"doc1_date,omitempty"`
	Doc2Date    string                      `json:"doc2_date,omitempty"`
	Portfolio   *PortfolioSummary           `json:"portfolio_summary,omitempty"`
	Allocation  map[string]AllocationChange `json:"asset_allocation_changes,omitempty"`
	Changed     []SecurityChange            `json:"security_changes"`
	Added       []SecurityChange            `json:"new_securities"`
	Removed     []SecurityChange            `json:"removed_securities"`
	TopGainers  []SecurityChange            `json:"top_gainers"`
	TopLosers   []SecurityChange            `json:"top_losers"`
	Performance *PerformanceMetrics         `json:"performance_metrics,omitempty"`
}

// Compare computes deltas, rankings and performance metrics between two
// ingested documents. Both documents must have been ingested; anything else
// is a caller error. Compare only reads the store and is safe to run
// concurrently with other reads.
func Compare(s *Store, docA, docB string) (*Comparison, error) {
	metaA, ok := s.Doc(docA)
	if !ok {
		return nil, fmt.Errorf("unknown document %q", docA)
	}
	metaB, ok := s.Doc(docB)
	if !ok {
		return nil, fmt.Errorf("unknown document %q", docB)
	}

	c := &Comparison{
		Doc1ID:   docA,
		Doc2ID:   docB,
		Doc1Date: metaA.Date,
		Doc2Date: metaB.Date,
	}

	c.Portfolio = portfolioSummary(metaA, metaB)
	c.Allocation = allocationChanges(metaA.Allocation, metaB.Allocation)
	c.Performance = performance(metaA, metaB, c.Portfolio)

	// Classify every entity observed in either document.
	for _, sec := range s.All() {
		pa, inA := sec.Value(docA)
		pb, inB := sec.Value(docB)
		if !inA && !inB {
			continue
		}
		change := SecurityChange{
			SecurityID:  sec.ID(),
			ISIN:        sec.ISIN(),
			Description: sec.Description(),
		}
		if inA {
			change.From = pa.Valuation
		}
		if inB {
			change.To = pb.Valuation
		}
		change.Change = valuationOrZero(change.To).Sub(valuationOrZero(change.From))
		if change.From != nil {
			if pct, ok := change.Change.PercentOf(*change.From); ok {
				change.Percent = &pct
			}
		}

		switch {
		case inA && inB:
			c.Changed = append(c.Changed, change)
		case inB:
			c.Added = append(c.Added, change)
		default:
			c.Removed = append(c.Removed, change)
		}
	}

	// The all-changes view ranks by magnitude of the move.
	slices.SortStableFunc(c.Changed, func(a, b SecurityChange) int {
		return b.Change.Abs().Sub(a.Change.Abs()).value.Sign()
	})

	c.TopGainers = topBy(c.Changed, func(sc SecurityChange) bool { return sc.Change.IsPositive() }, false)
	c.TopLosers = topBy(c.Changed, func(sc SecurityChange) bool { return sc.Change.IsNegative() }, true)

	return c, nil
}

func valuationOrZero(q *Quantity) Quantity {
	if q == nil {
		return Quantity{}
	}
	return *q
}

// topBy selects entities present in both documents that pass the filter and
// ranks them by signed percentage change: descending for gainers, ascending
// for losers. Entities with no computable percentage rank last.
func topBy(changed []SecurityChange, keep func(SecurityChange) bool, ascending bool) []SecurityChange {
	var out []SecurityChange
	for _, sc := range changed {
		if keep(sc) {
			out = append(out, sc)
		}
	}
	slices.SortStableFunc(out, func(a, b SecurityChange) int {
		switch {
		case a.Percent == nil && b.Percent == nil:
			return 0
		case a.Percent == nil:
			return 1
		case b.Percent == nil:
			return -1
		}
		cmp := 0
		if *a.Percent < *b.Percent {
			cmp = -1
		} else if *a.Percent > *b.Percent {
			cmp = 1
		}
		if !ascending {
			cmp = -cmp
		}
		return cmp
	})
	if len(out) > topChanges {
		out = out[:topChanges]
	}
	return out
}

func portfolioSummary(metaA, metaB DocumentMeta) *PortfolioSummary {
	if metaA.PortfolioValue == nil || metaB.PortfolioValue == nil {
		return nil
	}
	currency := metaB.Currency
	if currency == "" {
		currency = metaA.Currency
	}
	from, to := *metaA.PortfolioValue, *metaB.PortfolioValue
	change := to.Sub(from)
	summary := &PortfolioSummary{
		From:   MoneyOf(from, currency),
		To:     MoneyOf(to, currency),
		Change: MoneyOf(change, currency),
	}
	if pct, ok := change.PercentOf(from); ok {
		summary.Percent = &pct
	}
	return summary
}

// performance annualizes the portfolio percentage change over the calendar
// span between the two documents: (1+pct/100)^(1/years) - 1, with years
// counted as days/365.25. It returns nil when either date is opaque, the
// span is empty, or no percentage change exists.
func performance(metaA, metaB DocumentMeta, summary *PortfolioSummary) *PerformanceMetrics {
	if summary == nil || summary.Percent == nil {
		return nil
	}
	dayA, okA := metaA.Day()
	dayB, okB := metaB.Day()
	if !okA || !okB {
		return nil
	}
	days := dayA.DaysUntil(dayB)
	if days == 0 {
		return nil
	}
	years := float64(days) / 365.25
	growth := 1 + float64(*summary.Percent)/100
	if growth <= 0 {
		return nil // total loss or worse, annualizing is meaningless
	}
	annualized := math.Pow(growth, 1/years) - 1
	return &PerformanceMetrics{
		Days:             days,
		Years:            years,
		AnnualizedReturn: Percent(100 * annualized),
	}
}

func allocationChanges(a, b map[string]AssetClass) map[string]AllocationChange {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	names := make(map[string]struct{}, len(a)+len(b))
	for name := range a {
		names[name] = struct{}{}
	}
	for name := range b {
		names[name] = struct{}{}
	}

	out := make(map[string]AllocationChange, len(names))
	for name := range names {
		classA, classB := a[name], b[name]
		change := AllocationChange{
			From:   classA.Value,
			To:     classB.Value,
			Change: valuationOrZero(classB.Value).Sub(valuationOrZero(classA.Value)),
		}
		if classA.Value != nil {
			if pct, ok := change.Change.PercentOf(*classA.Value); ok {
				change.Percent = &pct
			}
		}
		change.SubClasses = allocationChanges(classA.SubClasses, classB.SubClasses)
		out[name] = change
	}
	return out
}
