package reconcile

import (
	"fmt"
	"slices"
	"strings"
)

// IssueKind classifies an arithmetic or structural inconsistency detected in
// one snapshot.
type IssueKind string

const (
	MissingPortfolioValue      IssueKind = "missing_portfolio_value"
	MissingSecuritiesTotal     IssueKind = "missing_securities_total"
	PortfolioValueDiscrepancy  IssueKind = "portfolio_value_discrepancy"
	AssetAllocationDiscrepancy IssueKind = "asset_allocation_discrepancy"
	AssetClassDiscrepancy      IssueKind = "asset_class_discrepancy"
	MissingSecurityField       IssueKind = "missing_security_field"
	SecurityValueDiscrepancy   IssueKind = "security_value_discrepancy"
	CurrencyMismatch           IssueKind = "currency_mismatch"
)

// Issue reports one inconsistency. Issues are findings, not failures: the
// engine always returns a result for well-formed input.
type Issue struct {
	Kind           IssueKind `json:"kind"`
	Description    string    `json:"description"`
	Discrepancy    *Quantity `json:"discrepancy,omitempty"`
	DiscrepancyPct *Percent  `json:"discrepancy_pct,omitempty"`
}

// Correction kinds.
const (
	UseTargetValue       = "use_target_value"       // override portfolio value with the reference total
	UseSecuritiesTotal   = "use_securities_total"   // override portfolio value with the securities sum
	UseComputedValuation = "use_computed_valuation" // override a line valuation with nominal x price
)

// Correction is a proposed fix. The engine never mutates its input; the
// caller applies corrections explicitly with Apply.
type Correction struct {
	Kind       string     `json:"kind"`
	OldValue   *Quantity  `json:"old_value,omitempty"`
	NewValue   Quantity   `json:"new_value"`
	Action     string     `json:"action"`
	SecurityID SecurityID `json:"security_id,omitempty"`
}

// Tolerances, in percent. Policy constants: line items are small and their
// arithmetic is verifiable, so they get corrected; portfolio totals are not,
// so they are only overridden against an externally supplied reference.
const (
	portfolioTolerancePct  = 5
	severeMismatchPct      = 50
	referenceTolerancePct  = 1
	allocationTolerancePct = 5
	assetClassTolerancePct = 10
	lineItemTolerancePct   = 5
)

// Engine validates one snapshot's internal totals against its own component
// data and against configured expectations.
type Engine struct {
	reference *Quantity // known-good portfolio total for the document series
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithReferenceTotal supplies the known-good portfolio total for the document
// series being processed. Without it the severe-mismatch policy only reports,
// never corrects.
func WithReferenceTotal(q Quantity) EngineOption {
	return func(e *Engine) { e.reference = &q }
}

// NewEngine returns a reconciliation engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate checks the snapshot's arithmetic and returns all detected issues
// plus proposed corrections. The snapshot is never mutated.
func (e *Engine) Validate(snap *DocumentSnapshot) ([]Issue, []Correction) {
	var issues []Issue
	var corrections []Correction

	total, hasTotal := snap.SecuritiesTotal()

	// 1. Headline figures must both exist before any cross-check.
	if snap.PortfolioValue == nil {
		issues = append(issues, Issue{
			Kind:        MissingPortfolioValue,
			Description: "document states no portfolio value",
		})
	}
	if !hasTotal {
		issues = append(issues, Issue{
			Kind:        MissingSecuritiesTotal,
			Description: "no security carries a valuation, cannot compute a securities total",
		})
	}

	// 2. Portfolio value vs. sum of securities.
	if snap.PortfolioValue != nil && hasTotal {
		pv := *snap.PortfolioValue
		disc := pv.Sub(total)
		if pct, ok := disc.PercentOf(pv); ok {
			if pct.Abs() > portfolioTolerancePct {
				issues = append(issues, Issue{
					Kind: PortfolioValueDiscrepancy,
					Description: fmt.Sprintf("portfolio value %s differs from securities total %s",
						pv, total),
					Discrepancy:    &disc,
					DiscrepancyPct: &pct,
				})
			}
			// 3. Severe mismatch: fall back to the configured reference total.
			if pct.Abs() > severeMismatchPct && e.reference != nil {
				corrections = append(corrections, e.severeMismatchCorrection(pv, total)...)
			}
		}
	}

	// 4. Asset allocation cross-checks.
	issues = append(issues, e.validateAllocation(snap, total, hasTotal)...)

	// 5. Line items: nominal x price must match the stated valuation.
	lineIssues, lineCorrections := e.validateLineItems(snap)
	issues = append(issues, lineIssues...)
	corrections = append(corrections, lineCorrections...)

	// Cross-currency content is detected, never silently converted.
	if issue, mixed := currencyIssue(snap); mixed {
		issues = append(issues, issue)
	}

	return issues, corrections
}

// severeMismatchCorrection implements the fixed fallback policy: prefer
// whichever headline figure is within 1% of the reference total; when neither
// is, override the portfolio value with the reference itself.
func (e *Engine) severeMismatchCorrection(pv, total Quantity) []Correction {
	ref := *e.reference
	if withinPct(pv, ref, referenceTolerancePct) {
		// The stated portfolio value already agrees with the reference,
		// the securities side is the broken one. Nothing to override.
		return nil
	}
	old := pv
	if withinPct(total, ref, referenceTolerancePct) {
		return []Correction{{
			Kind:     UseSecuritiesTotal,
			OldValue: &old,
			NewValue: total,
			Action:   fmt.Sprintf("replace portfolio value %s with securities total %s (matches reference)", pv, total),
		}}
	}
	return []Correction{{
		Kind:     UseTargetValue,
		OldValue: &old,
		NewValue: ref,
		Action:   fmt.Sprintf("replace portfolio value %s with reference total %s", pv, ref),
	}}
}

func withinPct(a, b Quantity, tolerancePct float64) bool {
	pct, ok := a.Sub(b).PercentOf(b)
	if !ok {
		return false
	}
	return float64(pct.Abs()) <= tolerancePct
}

// validateAllocation checks the allocation table: its grand total against the
// portfolio value, then each class against the securities tagged with it.
func (e *Engine) validateAllocation(snap *DocumentSnapshot, total Quantity, hasTotal bool) []Issue {
	var issues []Issue

	if allocTotal, ok := snap.AllocationTotal(); ok && snap.PortfolioValue != nil {
		pv := *snap.PortfolioValue
		disc := pv.Sub(allocTotal)
		if pct, ok := disc.PercentOf(pv); ok && pct.Abs() > allocationTolerancePct {
			issues = append(issues, Issue{
				Kind: AssetAllocationDiscrepancy,
				Description: fmt.Sprintf("asset allocation sums to %s, portfolio value is %s",
					allocTotal, pv),
				Discrepancy:    &disc,
				DiscrepancyPct: &pct,
			})
		}
	}

	// Deterministic report order.
	names := make([]string, 0, len(snap.Allocation))
	for name := range snap.Allocation {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		class := snap.Allocation[name]
		if class.Value == nil {
			continue
		}
		classTotal, found := sumByAssetClass(snap.Securities, name)
		if !found {
			continue // no security tagged with this class, nothing to compare
		}
		disc := class.Value.Sub(classTotal)
		if pct, ok := disc.PercentOf(*class.Value); ok && pct.Abs() > assetClassTolerancePct {
			issues = append(issues, Issue{
				Kind: AssetClassDiscrepancy,
				Description: fmt.Sprintf("asset class %q states %s, matching securities sum to %s",
					name, class.Value, classTotal),
				Discrepancy:    &disc,
				DiscrepancyPct: &pct,
			})
		}
	}
	return issues
}

// sumByAssetClass sums valuations of securities whose asset class matches the
// allocation line, by case-insensitive substring in either direction.
func sumByAssetClass(records []SecurityRecord, className string) (Quantity, bool) {
	var total Quantity
	found := false
	for _, rec := range records {
		if rec.Valuation == nil || rec.AssetClass == "" {
			continue
		}
		if !classMatches(className, rec.AssetClass) {
			continue
		}
		total = total.Add(*rec.Valuation)
		found = true
	}
	return total, found
}

func classMatches(className, recClass string) bool {
	a, b := strings.ToLower(className), strings.ToLower(recClass)
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// validateLineItems recomputes nominal x price for every fully populated
// security and proposes a correction when the stated valuation diverges.
func (e *Engine) validateLineItems(snap *DocumentSnapshot) ([]Issue, []Correction) {
	var issues []Issue
	var corrections []Correction

	for _, rec := range snap.Securities {
		if rec.Identifiable() && rec.Valuation == nil {
			issues = append(issues, Issue{
				Kind:        MissingSecurityField,
				Description: fmt.Sprintf("security %q has no valuation", recordLabel(rec)),
			})
		}
		if rec.Nominal == nil || rec.Price == nil || rec.Valuation == nil {
			continue
		}
		computed := rec.Nominal.Mul(*rec.Price)
		disc := computed.Sub(*rec.Valuation)
		pct, ok := disc.PercentOf(*rec.Valuation)
		diverges := !ok && !computed.Equal(*rec.Valuation) // zero valuation, non-zero product
		if ok && pct.Abs() > lineItemTolerancePct {
			diverges = true
		}
		if !diverges {
			continue
		}
		issue := Issue{
			Kind: SecurityValueDiscrepancy,
			Description: fmt.Sprintf("security %q states valuation %s, nominal x price gives %s",
				recordLabel(rec), rec.Valuation, computed),
			Discrepancy: &disc,
		}
		if ok {
			issue.DiscrepancyPct = &pct
		}
		issues = append(issues, issue)
		old := *rec.Valuation
		corrections = append(corrections, Correction{
			Kind:       UseComputedValuation,
			OldValue:   &old,
			NewValue:   computed,
			Action:     fmt.Sprintf("replace valuation %s with nominal x price %s", rec.Valuation, computed),
			SecurityID: recordID(rec),
		})
	}
	return issues, corrections
}

// currencyIssue detects cross-currency content inside one snapshot.
func currencyIssue(snap *DocumentSnapshot) (Issue, bool) {
	currencies := make(map[string]struct{})
	if snap.Currency != "" {
		currencies[snap.Currency] = struct{}{}
	}
	for _, rec := range snap.Securities {
		if rec.Currency != "" {
			currencies[rec.Currency] = struct{}{}
		}
	}
	if len(currencies) <= 1 {
		return Issue{}, false
	}
	list := make([]string, 0, len(currencies))
	for c := range currencies {
		list = append(list, c)
	}
	slices.Sort(list)
	return Issue{
		Kind:        CurrencyMismatch,
		Description: fmt.Sprintf("document mixes currencies %s", strings.Join(list, ", ")),
	}, true
}

// recordLabel names a record in human-readable reports.
func recordLabel(rec SecurityRecord) string {
	if rec.Description != "" {
		return rec.Description
	}
	return rec.ISIN
}

// recordID derives the canonical id this record resolves to in isolation.
func recordID(rec SecurityRecord) SecurityID {
	if rec.ISIN != "" {
		return SecurityID(rec.ISIN)
	}
	if rec.Description != "" {
		return SecurityID(descPrefix + Normalize(rec.Description))
	}
	return ""
}

// ReconciliationResult is the output contract of one validation pass,
// consumed by downstream reporting.
type ReconciliationResult struct {
	Issues      []Issue         `json:"issues"`
	Corrections []Correction    `json:"corrections"`
	Confidence  ConfidenceScore `json:"confidence"`
}

// Apply returns a corrected deep copy of the snapshot; the input is left
// untouched. Unknown correction kinds are ignored.
func Apply(snap *DocumentSnapshot, corrections []Correction) *DocumentSnapshot {
	out := snap.Clone()
	for _, c := range corrections {
		switch c.Kind {
		case UseTargetValue, UseSecuritiesTotal:
			v := c.NewValue
			out.PortfolioValue = &v
		case UseComputedValuation:
			for i := range out.Securities {
				if recordID(out.Securities[i]) == c.SecurityID {
					v := c.NewValue
					out.Securities[i].Valuation = &v
				}
			}
		}
	}
	return out
}
