package reconcile

import (
	"fmt"

	"github.com/etnz/reconcile/date"
)

// DocumentSnapshot is the structured output of one extraction pass over one
// source document. It is handed to the core once and is immutable input:
// nothing in this package writes back into a snapshot.
type DocumentSnapshot struct {
	ID             string                `json:"id"`
	Date           string                `json:"date,omitempty"` // normalized to ISO-8601 when parseable
	Client         *ClientInfo           `json:"client_info,omitempty"`
	Currency       string                `json:"currency,omitempty"`
	PortfolioValue *Quantity             `json:"portfolio_value,omitempty"`
	Securities     []SecurityRecord      `json:"securities,omitempty"`
	Allocation     map[string]AssetClass `json:"asset_allocation,omitempty"`
}

// ClientInfo identifies the portfolio owner as stated on the document.
type ClientInfo struct {
	Name   string `json:"name,omitempty"`
	Number string `json:"number,omitempty"`
}

// AssetClass is one line of the document's asset allocation breakdown.
type AssetClass struct {
	Value      *Quantity             `json:"value,omitempty"`
	Percentage *Percent              `json:"percentage,omitempty"`
	SubClasses map[string]AssetClass `json:"sub_classes,omitempty"`
}

// SecurityRecord is one security line as extracted from a document.
// Every field is optional: extraction may have failed on any of them.
type SecurityRecord struct {
	ISIN         string    `json:"isin,omitempty"`
	Description  string    `json:"description,omitempty"`
	Currency     string    `json:"currency,omitempty"`
	Nominal      *Quantity `json:"nominal,omitempty"`
	Price        *Quantity `json:"price,omitempty"`
	Valuation    *Quantity `json:"valuation,omitempty"`
	MaturityDate string    `json:"maturity_date,omitempty"`
	AssetClass   string    `json:"asset_class,omitempty"`
}

// Identifiable reports whether the record carries at least one identity
// signal. Records without any cannot be resolved and are skipped.
func (r SecurityRecord) Identifiable() bool {
	return r.ISIN != "" || r.Description != ""
}

// Validate rejects structurally broken snapshots before ingestion.
// This is the only error class that surfaces to the caller as an error;
// arithmetic inconsistencies are reported as issues instead.
func (s *DocumentSnapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("invalid snapshot: nil")
	}
	if s.ID == "" {
		return fmt.Errorf("invalid snapshot: missing document id")
	}
	return nil
}

// Day returns the snapshot date parsed against the extraction layouts,
// or false when the date is opaque.
func (s *DocumentSnapshot) Day() (date.Date, bool) {
	return date.ParseAny(s.Date)
}

// SecuritiesTotal sums the valuations of all securities.
// It returns false when no security carries a valuation at all.
func (s *DocumentSnapshot) SecuritiesTotal() (Quantity, bool) {
	var total Quantity
	found := false
	for _, rec := range s.Securities {
		if rec.Valuation == nil {
			continue
		}
		total = total.Add(*rec.Valuation)
		found = true
	}
	return total, found
}

// AllocationTotal sums the top-level asset-class values.
// It returns false when no class carries a value.
func (s *DocumentSnapshot) AllocationTotal() (Quantity, bool) {
	var total Quantity
	found := false
	for _, class := range s.Allocation {
		if class.Value == nil {
			continue
		}
		total = total.Add(*class.Value)
		found = true
	}
	return total, found
}

// Clone returns a deep copy of the snapshot. Corrections are applied to a
// clone so the original extraction output stays auditable.
func (s *DocumentSnapshot) Clone() *DocumentSnapshot {
	if s == nil {
		return nil
	}
	c := *s
	if s.Client != nil {
		client := *s.Client
		c.Client = &client
	}
	if s.PortfolioValue != nil {
		v := *s.PortfolioValue
		c.PortfolioValue = &v
	}
	c.Securities = make([]SecurityRecord, len(s.Securities))
	for i, rec := range s.Securities {
		c.Securities[i] = rec.clone()
	}
	c.Allocation = cloneAllocation(s.Allocation)
	return &c
}

func (r SecurityRecord) clone() SecurityRecord {
	c := r
	if r.Nominal != nil {
		v := *r.Nominal
		c.Nominal = &v
	}
	if r.Price != nil {
		v := *r.Price
		c.Price = &v
	}
	if r.Valuation != nil {
		v := *r.Valuation
		c.Valuation = &v
	}
	return c
}

func cloneAllocation(alloc map[string]AssetClass) map[string]AssetClass {
	if alloc == nil {
		return nil
	}
	out := make(map[string]AssetClass, len(alloc))
	for name, class := range alloc {
		c := class
		if class.Value != nil {
			v := *class.Value
			c.Value = &v
		}
		if class.Percentage != nil {
			p := *class.Percentage
			c.Percentage = &p
		}
		c.SubClasses = cloneAllocation(class.SubClasses)
		out[name] = c
	}
	return out
}
