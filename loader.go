package reconcile

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// DecodeSnapshot reads one document snapshot from r and validates it.
// Unknown fields are rejected: snapshots are a contract with the upstream
// extractor, and a misspelled field silently dropping data is worse than a
// hard error.
func DecodeSnapshot(r io.Reader) (*DocumentSnapshot, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var snap DocumentSnapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("parse error: not a correct snapshot: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// EncodeSnapshot writes the snapshot as indented JSON.
func EncodeSnapshot(w io.Writer, snap *DocumentSnapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("persist error: snapshot %q: %w", snap.ID, err)
	}
	return nil
}

// ExtractSnapshot pulls a snapshot out of arbitrary extractor output: a
// decoded JSON value whose shape varies between upstream versions. Each field
// is probed through a list of known paths, first hit wins, and amounts pass
// through parseAmount to survive localized number formatting.
//
// jobj is typically obtained by json.Unmarshal into an `any`.
func ExtractSnapshot(id string, jobj any) (*DocumentSnapshot, error) {
	snap := &DocumentSnapshot{ID: id}

	snap.Date, _ = extractString(jobj, "$.document_date", "$.date", "$.statement.date")
	snap.Currency, _ = extractString(jobj, "$.currency", "$.statement.currency")
	if name, ok := extractString(jobj, "$.client_info.name", "$.client.name"); ok {
		snap.Client = &ClientInfo{Name: name}
		snap.Client.Number, _ = extractString(jobj, "$.client_info.number", "$.client.account_number")
	}
	if v, ok := extractAmount(jobj, "$.portfolio_value", "$.total_value", "$.statement.portfolio_value"); ok {
		snap.PortfolioValue = &v
	}

	jrecs, err := jsonpath.Get("$.securities[*]", jobj)
	if err != nil {
		// no securities section at all, a headline-only snapshot
		jrecs = []any{}
	}
	jlist, ok := jrecs.([]any)
	if !ok {
		return nil, fmt.Errorf("parse error: securities is not a list")
	}
	for i, jrec := range jlist {
		rec, err := extractRecord(jrec)
		if err != nil {
			return nil, fmt.Errorf("parse error: security %d: %w", i, err)
		}
		snap.Securities = append(snap.Securities, rec)
	}

	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

func extractRecord(jrec any) (SecurityRecord, error) {
	var rec SecurityRecord
	rec.ISIN, _ = extractString(jrec, "$.isin", "$.ISIN")
	rec.Description, _ = extractString(jrec, "$.description", "$.name")
	rec.Currency, _ = extractString(jrec, "$.currency")
	rec.MaturityDate, _ = extractString(jrec, "$.maturity_date", "$.maturity")
	rec.AssetClass, _ = extractString(jrec, "$.asset_class", "$.class")
	if v, ok := extractAmount(jrec, "$.nominal", "$.quantity"); ok {
		rec.Nominal = &v
	}
	if v, ok := extractAmount(jrec, "$.price", "$.unit_price"); ok {
		rec.Price = &v
	}
	if v, ok := extractAmount(jrec, "$.valuation", "$.value", "$.market_value"); ok {
		rec.Valuation = &v
	}
	if !rec.Identifiable() && (rec.Nominal != nil || rec.Price != nil || rec.Valuation != nil) {
		return rec, fmt.Errorf("record carries values but no isin and no description")
	}
	return rec, nil
}

// extractString probes paths in order and returns the first non-empty string.
func extractString(jobj any, paths ...string) (string, bool) {
	for _, path := range paths {
		jval, err := jsonpath.Get(path, jobj)
		if err != nil {
			continue
		}
		// because jsonpath is never clear about whether it returns a list of
		// 1 answer or a single answer, keep the first one if any
		if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
			jval = jlist[0]
		}
		if s, ok := jval.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// extractAmount probes paths in order and returns the first value parseable
// as an amount, accepting both JSON numbers and formatted strings.
func extractAmount(jobj any, paths ...string) (Quantity, bool) {
	for _, path := range paths {
		jval, err := jsonpath.Get(path, jobj)
		if err != nil {
			continue
		}
		if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
			jval = jlist[0]
		}
		switch v := jval.(type) {
		case float64:
			return Q(v), true
		case string:
			if q, err := parseAmount(v); err == nil {
				return q, true
			}
		}
	}
	return Quantity{}, false
}

// parseAmount reads a numeric amount out of the string forms upstream
// extractors emit: "19'510'599.00", "1,234,567.89", "1.234.567,89",
// "1234567.89". The last separator from the right decides which one is the
// decimal mark.
func parseAmount(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		// "1.234.567,89": dots group thousands, comma is decimal
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		// "1,234,567.89": commas group thousands
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 || len(s)-lastComma-1 == 3 {
			// ambiguous "1,234" reads as a thousand group
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	}

	val, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, fmt.Errorf("cannot read amount %q: %w", s, err)
	}
	return Q(val), nil
}
