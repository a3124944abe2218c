package reconcile

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDecodeSnapshot(t *testing.T) {
	in := `{
		"id": "2023-03.pdf",
		"date": "2023-03-31",
		"currency": "CHF",
		"portfolio_value": 19510599,
		"securities": [
			{"isin": "CH0012345678", "description": "Swisscom AG", "valuation": 50000}
		]
	}`
	snap, err := DecodeSnapshot(strings.NewReader(in))
	if err != nil {
		t.Fatalf("DecodeSnapshot() failed: %v", err)
	}
	if snap.ID != "2023-03.pdf" || !snap.PortfolioValue.Equal(Q(19510599)) {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if len(snap.Securities) != 1 || snap.Securities[0].ISIN != "CH0012345678" {
		t.Errorf("unexpected securities: %+v", snap.Securities)
	}
}

func TestDecodeSnapshot_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"missing id", `{"date": "2023-03-31"}`},
		{"unknown field", `{"id": "a", "surprise": 1}`},
		{"broken json", `{`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeSnapshot(strings.NewReader(tc.in)); err == nil {
				t.Error("DecodeSnapshot() must fail")
			}
		})
	}
}

func TestExtractSnapshot(t *testing.T) {
	// Loose extractor output: localized amounts, alternate field names.
	in := `{
		"document_date": "31.03.2023",
		"currency": "CHF",
		"client": {"name": "John Example"},
		"total_value": "19'510'599.00",
		"securities": [
			{"ISIN": "CH0012345678", "name": "Swisscom AG", "quantity": "1,000", "unit_price": "500.25", "market_value": "500'250"},
			{"description": "UBS 2% Bond", "value": 250000}
		]
	}`
	var jobj any
	if err := json.Unmarshal([]byte(in), &jobj); err != nil {
		t.Fatal(err)
	}
	snap, err := ExtractSnapshot("2023-03.pdf", jobj)
	if err != nil {
		t.Fatalf("ExtractSnapshot() failed: %v", err)
	}

	if snap.Date != "31.03.2023" || snap.Currency != "CHF" {
		t.Errorf("headline fields: %+v", snap)
	}
	if snap.Client == nil || snap.Client.Name != "John Example" {
		t.Errorf("client info: %+v", snap.Client)
	}
	if snap.PortfolioValue == nil || !snap.PortfolioValue.Equal(Q(19510599)) {
		t.Errorf("portfolio value = %v, want 19510599", snap.PortfolioValue)
	}

	if len(snap.Securities) != 2 {
		t.Fatalf("got %d securities, want 2", len(snap.Securities))
	}
	first := snap.Securities[0]
	if first.ISIN != "CH0012345678" || first.Description != "Swisscom AG" {
		t.Errorf("identity fields: %+v", first)
	}
	if !first.Nominal.Equal(Q(1000)) || !first.Price.Equal(Q(500.25)) || !first.Valuation.Equal(Q(500250)) {
		t.Errorf("amounts: %+v", first)
	}
	second := snap.Securities[1]
	if second.Description != "UBS 2% Bond" || !second.Valuation.Equal(Q(250000)) {
		t.Errorf("second record: %+v", second)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"19'510'599.00", 19510599},
		{"1,234,567.89", 1234567.89},
		{"1.234.567,89", 1234567.89},
		{"1234567.89", 1234567.89},
		{"1,234", 1234},
		{"12,5", 12.5},
		{" 500 ", 500},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseAmount(tc.in)
			if err != nil {
				t.Fatalf("parseAmount(%q) failed: %v", tc.in, err)
			}
			if !got.Equal(Q(tc.want)) {
				t.Errorf("parseAmount(%q) = %s, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	if _, err := parseAmount("not a number"); err == nil {
		t.Error("parseAmount() must fail on garbage")
	}
}
