package reconcile

import (
	"bytes"
	"strings"
	"testing"
)

func TestEncodeDecodeStore(t *testing.T) {
	s := NewStore()
	mustIngest(t, s, sampleSnapshot())
	mustIngest(t, s, &DocumentSnapshot{
		ID: "2024-03.pdf", Date: "2024-03-31", Currency: "CHF", PortfolioValue: q(20000000),
		Securities: []SecurityRecord{
			{ISIN: "CH0012345678", Description: "Swisscom Ltd.", Valuation: q(52000)},
		},
	})

	var buf bytes.Buffer
	if err := EncodeStore(&buf, s); err != nil {
		t.Fatalf("EncodeStore() failed: %v", err)
	}

	got, err := DecodeStore(&buf)
	if err != nil {
		t.Fatalf("DecodeStore() failed: %v", err)
	}

	if got.Len() != s.Len() {
		t.Errorf("Len() = %d, want %d", got.Len(), s.Len())
	}
	if len(got.Docs()) != len(s.Docs()) {
		t.Errorf("Docs() = %v, want %v", got.Docs(), s.Docs())
	}

	sec, ok := got.Get("CH0012345678")
	if !ok {
		t.Fatal("entity CH0012345678 lost in round trip")
	}
	if sec.Description() != "Swisscom AG" {
		t.Errorf("Description() = %q, want Swisscom AG", sec.Description())
	}
	if alts := sec.Alternatives(); len(alts) != 1 || alts[0] != "Swisscom Ltd." {
		t.Errorf("Alternatives() = %v, want [Swisscom Ltd.]", alts)
	}
	point, ok := sec.Value("2024-03.pdf")
	if !ok || !point.Valuation.Equal(Q(52000)) {
		t.Errorf("Value(2024-03.pdf) = (%+v, %v), want valuation 52000", point, ok)
	}

	meta, ok := got.Doc("2023-03.pdf")
	if !ok || !meta.PortfolioValue.Equal(Q(19510599)) {
		t.Errorf("Doc(2023-03.pdf) = (%+v, %v), want portfolio value 19510599", meta, ok)
	}
	if meta.Client == nil || meta.Client.Name != "John Example" {
		t.Errorf("client info lost: %+v", meta.Client)
	}
}

func TestEncodeStore_Stable(t *testing.T) {
	s := NewStore()
	mustIngest(t, s, sampleSnapshot())

	var a, b bytes.Buffer
	if err := EncodeStore(&a, s); err != nil {
		t.Fatal(err)
	}
	if err := EncodeStore(&b, s); err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() {
		t.Error("re-encoding an unchanged store must be byte-stable")
	}
}

func TestDecodeStore_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"broken json", "{not json\n"},
		{"unknown kind", `{"kind":"mystery"}` + "\n"},
		{"duplicate document", `{"kind":"document","id":"a"}` + "\n" + `{"kind":"document","id":"a"}` + "\n"},
		{"duplicate security", `{"kind":"security","security_id":"X"}` + "\n" + `{"kind":"security","security_id":"X"}` + "\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeStore(strings.NewReader(tc.in)); err == nil {
				t.Error("DecodeStore() must fail")
			}
		})
	}
}

func TestDecodeStore_SkipsEmptyLines(t *testing.T) {
	in := "\n" + `{"kind":"document","id":"a"}` + "\n\n"
	s, err := DecodeStore(strings.NewReader(in))
	if err != nil {
		t.Fatalf("DecodeStore() failed: %v", err)
	}
	if _, ok := s.Doc("a"); !ok {
		t.Error("document a not loaded")
	}
}
