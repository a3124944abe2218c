package date

import (
	"testing"
	"time"
)

func TestParseAny(t *testing.T) {
	tests := []struct {
		in   string
		want Date
	}{
		{"31.12.2023", New(2023, time.December, 31)},
		{"2023-12-31", New(2023, time.December, 31)},
		{"12/31/2023", New(2023, time.December, 31)},
		{"31/12/2023", New(2023, time.December, 31)},
		{"2023/12/31", New(2023, time.December, 31)},
		{"Dec 31, 2023", New(2023, time.December, 31)},
		{"31 Dec 2023", New(2023, time.December, 31)},
		{"December 31, 2023", New(2023, time.December, 31)},
		{"31 December 2023", New(2023, time.December, 31)},
		{"1.2.2023", New(2023, time.February, 1)},
	}
	for _, tt := range tests {
		got, ok := ParseAny(tt.in)
		if !ok {
			t.Errorf("ParseAny(%q) did not match any layout", tt.in)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAny(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseAny_FirstFormatWins(t *testing.T) {
	// 05/06/2023 is ambiguous: MM/DD comes before DD/MM in the layout list,
	// so it must resolve to May 6, not June 5.
	got, ok := ParseAny("05/06/2023")
	if !ok {
		t.Fatal("ParseAny(05/06/2023) did not match any layout")
	}
	if want := New(2023, time.May, 6); got != want {
		t.Errorf("ParseAny(05/06/2023) = %v, want %v", got, want)
	}
}

func TestParseAny_Opaque(t *testing.T) {
	for _, in := range []string{"", "unknown", "Q3 2023", "31-12-2023"} {
		if _, ok := ParseAny(in); ok {
			t.Errorf("ParseAny(%q) matched, want opaque", in)
		}
	}
}

func TestDaysUntil(t *testing.T) {
	a := New(2023, time.January, 1)
	b := New(2024, time.January, 1)
	if got := a.DaysUntil(b); got != 365 {
		t.Errorf("DaysUntil() = %d, want 365", got)
	}
	if got := b.DaysUntil(a); got != -365 {
		t.Errorf("DaysUntil() reversed = %d, want -365", got)
	}
}

func TestHistory_AppendKeepsChronology(t *testing.T) {
	var h History[float64]
	h.Append(New(2023, time.March, 1), 2)
	h.Append(New(2023, time.January, 1), 1)
	h.Append(New(2023, time.June, 1), 3)

	if first, v := h.First(); first != New(2023, time.January, 1) || v != 1 {
		t.Errorf("First() = %v, %v", first, v)
	}
	if last, v := h.Latest(); last != New(2023, time.June, 1) || v != 3 {
		t.Errorf("Latest() = %v, %v", last, v)
	}

	// Appending on an existing day overwrites.
	h.Append(New(2023, time.March, 1), 20)
	if got, ok := h.Get(New(2023, time.March, 1)); !ok || got != 20 {
		t.Errorf("Get() = %v, %v, want 20, true", got, ok)
	}
	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
}
