package reconcile

import "testing"

func TestResolve_ISINWins(t *testing.T) {
	s := NewStore()
	mustIngest(t, s, &DocumentSnapshot{ID: "a", Securities: []SecurityRecord{
		{ISIN: "CH0012345678", Description: "Swisscom AG", Valuation: q(100)},
	}})

	// Same ISIN, completely different description: must resolve to the same
	// entity, no textual similarity involved.
	id, found := s.Resolve(SecurityRecord{ISIN: "CH0012345678", Description: "Totally Unrelated Name"})
	if !found || id != "CH0012345678" {
		t.Errorf("Resolve() = (%q, %v), want (CH0012345678, true)", id, found)
	}
}

func TestResolve_ISINWins_EitherOrder(t *testing.T) {
	// The description-only record first, the ISIN-carrying one second.
	s := NewStore()
	mustIngest(t, s, &DocumentSnapshot{ID: "a", Securities: []SecurityRecord{
		{Description: "Swisscom AG", Valuation: q(100)},
	}})
	mustIngest(t, s, &DocumentSnapshot{ID: "b", Securities: []SecurityRecord{
		{ISIN: "CH0012345678", Description: "Swisscom Ltd.", Valuation: q(110)},
	}})

	// Both descriptions normalize to SWISSCOM, so document b resolved into
	// the existing entity and enriched it with the ISIN.
	if got := s.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
	sec, ok := s.Get("DESC:SWISSCOM")
	if !ok {
		t.Fatal("entity DESC:SWISSCOM not found")
	}
	if sec.ISIN() != "CH0012345678" {
		t.Errorf("ISIN() = %q, want CH0012345678", sec.ISIN())
	}
	// And later ISIN lookups reach the same entity.
	if id, found := s.Resolve(SecurityRecord{ISIN: "CH0012345678"}); !found || id != "DESC:SWISSCOM" {
		t.Errorf("Resolve(isin) = (%q, %v), want (DESC:SWISSCOM, true)", id, found)
	}
}

func TestResolve_VerbatimAlternative(t *testing.T) {
	s := NewStore()
	mustIngest(t, s, &DocumentSnapshot{ID: "a", Securities: []SecurityRecord{
		{ISIN: "CH0012345678", Description: "Swisscom AG", Valuation: q(100)},
	}})
	mustIngest(t, s, &DocumentSnapshot{ID: "b", Securities: []SecurityRecord{
		{ISIN: "CH0012345678", Description: "Swisscom Ltd.", Valuation: q(110)},
	}})

	// "Swisscom Ltd." is now a retained alias, matched verbatim without any
	// normalization or fuzzy step.
	id, found := s.Resolve(SecurityRecord{Description: "Swisscom Ltd."})
	if !found || id != "CH0012345678" {
		t.Errorf("Resolve(alias) = (%q, %v), want (CH0012345678, true)", id, found)
	}
}

func TestResolve_FuzzyThresholdIsStrict(t *testing.T) {
	s := NewStore()
	mustIngest(t, s, &DocumentSnapshot{ID: "a", Securities: []SecurityRecord{
		{Description: "ALPHA BETA GAMMA DELTA EPSILON ZETA ETA THETA IOTA KAPPA", Valuation: q(100)},
	}})

	// 7 shared tokens over a union of 10 scores exactly 0.70: not strictly
	// above the threshold, so this must create a new entity.
	if _, found := s.Resolve(SecurityRecord{Description: "ALPHA BETA GAMMA DELTA EPSILON ZETA ETA"}); found {
		t.Error("score of exactly 0.70 must not match")
	}

	// 5 shared tokens over a union of 7 scores ~0.714: strictly above.
	s2 := NewStore()
	mustIngest(t, s2, &DocumentSnapshot{ID: "a", Securities: []SecurityRecord{
		{Description: "ALPHA BETA GAMMA DELTA EPSILON ZETA", Valuation: q(100)},
	}})
	id, found := s2.Resolve(SecurityRecord{Description: "ALPHA BETA GAMMA DELTA EPSILON OMEGA"})
	if !found {
		t.Fatal("score above 0.70 must match")
	}
	if want := SecurityID("DESC:ALPHA BETA GAMMA DELTA EPSILON ZETA"); id != want {
		t.Errorf("Resolve() = %q, want %q", id, want)
	}
}

func TestResolve_FuzzyTieBreaksOnSmallestID(t *testing.T) {
	// The two entities score 6/10 = 0.6 against each other, so they stay
	// separate at ingestion. The probe scores 7/9 ~ 0.778 against both, a
	// perfect tie, which must deterministically go to the smallest id.
	s := NewStore()
	mustIngest(t, s, &DocumentSnapshot{ID: "a", Securities: []SecurityRecord{
		{Description: "ALPHA BETA GAMMA DELTA EPSILON ZETA ETA XI", Valuation: q(1)},
		{Description: "ALPHA BETA GAMMA DELTA EPSILON ZETA THETA PI", Valuation: q(2)},
	}})
	if got := s.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2 separate entities", got)
	}
	id, found := s.Resolve(SecurityRecord{Description: "ALPHA BETA GAMMA DELTA EPSILON ZETA ETA THETA"})
	if !found {
		t.Fatal("expected a fuzzy match")
	}
	if want := SecurityID("DESC:ALPHA BETA GAMMA DELTA EPSILON ZETA ETA XI"); id != want {
		t.Errorf("tie resolved to %q, want %q", id, want)
	}
}

func TestResolve_NewEntityID(t *testing.T) {
	s := NewStore()
	tests := []struct {
		name string
		rec  SecurityRecord
		want SecurityID
	}{
		{"with isin", SecurityRecord{ISIN: "XS0123456789", Description: "Some Bond"}, "XS0123456789"},
		{"description only", SecurityRecord{Description: "Some Note Ltd."}, "DESC:SOME"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, found := s.Resolve(tc.rec)
			if found {
				t.Fatal("empty store cannot match")
			}
			if id != tc.want {
				t.Errorf("Resolve() id = %q, want %q", id, tc.want)
			}
		})
	}
}
