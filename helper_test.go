package reconcile

import "testing"

// q returns a *Quantity, the pointer form most snapshot fields use.
func q(v float64) *Quantity {
	x := Q(v)
	return &x
}

func mustIngest(t *testing.T, s *Store, snap *DocumentSnapshot) IngestReport {
	t.Helper()
	report, err := s.Ingest(snap)
	if err != nil {
		t.Fatalf("Ingest(%q) failed: %v", snap.ID, err)
	}
	return report
}
