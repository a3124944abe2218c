package reconcile

import (
	"math"
	"testing"
)

func almost(got, want float64) bool { return math.Abs(got-want) < 1e-9 }

func TestScoreSnapshot_PortfolioLadder(t *testing.T) {
	tests := []struct {
		name string
		snap *DocumentSnapshot
		opts []ScorerOption
		want float64 // portfolio value confidence
	}{
		{
			name: "matches reference",
			snap: &DocumentSnapshot{ID: "a", PortfolioValue: q(1000),
				Securities: []SecurityRecord{{ISIN: "X", Valuation: q(500)}}},
			opts: []ScorerOption{WithScorerReference(Q(1000))},
			want: 0.95,
		},
		{
			name: "close to securities total",
			snap: &DocumentSnapshot{ID: "a", PortfolioValue: q(1000),
				Securities: []SecurityRecord{{ISIN: "X", Valuation: q(980)}}},
			want: 0.9,
		},
		{
			name: "loosely agrees",
			snap: &DocumentSnapshot{ID: "a", PortfolioValue: q(1000),
				Securities: []SecurityRecord{{ISIN: "X", Valuation: q(900)}}},
			want: 0.7,
		},
		{
			name: "disagrees",
			snap: &DocumentSnapshot{ID: "a", PortfolioValue: q(1000),
				Securities: []SecurityRecord{{ISIN: "X", Valuation: q(500)}}},
			want: 0.5,
		},
		{
			name: "no securities total",
			snap: &DocumentSnapshot{ID: "a", PortfolioValue: q(1000),
				Securities: []SecurityRecord{{ISIN: "X"}}},
			want: 0.6,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			score := NewScorer(tc.opts...).ScoreSnapshot(tc.snap, nil)
			if score.PortfolioValue == nil {
				t.Fatal("portfolio confidence missing")
			}
			if !almost(*score.PortfolioValue, tc.want) {
				t.Errorf("portfolio confidence = %v, want %v", *score.PortfolioValue, tc.want)
			}
		})
	}
}

func TestScoreSnapshot_Securities(t *testing.T) {
	complete := SecurityRecord{ISIN: "X", Description: "Full", Valuation: q(1), Nominal: q(1)}
	partial := SecurityRecord{Description: "Half", Valuation: q(1)}

	tests := []struct {
		name string
		recs []SecurityRecord
		want float64
	}{
		{"all complete", []SecurityRecord{complete, complete}, 0.95}, // capped
		{"half complete", []SecurityRecord{complete, partial}, 0.75},
		{"none complete", []SecurityRecord{partial}, 0.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			snap := &DocumentSnapshot{ID: "a", Securities: tc.recs}
			score := NewScorer().ScoreSnapshot(snap, nil)
			if score.Securities == nil {
				t.Fatal("securities confidence missing")
			}
			if !almost(*score.Securities, tc.want) {
				t.Errorf("securities confidence = %v, want %v", *score.Securities, tc.want)
			}
		})
	}
}

func TestScoreSnapshot_Overall(t *testing.T) {
	t.Run("both topics weighted", func(t *testing.T) {
		snap := &DocumentSnapshot{ID: "a", PortfolioValue: q(1000),
			Securities: []SecurityRecord{{ISIN: "X", Description: "Full", Valuation: q(980), Price: q(1)}}}
		score := NewScorer().ScoreSnapshot(snap, nil)
		want := 0.4*0.9 + 0.6*0.95
		if !almost(score.Overall, want) {
			t.Errorf("Overall = %v, want %v", score.Overall, want)
		}
	})

	t.Run("single topic scaled", func(t *testing.T) {
		snap := &DocumentSnapshot{ID: "a",
			Securities: []SecurityRecord{{ISIN: "X", Description: "Full", Valuation: q(980), Price: q(1)}}}
		score := NewScorer().ScoreSnapshot(snap, nil)
		if score.PortfolioValue != nil {
			t.Fatal("no portfolio value, no portfolio confidence")
		}
		want := 0.95 * 0.7
		if !almost(score.Overall, want) {
			t.Errorf("Overall = %v, want %v", score.Overall, want)
		}
	})

	t.Run("no signal floors", func(t *testing.T) {
		score := NewScorer().ScoreSnapshot(&DocumentSnapshot{ID: "a"}, nil)
		if !almost(score.Overall, 0.3) {
			t.Errorf("Overall = %v, want 0.3", score.Overall)
		}
	})
}
