package reconcile

import "math"

// ConfidenceScore grades how trustworthy a snapshot's headline numbers are,
// per topic and overall, in [0,1]. Scores are derived, stateless outputs:
// they are recomputed per request and never persisted as authoritative state.
type ConfidenceScore struct {
	PortfolioValue *float64 `json:"portfolio_value,omitempty"`
	Securities     *float64 `json:"securities,omitempty"`
	Overall        float64  `json:"overall"`
}

// Scorer weights. These are policy constants, not statistically derived:
// callers with different risk tolerances should treat them as configuration.
const (
	weightPortfolio  = 0.4
	weightSecurities = 0.6
	singleTopicScale = 0.7
	noSignalScore    = 0.3
)

// Scorer derives confidence from corroboration between independent figures:
// the stated portfolio value, the sum of its securities, the configured
// reference total, and field completeness of the security records.
type Scorer struct {
	reference *Quantity
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithScorerReference supplies the known-good portfolio total used as the
// strongest corroboration signal.
func WithScorerReference(q Quantity) ScorerOption {
	return func(s *Scorer) { s.reference = &q }
}

// NewScorer returns a confidence scorer.
func NewScorer(opts ...ScorerOption) *Scorer {
	s := &Scorer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScoreSnapshot scores one snapshot given the issues its reconciliation
// produced.
func (s *Scorer) ScoreSnapshot(snap *DocumentSnapshot, issues []Issue) ConfidenceScore {
	var score ConfidenceScore

	if snap.PortfolioValue != nil && !hasIssue(issues, MissingPortfolioValue) {
		v := s.portfolioConfidence(snap)
		score.PortfolioValue = &v
	}
	if len(snap.Securities) > 0 {
		v := securitiesConfidence(snap.Securities)
		score.Securities = &v
	}

	switch {
	case score.PortfolioValue != nil && score.Securities != nil:
		score.Overall = weightPortfolio*(*score.PortfolioValue) + weightSecurities*(*score.Securities)
	case score.PortfolioValue != nil:
		score.Overall = *score.PortfolioValue * singleTopicScale
	case score.Securities != nil:
		score.Overall = *score.Securities * singleTopicScale
	default:
		score.Overall = noSignalScore
	}
	return score
}

// portfolioConfidence: 0.95 when the stated value agrees with the reference
// total within 1%; otherwise graded by how close it is to the securities
// total; 0.6 when there is no securities total to corroborate against.
func (s *Scorer) portfolioConfidence(snap *DocumentSnapshot) float64 {
	pv := *snap.PortfolioValue
	if s.reference != nil && withinPct(pv, *s.reference, referenceTolerancePct) {
		return 0.95
	}
	total, hasTotal := snap.SecuritiesTotal()
	if !hasTotal {
		return 0.6
	}
	pct, ok := pv.Sub(total).PercentOf(pv)
	if !ok {
		return 0.5
	}
	switch {
	case pct.Abs() < 5:
		return 0.9
	case pct.Abs() < 20:
		return 0.7
	default:
		return 0.5
	}
}

// securitiesConfidence scales with the fraction of records carrying ISIN,
// description, valuation and at least one of nominal or price.
func securitiesConfidence(records []SecurityRecord) float64 {
	complete := 0
	for _, rec := range records {
		if rec.ISIN != "" && rec.Description != "" && rec.Valuation != nil &&
			(rec.Nominal != nil || rec.Price != nil) {
			complete++
		}
	}
	ratio := float64(complete) / float64(len(records))
	return math.Min(0.95, 0.5+ratio*0.5)
}

func hasIssue(issues []Issue, kind IssueKind) bool {
	for _, issue := range issues {
		if issue.Kind == kind {
			return true
		}
	}
	return false
}
