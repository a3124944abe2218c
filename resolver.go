package reconcile

// DefaultFuzzyThreshold is the similarity a fuzzy match must strictly exceed
// to merge two descriptions. It is a tunable policy constant, not a proven
// optimum.
const DefaultFuzzyThreshold = 0.7

// Resolver maps an incoming security record to a canonical entity.
//
// Resolution order, first match wins:
//  1. exact ISIN match, the ISIN is authoritative when present;
//  2. verbatim description match (canonical or alternative);
//  3. normalized description match;
//  4. fuzzy match on normalized descriptions, strictly above the threshold,
//     ties broken lexicographically on the canonical id so resolution is
//     deterministic regardless of map iteration order;
//  5. no match, the caller creates a new entity.
//
// Fuzzy matching exists only to bridge OCR noise across documents where ISIN
// extraction failed in one of the two passes.
type Resolver struct {
	sim       Similarity
	threshold float64
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSimilarity substitutes the fuzzy matching strategy.
func WithSimilarity(sim Similarity) ResolverOption {
	return func(r *Resolver) { r.sim = sim }
}

// WithThreshold overrides the fuzzy matching threshold.
func WithThreshold(t float64) ResolverOption {
	return func(r *Resolver) { r.threshold = t }
}

// NewResolver returns a resolver with Jaccard token similarity and the
// default threshold.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{sim: Jaccard{}, threshold: DefaultFuzzyThreshold}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// resolve finds the canonical id for rec within the store, or computes the id
// a new entity should get. The second return value reports whether an
// existing entity matched. The caller must hold the store lock.
func (r *Resolver) resolve(rec SecurityRecord, s *Store) (SecurityID, bool) {
	// Entities are always scanned in id order so every step is deterministic
	// regardless of map iteration order.
	secs := s.allLocked()

	// 1. Exact ISIN.
	if rec.ISIN != "" {
		for _, sec := range secs {
			if sec.isin == rec.ISIN {
				return sec.id, true
			}
		}
	}

	if rec.Description != "" {
		// 2. Verbatim description, canonical or alternative.
		for _, sec := range secs {
			if sec.matches(rec.Description) {
				return sec.id, true
			}
		}

		// 3. Normalized exact match.
		norm := Normalize(rec.Description)
		for _, sec := range secs {
			if Normalize(sec.canonical) == norm {
				return sec.id, true
			}
		}

		// 4. Fuzzy match: an equal best score resolves to the
		// lexicographically smallest id.
		var best *CanonicalSecurity
		bestScore := 0.0
		for _, sec := range secs {
			score := r.sim.Score(norm, Normalize(sec.canonical))
			if score > bestScore {
				best, bestScore = sec, score
			}
		}
		if best != nil && bestScore > r.threshold {
			return best.id, true
		}
	}

	// 5. No match: derive the id a new entity would take.
	if rec.ISIN != "" {
		return SecurityID(rec.ISIN), false
	}
	return SecurityID(descPrefix + Normalize(rec.Description)), false
}
