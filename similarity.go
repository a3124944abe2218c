package reconcile

import "strings"

// Similarity scores how likely two normalized descriptions name the same
// security, in [0,1]. It is pluggable so stricter algorithms (edit distance,
// learned embeddings) can replace the default without touching the resolver's
// control flow.
type Similarity interface {
	Score(a, b string) float64
}

// Jaccard scores descriptions by token-set overlap: |A∩B| / |A∪B| over
// whitespace-tokenized normalized text. It is crude but cheap, and only has
// to bridge OCR noise between documents where ISIN extraction failed.
type Jaccard struct{}

func (Jaccard) Score(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
