package reconcile

import "strings"

// suffixTokens are corporate and instrument suffixes that carry no identity:
// two extraction passes routinely disagree on whether "LTD" or "BOND" made it
// through OCR, so they are stripped before any description comparison.
var suffixTokens = map[string]struct{}{
	"LTD": {}, "INC": {}, "CORP": {}, "CORPORATION": {}, "COMPANY": {},
	"CO": {}, "PLC": {}, "AG": {}, "SA": {}, "NV": {}, "BOND": {}, "NOTE": {},
}

var punctuation = strings.NewReplacer(
	".", " ", ",", " ", "-", " ", "(", " ", ")", " ",
	"[", " ", "]", " ", "{", " ", "}", " ", "'", " ",
	`"`, " ", "/", " ", `\`, " ",
)

// Normalize reduces a free-text security description to a matching key.
// It is deterministic, pure and total: empty input yields an empty string.
// The result is only ever used as a key, never shown to users; original
// descriptions are preserved verbatim as alternative descriptions.
func Normalize(description string) string {
	s := punctuation.Replace(strings.ToUpper(description))
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, tok := range fields {
		if _, drop := suffixTokens[tok]; drop {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}
