package reconcile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// This file persists the store as JSONL, human-readable and git-friendly:
// one line per ingested document, then one line per canonical security, both
// sorted by id so re-encoding an unchanged store is byte-stable.
//
// Lines carry a "kind" discriminator ("document" or "security"), so the
// format can grow without breaking old readers.

const (
	kindDocument = "document"
	kindSecurity = "security"
)

// jdocument is the persisted form of a DocumentMeta.
type jdocument struct {
	Kind           string                `json:"kind"`
	ID             string                `json:"id"`
	Date           string                `json:"date,omitempty"`
	Currency       string                `json:"currency,omitempty"`
	Client         *ClientInfo           `json:"client_info,omitempty"`
	PortfolioValue *Quantity             `json:"portfolio_value,omitempty"`
	Allocation     map[string]AssetClass `json:"asset_allocation,omitempty"`
}

// jsecurity is the persisted form of a CanonicalSecurity. The set of
// alternative descriptions serializes as a sorted list.
type jsecurity struct {
	Kind         string                `json:"kind"`
	SecurityID   SecurityID            `json:"security_id"`
	ISIN         string                `json:"isin,omitempty"`
	Description  string                `json:"description,omitempty"`
	Alternatives []string              `json:"alternative_descriptions,omitempty"`
	Values       map[string]ValuePoint `json:"values_by_document"`
}

// EncodeStore writes the store to w in JSONL format.
func EncodeStore(w io.Writer, s *Store) error {
	for _, docID := range s.Docs() {
		meta, _ := s.Doc(docID)
		jd := jdocument{
			Kind:           kindDocument,
			ID:             meta.ID,
			Date:           meta.Date,
			Currency:       meta.Currency,
			Client:         meta.Client,
			PortfolioValue: meta.PortfolioValue,
			Allocation:     meta.Allocation,
		}
		if err := encodeLine(w, jd); err != nil {
			return fmt.Errorf("persist error: document %q: %w", docID, err)
		}
	}

	for _, sec := range s.All() {
		if err := encodeLine(w, encodeSecurity(sec)); err != nil {
			return fmt.Errorf("persist error: security %q: %w", sec.ID(), err)
		}
	}
	return nil
}

func encodeLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cannot marshal: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("cannot write: %w", err)
	}
	return nil
}

// encodeSecurity flattens a canonical security to its persisted form,
// writing values_by_document in sorted document order for stable output.
func encodeSecurity(sec *CanonicalSecurity) json.Marshaler {
	var values jsonObjectWriter
	for _, docID := range sec.Documents() {
		point := sec.values[docID]
		values.Append(docID, point)
	}
	valuesRaw, err := values.MarshalJSON()

	var w jsonObjectWriter
	if err != nil {
		w.err = err
		return &w
	}
	w.Append("kind", kindSecurity)
	w.Append("security_id", sec.id)
	w.Optional("isin", sec.isin)
	w.Optional("description", sec.canonical)
	if alts := sec.Alternatives(); len(alts) > 0 {
		w.Append("alternative_descriptions", alts)
	}
	w.AppendRaw("values_by_document", valuesRaw)
	return &w
}

// DecodeStore reloads a store persisted by EncodeStore. The result is
// structurally identical to the encoded store, modulo set/list
// representation of alternative descriptions.
func DecodeStore(r io.Reader, opts ...StoreOption) (*Store, error) {
	s := NewStore(opts...)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	i := 0
	for scanner.Scan() {
		i++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var discriminator struct {
			Kind string `json:"kind"`
		}
		if err := json.Unmarshal(line, &discriminator); err != nil {
			return nil, fmt.Errorf("parse error line %d: not a correct json: %w", i, err)
		}

		switch discriminator.Kind {
		case kindDocument:
			var jd jdocument
			if err := json.Unmarshal(line, &jd); err != nil {
				return nil, fmt.Errorf("parse error line %d: %w", i, err)
			}
			if _, exists := s.docs[jd.ID]; exists {
				return nil, fmt.Errorf("parse error line %d: document %q is already defined", i, jd.ID)
			}
			s.docs[jd.ID] = DocumentMeta{
				ID:             jd.ID,
				Date:           jd.Date,
				Currency:       jd.Currency,
				Client:         jd.Client,
				PortfolioValue: jd.PortfolioValue,
				Allocation:     jd.Allocation,
			}

		case kindSecurity:
			var js jsecurity
			if err := json.Unmarshal(line, &js); err != nil {
				return nil, fmt.Errorf("parse error line %d: %w", i, err)
			}
			if _, exists := s.securities[js.SecurityID]; exists {
				return nil, fmt.Errorf("parse error line %d: security %q is already defined", i, js.SecurityID)
			}
			sec := &CanonicalSecurity{
				id:           js.SecurityID,
				isin:         js.ISIN,
				canonical:    js.Description,
				alternatives: make(map[string]struct{}, len(js.Alternatives)),
				values:       js.Values,
			}
			if sec.values == nil {
				sec.values = make(map[string]ValuePoint)
			}
			for _, alt := range js.Alternatives {
				sec.alternatives[alt] = struct{}{}
			}
			s.securities[js.SecurityID] = sec

		default:
			return nil, fmt.Errorf("parse error line %d: unknown kind %q", i, discriminator.Kind)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading store: %w", err)
	}
	return s, nil
}
