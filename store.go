package reconcile

import (
	"fmt"
	"slices"
	"sync"

	"github.com/etnz/reconcile/date"
)

// SecurityID is the canonical identifier of a resolved security: the ISIN
// when one was ever observed, otherwise a synthetic key derived from the
// normalized description ("DESC:" prefix).
type SecurityID string

// descPrefix marks synthetic ids derived from a normalized description.
const descPrefix = "DESC:"

// ValuePoint is what one document said about one security.
type ValuePoint struct {
	Date         string    `json:"date,omitempty"` // ISO-8601 when parseable, opaque otherwise
	Nominal      *Quantity `json:"nominal,omitempty"`
	Price        *Quantity `json:"price,omitempty"`
	Valuation    *Quantity `json:"valuation,omitempty"`
	Currency     string    `json:"currency,omitempty"`
	MaturityDate string    `json:"maturity_date,omitempty"`
}

// CanonicalSecurity is the resolved, deduplicated representation of one
// real-world security across documents. It is created once, on the first
// unmatched observation, and only ever updated afterward: never deleted,
// never split.
type CanonicalSecurity struct {
	id           SecurityID
	isin         string // first known ISIN
	canonical    string // description of the first observation
	alternatives map[string]struct{}
	values       map[string]ValuePoint // document id -> observation
}

func newCanonicalSecurity(id SecurityID, rec SecurityRecord) *CanonicalSecurity {
	return &CanonicalSecurity{
		id:           id,
		isin:         rec.ISIN,
		canonical:    rec.Description,
		alternatives: make(map[string]struct{}),
		values:       make(map[string]ValuePoint),
	}
}

// ID returns the canonical identifier.
func (c *CanonicalSecurity) ID() SecurityID { return c.id }

// ISIN returns the first known ISIN, or "" when none was ever observed.
func (c *CanonicalSecurity) ISIN() string { return c.isin }

// Description returns the canonical description.
func (c *CanonicalSecurity) Description() string { return c.canonical }

// Alternatives returns all verbatim descriptions observed for this entity
// other than the canonical one, sorted.
func (c *CanonicalSecurity) Alternatives() []string {
	out := make([]string, 0, len(c.alternatives))
	for alt := range c.alternatives {
		out = append(out, alt)
	}
	slices.Sort(out)
	return out
}

// Documents returns the ids of all documents in which this entity was
// observed, sorted.
func (c *CanonicalSecurity) Documents() []string {
	out := make([]string, 0, len(c.values))
	for docID := range c.values {
		out = append(out, docID)
	}
	slices.Sort(out)
	return out
}

// Value returns the observation made by the given document.
func (c *CanonicalSecurity) Value(docID string) (ValuePoint, bool) {
	p, ok := c.values[docID]
	return p, ok
}

// FirstSeen returns the earliest parseable date at which this entity was
// observed. Observations with opaque dates are excluded: when every date is
// opaque, chronology is undefined and FirstSeen returns false.
func (c *CanonicalSecurity) FirstSeen() (date.Date, bool) {
	return c.seenBound(func(day, bound date.Date) bool { return day.Before(bound) })
}

// LastSeen returns the latest parseable date at which this entity was observed.
func (c *CanonicalSecurity) LastSeen() (date.Date, bool) {
	return c.seenBound(func(day, bound date.Date) bool { return day.After(bound) })
}

func (c *CanonicalSecurity) seenBound(better func(day, bound date.Date) bool) (date.Date, bool) {
	var bound date.Date
	found := false
	for _, p := range c.values {
		day, ok := date.ParseAny(p.Date)
		if !ok {
			continue
		}
		if !found || better(day, bound) {
			bound = day
			found = true
		}
	}
	return bound, found
}

// Valuations builds the chronological valuation series of this entity over
// all documents with a parseable date. Two documents on the same day keep the
// last ingested value.
func (c *CanonicalSecurity) Valuations() *date.History[float64] {
	var h date.History[float64]
	for _, docID := range c.Documents() {
		p := c.values[docID]
		if p.Valuation == nil {
			continue
		}
		day, ok := date.ParseAny(p.Date)
		if !ok {
			continue
		}
		h.Append(day, p.Valuation.AsFloat())
	}
	return &h
}

// matches reports whether the record's verbatim description is already known
// for this entity.
func (c *CanonicalSecurity) matches(description string) bool {
	if description == "" {
		return false
	}
	if description == c.canonical {
		return true
	}
	_, ok := c.alternatives[description]
	return ok
}

// absorb merges one record's identity signals into the entity.
func (c *CanonicalSecurity) absorb(rec SecurityRecord) {
	if c.isin == "" && rec.ISIN != "" {
		c.isin = rec.ISIN
	}
	if rec.Description == "" {
		return
	}
	if c.canonical == "" {
		// Entity was created from an ISIN-only record, adopt the first
		// description we see as the canonical one.
		c.canonical = rec.Description
		return
	}
	if rec.Description != c.canonical {
		c.alternatives[rec.Description] = struct{}{}
	}
}

// DocumentMeta is the headline data the store retains per ingested document,
// so comparisons and confidence scoring read from the store alone.
type DocumentMeta struct {
	ID             string
	Date           string // ISO-8601 when parseable, opaque otherwise
	Currency       string
	Client         *ClientInfo
	PortfolioValue *Quantity
	Allocation     map[string]AssetClass
}

// Day returns the parsed document date, or false when it is opaque.
func (m DocumentMeta) Day() (date.Date, bool) { return date.ParseAny(m.Date) }

// IngestReport summarizes one snapshot ingestion. Unresolvable records are
// skipped and counted here, not raised as errors.
type IngestReport struct {
	DocID   string
	Records int // records carried by the snapshot
	Created int // new canonical securities
	Matched int // records resolved to an existing entity
	Skipped int // records lacking both ISIN and description
}

// Store holds, per canonical entity, the history of values across document
// snapshots. It is the single mutable structure of the core.
//
// Ingestion both reads and writes the store (fuzzy matching races against
// entities created by a concurrent ingest), so all mutations run under one
// writer lock: snapshots enter strictly one at a time. Reads (Get, All,
// Compare) are safe to run concurrently once ingestion has completed. For
// parallel batches, ingest into private stores and fold them with Merge.
type Store struct {
	mu         sync.RWMutex
	securities map[SecurityID]*CanonicalSecurity
	docs       map[string]DocumentMeta
	resolver   *Resolver
}

// NewStore returns a new empty store using the default resolver.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		securities: make(map[SecurityID]*CanonicalSecurity),
		docs:       make(map[string]DocumentMeta),
		resolver:   NewResolver(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StoreOption configures a Store at construction time.
type StoreOption func(*Store)

// WithResolver replaces the default resolver.
func WithResolver(r *Resolver) StoreOption {
	return func(s *Store) { s.resolver = r }
}

// Get returns the canonical security for the given id.
func (s *Store) Get(id SecurityID) (*CanonicalSecurity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.securities[id]
	return sec, ok
}

// All returns every canonical security, sorted by id.
func (s *Store) All() []*CanonicalSecurity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allLocked()
}

func (s *Store) allLocked() []*CanonicalSecurity {
	out := make([]*CanonicalSecurity, 0, len(s.securities))
	for _, sec := range s.securities {
		out = append(out, sec)
	}
	slices.SortFunc(out, func(a, b *CanonicalSecurity) int {
		if a.id < b.id {
			return -1
		}
		if a.id > b.id {
			return 1
		}
		return 0
	})
	return out
}

// Len returns the number of canonical securities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.securities)
}

// Doc returns the headline metadata of an ingested document.
func (s *Store) Doc(docID string) (DocumentMeta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.docs[docID]
	return meta, ok
}

// Docs returns the ids of all ingested documents, sorted.
func (s *Store) Docs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.docs))
	for id := range s.docs {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Resolve maps a record to its canonical id without mutating the store.
// It returns false when no existing entity matches.
func (s *Store) Resolve(rec SecurityRecord) (SecurityID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolver.resolve(rec, s)
}

// Ingest enters one snapshot into the store. It is idempotent per document
// id: re-ingesting the same id replaces that document's entry in every
// affected entity without duplicating history. The snapshot itself is not
// mutated.
func (s *Store) Ingest(snap *DocumentSnapshot) (IngestReport, error) {
	if err := snap.Validate(); err != nil {
		return IngestReport{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Idempotence: forget everything the previous version of this document
	// said. Entities stay; only their per-document observations go.
	for _, sec := range s.securities {
		delete(sec.values, snap.ID)
	}

	// Normalize the document date to ISO-8601 when one of the extraction
	// layouts matches; keep it opaque otherwise.
	docDate := snap.Date
	if day, ok := date.ParseAny(snap.Date); ok {
		docDate = day.String()
	}

	s.docs[snap.ID] = DocumentMeta{
		ID:             snap.ID,
		Date:           docDate,
		Currency:       snap.Currency,
		Client:         snap.Client,
		PortfolioValue: snap.PortfolioValue,
		Allocation:     cloneAllocation(snap.Allocation),
	}

	report := IngestReport{DocID: snap.ID, Records: len(snap.Securities)}
	for _, rec := range snap.Securities {
		if !rec.Identifiable() {
			report.Skipped++
			continue
		}

		id, found := s.resolver.resolve(rec, s)
		var sec *CanonicalSecurity
		if found {
			sec = s.securities[id]
			sec.absorb(rec)
			report.Matched++
		} else {
			sec = newCanonicalSecurity(id, rec)
			s.securities[id] = sec
			report.Created++
		}

		sec.values[snap.ID] = ValuePoint{
			Date:         docDate,
			Nominal:      rec.Nominal,
			Price:        rec.Price,
			Valuation:    rec.Valuation,
			Currency:     rec.Currency,
			MaturityDate: rec.MaturityDate,
		}
	}
	return report, nil
}

// Merge folds src into dst, applying the same resolution rules pairwise:
// this is the reduction step for batches ingested in parallel into private
// stores. src is left untouched.
func Merge(dst, src *Store) error {
	src.mu.RLock()
	defer src.mu.RUnlock()
	dst.mu.Lock()
	defer dst.mu.Unlock()

	for docID, meta := range src.docs {
		if _, exists := dst.docs[docID]; exists {
			return fmt.Errorf("merge conflict: document %q present in both stores", docID)
		}
		dst.docs[docID] = meta
	}

	for _, sec := range src.allLocked() {
		rec := SecurityRecord{ISIN: sec.isin, Description: sec.canonical}
		id, found := dst.resolver.resolve(rec, dst)
		var target *CanonicalSecurity
		if found {
			target = dst.securities[id]
			target.absorb(rec)
		} else {
			target = newCanonicalSecurity(sec.id, rec)
			dst.securities[sec.id] = target
		}
		for alt := range sec.alternatives {
			if alt != target.canonical {
				target.alternatives[alt] = struct{}{}
			}
		}
		for docID, point := range sec.values {
			target.values[docID] = point
		}
	}
	return nil
}
