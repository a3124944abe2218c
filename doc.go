// Package reconcile turns noisy, independently extracted portfolio document
// snapshots into a consistent, auditable, cross-time view of holdings.
//
// Each snapshot is the structured output of an upstream extraction pass over
// one source document. Extraction is unreliable: a security may carry its
// ISIN in one document and only an OCR-degraded free-text description in
// another, and stated totals routinely disagree with the sum of their parts.
//
// The core functionalities include:
//   - Entity Resolution: mapping every incoming security record to a single
//     canonical entity, by ISIN when available and by exact, normalized or
//     fuzzy description matching otherwise.
//   - Temporal Store: the per-entity history of values across documents,
//     idempotent per document id and persistable as JSONL.
//   - Reconciliation: validating a snapshot's internal arithmetic (portfolio
//     total vs. sum of securities, asset-class allocations, line-item
//     nominal x price) and proposing explicit corrections.
//   - Comparison: deltas, gainers/losers rankings and annualized performance
//     between any two ingested documents.
//   - Confidence Scoring: a 0-1 score for a snapshot's headline numbers
//     derived from corroboration between independent figures.
//
// This package serves as the foundational logic for the `rcs` command-line
// tool. All findings are reported as issues, never raised; snapshots handed
// to the core are immutable and corrections must be applied explicitly.
package reconcile
