// Package store defines the document-database contract the catalog layer is
// built against, plus the batched fetch helper that works around the store's
// per-call item ceiling.
//
// # Overview
//
// The package exports:
//
//   - Store: the narrow collaborator interface (counts, predicate queries,
//     id lookups, inserts, partial updates with atomic increments, removals,
//     and full-replace upserts)
//   - Predicate / Cond / Ordering / QueryOptions: the query vocabulary
//   - FetchAll: transparent skip/limit batching above MaxQueryLimit
//
// Implementations live elsewhere: an in-memory store and a SQLite-backed
// store are provided under internal/ and wired through pkg/di. The catalog,
// stats, and search packages only ever see this interface, so the storage
// technology can be swapped without touching them.
//
// # Predicates
//
// Predicates are conjunctions of field conditions. Two operators cover every
// query the catalog issues: equality and case-insensitive substring. The
// substring operator is defined as a lowercase-normalized scan rather than
// a regular expression, so backends without a regex engine can implement it.
//
// # Consistency
//
// The store is the single source of truth; this layer keeps no authoritative
// in-process state. Queries with identical predicate and ordering must return
// records in a stable order so that FetchAll's skip/limit windows compose. No
// snapshot isolation is promised across windows: concurrent writes during a
// multi-batch fetch can skip or duplicate records at window boundaries.
package store
