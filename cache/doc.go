// Package cache provides the in-process read-through layer in front of the
// store-persisted statistics summary, plus deterministic key building.
//
// # Overview
//
// Two pieces are exported:
//
//   - Service: read-through GetOrFetch plus explicit Delete for invalidation
//   - Key / PredicatePart / OrderingPart: stable cache key construction
//
// The default Service implementation wraps sturdyc (internal/cacheinfra) and
// inherits its stampede protection and optional early refresh. The stats
// layer deletes its key after every recompute, so a mutation is visible to
// the next read within the same process immediately and to other processes
// after the entry's TTL.
//
// # Key construction
//
// Keys are built from a method name and plain string segments. Unlike a
// reflection-based serializer, the inputs here are already strings (owner
// ids, keywords, rendered predicates), so key building is a join plus a
// length guard: tails longer than the key limit are collapsed into an
// xxhash digest, keeping keys bounded while staying deterministic across
// processes.
//
// # Consistency
//
// This cache is deliberately eventually consistent. A read racing a
// concurrent mutation elsewhere may return a summary computed before that
// mutation settled; the design goal is cheap, usually-correct reads, not
// linearizability. The store remains the single source of truth and every
// cached value can be recomputed from it.
package cache
