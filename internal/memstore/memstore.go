// Package memstore provides an in-memory Store implementation. It backs the
// default DI container configuration, the example program, and most tests.
// Semantics mirror the SQLite adapter: normalized int64 numbers, stable
// insertion order for unordered queries, and the per-call query ceiling.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-catalog-cache/store"
)

// Store is an in-memory document store safe for concurrent use.
type Store struct {
	collections *xsync.MapOf[string, *collection]
}

type collection struct {
	mu   sync.RWMutex
	docs map[string]store.Doc
	seq  map[string]int64 // insertion order, the fallback sort key
	next int64
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{collections: xsync.NewMapOf[string, *collection]()}
}

func (s *Store) coll(name string) *collection {
	c, _ := s.collections.LoadOrCompute(name, func() *collection {
		return &collection{docs: make(map[string]store.Doc), seq: make(map[string]int64)}
	})
	return c
}

// Count implements store.Store.
func (s *Store) Count(ctx context.Context, name string, pred store.Predicate) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c := s.coll(name)
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, doc := range c.docs {
		if matches(doc, pred) {
			n++
		}
	}
	return n, nil
}

// Query implements store.Store. Without an explicit ordering, records come
// back in insertion order so repeated calls compose under skip/limit.
func (s *Store) Query(ctx context.Context, name string, pred store.Predicate, opts store.QueryOptions) ([]store.Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := s.coll(name)
	c.mu.RLock()

	// Clone and snapshot the sequence numbers under the lock so the sort
	// below never touches the live maps while a writer holds them.
	matched := make([]store.Doc, 0)
	seq := make(map[string]int64)
	for id, doc := range c.docs {
		if matches(doc, pred) {
			matched = append(matched, doc.Clone())
			seq[id] = c.seq[id]
		}
	}
	c.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return seq[matched[i].String(store.FieldID)] < seq[matched[j].String(store.FieldID)]
	})
	if ord := opts.OrderBy; ord != nil {
		sort.SliceStable(matched, func(i, j int) bool {
			less := lessValue(matched[i][ord.Field], matched[j][ord.Field])
			if ord.Desc {
				return !less && !equalValue(matched[i][ord.Field], matched[j][ord.Field])
			}
			return less
		})
	}

	limit := opts.Limit
	if limit <= 0 || limit > store.MaxQueryLimit {
		limit = store.MaxQueryLimit
	}
	skip := opts.Skip
	if skip < 0 {
		skip = 0
	}
	if skip >= len(matched) {
		return nil, nil
	}
	matched = matched[skip:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// GetByID implements store.Store.
func (s *Store) GetByID(ctx context.Context, name, id string) (store.Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := s.coll(name)
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return doc.Clone(), nil
}

// GetByIDs implements store.Store. Missing ids are skipped.
func (s *Store) GetByIDs(ctx context.Context, name string, ids []string) ([]store.Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := s.coll(name)
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]store.Doc, 0, len(ids))
	for _, id := range ids {
		if doc, ok := c.docs[id]; ok {
			out = append(out, doc.Clone())
		}
	}
	return out, nil
}

// Insert implements store.Store.
func (s *Store) Insert(ctx context.Context, name string, doc store.Doc) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := s.coll(name)
	c.mu.Lock()
	defer c.mu.Unlock()

	id := doc.String(store.FieldID)
	if id == "" {
		id = uuid.New().String()
	}
	stored := normalize(doc)
	stored[store.FieldID] = id
	c.docs[id] = stored
	c.seq[id] = c.next
	c.next++
	return id, nil
}

// Update implements store.Store.
func (s *Store) Update(ctx context.Context, name, id string, fields store.Doc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c := s.coll(name)
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok := c.docs[id]
	if !ok {
		return store.ErrNotFound
	}
	for k, v := range fields {
		if k == store.FieldID {
			continue
		}
		if inc, ok := v.(store.IncValue); ok {
			doc[k] = doc.Int64(k) + inc.Delta
			continue
		}
		doc[k] = normalizeValue(v)
	}
	return nil
}

// Remove implements store.Store.
func (s *Store) Remove(ctx context.Context, name, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c := s.coll(name)
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.docs[id]; !ok {
		return store.ErrNotFound
	}
	delete(c.docs, id)
	delete(c.seq, id)
	return nil
}

// RemoveWhere implements store.Store.
func (s *Store) RemoveWhere(ctx context.Context, name string, pred store.Predicate) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c := s.coll(name)
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for id, doc := range c.docs {
		if matches(doc, pred) {
			delete(c.docs, id)
			delete(c.seq, id)
			n++
		}
	}
	return n, nil
}

// Upsert implements store.Store. The stored record is fully replaced.
func (s *Store) Upsert(ctx context.Context, name, id string, doc store.Doc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c := s.coll(name)
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := normalize(doc)
	stored[store.FieldID] = id
	if _, ok := c.docs[id]; !ok {
		c.seq[id] = c.next
		c.next++
	}
	c.docs[id] = stored
	return nil
}

func matches(doc store.Doc, pred store.Predicate) bool {
	for _, cond := range pred {
		switch cond.Op {
		case store.OpEq:
			if !equalValue(doc[cond.Field], normalizeValue(cond.Value)) {
				return false
			}
		case store.OpContains:
			sub, _ := cond.Value.(string)
			field, ok := doc[cond.Field].(string)
			if !ok || !strings.Contains(strings.ToLower(field), strings.ToLower(sub)) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func normalize(doc store.Doc) store.Doc {
	out := make(store.Doc, len(doc))
	for k, v := range doc {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return v
	}
}

func equalValue(a, b any) bool {
	an, aok := asInt64(a)
	bn, bok := asInt64(b)
	if aok && bok {
		return an == bn
	}
	return a == b
}

func lessValue(a, b any) bool {
	an, aok := asInt64(a)
	bn, bok := asInt64(b)
	if aok && bok {
		return an < bn
	}
	as, _ := a.(string)
	bs, _ := b.(string)
	return as < bs
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
