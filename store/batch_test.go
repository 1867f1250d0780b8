package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

// queryStore is a fake store that serves Query from a fixed ordered slice
// and records every window it was asked for.
type queryStore struct {
	mu      sync.Mutex
	docs    []Doc
	windows []QueryOptions
	failAt  int // 1-based call index to fail on, 0 means never
	calls   int
	err     error
}

func newQueryStore(n int) *queryStore {
	s := &queryStore{}
	for i := 0; i < n; i++ {
		s.docs = append(s.docs, Doc{FieldID: fmt.Sprintf("doc-%03d", i)})
	}
	return s
}

func (s *queryStore) Query(ctx context.Context, collection string, pred Predicate, opts QueryOptions) ([]Doc, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.windows = append(s.windows, opts)
	s.mu.Unlock()

	if s.failAt != 0 && call == s.failAt {
		return nil, s.err
	}

	limit := opts.Limit
	if limit <= 0 || limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}
	if opts.Skip >= len(s.docs) {
		return nil, nil
	}
	end := opts.Skip + limit
	if end > len(s.docs) {
		end = len(s.docs)
	}
	return s.docs[opts.Skip:end], nil
}

func (s *queryStore) Count(ctx context.Context, collection string, pred Predicate) (int, error) {
	return len(s.docs), nil
}

func (s *queryStore) GetByID(ctx context.Context, collection, id string) (Doc, error) {
	return nil, ErrNotFound
}

func (s *queryStore) GetByIDs(ctx context.Context, collection string, ids []string) ([]Doc, error) {
	return nil, nil
}

func (s *queryStore) Insert(ctx context.Context, collection string, doc Doc) (string, error) {
	return "", errors.New("not implemented")
}

func (s *queryStore) Update(ctx context.Context, collection, id string, fields Doc) error {
	return errors.New("not implemented")
}

func (s *queryStore) Remove(ctx context.Context, collection, id string) error {
	return errors.New("not implemented")
}

func (s *queryStore) RemoveWhere(ctx context.Context, collection string, pred Predicate) (int, error) {
	return 0, errors.New("not implemented")
}

func (s *queryStore) Upsert(ctx context.Context, collection, id string, doc Doc) error {
	return errors.New("not implemented")
}

func TestFetchAll_SingleWindow(t *testing.T) {
	s := newQueryStore(50)

	docs, err := FetchAll(context.Background(), s, "things", nil, nil, 15)
	if err != nil {
		t.Fatalf("FetchAll() failed: %v", err)
	}
	if len(docs) != 15 {
		t.Fatalf("expected 15 docs, got %d", len(docs))
	}
	if s.calls != 1 {
		t.Errorf("expected 1 query, got %d", s.calls)
	}
	if got := s.windows[0]; got.Skip != 0 || got.Limit != MaxQueryLimit {
		t.Errorf("unexpected window: skip=%d limit=%d", got.Skip, got.Limit)
	}
}

func TestFetchAll_MultipleWindows(t *testing.T) {
	s := newQueryStore(100)

	docs, err := FetchAll(context.Background(), s, "things", nil, nil, 45)
	if err != nil {
		t.Fatalf("FetchAll() failed: %v", err)
	}
	if len(docs) != 45 {
		t.Fatalf("expected 45 docs, got %d", len(docs))
	}
	if s.calls != 3 {
		t.Errorf("expected 3 queries for limit 45, got %d", s.calls)
	}

	// Windows run concurrently, so collect skips without assuming order.
	skips := map[int]bool{}
	for _, w := range s.windows {
		if w.Limit != MaxQueryLimit {
			t.Errorf("window limit should be %d, got %d", MaxQueryLimit, w.Limit)
		}
		skips[w.Skip] = true
	}
	for _, want := range []int{0, 20, 40} {
		if !skips[want] {
			t.Errorf("missing window at skip %d", want)
		}
	}

	// Concatenation must be in window order regardless of completion order.
	for i, doc := range docs {
		want := fmt.Sprintf("doc-%03d", i)
		if got := doc.String(FieldID); got != want {
			t.Fatalf("docs[%d] = %q, want %q", i, got, want)
		}
	}
}

func TestFetchAll_ShortResult(t *testing.T) {
	// Only 23 records exist; asking for 45 must return all 23, un-padded.
	s := newQueryStore(23)

	docs, err := FetchAll(context.Background(), s, "things", nil, nil, 45)
	if err != nil {
		t.Fatalf("FetchAll() failed: %v", err)
	}
	if len(docs) != 23 {
		t.Errorf("expected 23 docs, got %d", len(docs))
	}
}

func TestFetchAll_ZeroLimit(t *testing.T) {
	s := newQueryStore(10)

	docs, err := FetchAll(context.Background(), s, "things", nil, nil, 0)
	if err != nil {
		t.Fatalf("FetchAll() failed: %v", err)
	}
	if docs != nil {
		t.Errorf("expected nil result for zero limit, got %d docs", len(docs))
	}
	if s.calls != 0 {
		t.Errorf("expected no queries for zero limit, got %d", s.calls)
	}
}

func TestFetchAll_SubQueryFailure(t *testing.T) {
	s := newQueryStore(100)
	s.failAt = 2
	s.err = errors.New("connection reset")

	_, err := FetchAll(context.Background(), s, "things", nil, nil, 60)
	if err == nil {
		t.Fatal("expected FetchAll() to fail when a sub-query fails")
	}
	if !errors.Is(err, s.err) {
		t.Errorf("expected the sub-query error, got %v", err)
	}
}
