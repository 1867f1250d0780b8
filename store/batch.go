package store

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// FetchAll retrieves up to totalLimit records even when that exceeds the
// store's per-call ceiling. It issues ceil(totalLimit/MaxQueryLimit) queries
// in parallel, each covering one skip/limit window over the same predicate
// and ordering, then concatenates the windows in order and truncates to
// totalLimit.
//
// The concatenation equals what a single unbounded query would return as long
// as the store yields a stable order for identical predicate+ordering across
// the sub-queries. Concurrent writes racing a multi-batch fetch can shift
// records across window boundaries; that is an accepted limitation, not
// something this function detects or repairs.
//
// A short (or empty) final window simply means fewer records exist; the
// result is returned un-padded. Any sub-query failure fails the whole fetch.
func FetchAll(ctx context.Context, s Store, collection string, pred Predicate, ord *Ordering, totalLimit int) ([]Doc, error) {
	if totalLimit <= 0 {
		return nil, nil
	}

	batches := (totalLimit + MaxQueryLimit - 1) / MaxQueryLimit
	windows := make([][]Doc, batches)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < batches; i++ {
		g.Go(func() error {
			docs, err := s.Query(gctx, collection, pred, QueryOptions{
				OrderBy: ord,
				Skip:    i * MaxQueryLimit,
				Limit:   MaxQueryLimit,
			})
			if err != nil {
				return err
			}
			windows[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Doc
	for _, w := range windows {
		out = append(out, w...)
	}
	if len(out) > totalLimit {
		out = out[:totalLimit]
	}
	return out, nil
}
