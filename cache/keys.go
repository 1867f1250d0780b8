package cache

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/goliatone/go-catalog-cache/store"
)

// KeySeparator delimits cache key segments.
const KeySeparator = "::"

// maxKeyLength bounds generated keys. Owner ids and keywords are caller
// supplied, so an oversized tail is collapsed into a stable hash instead of
// growing the key without limit.
const maxKeyLength = 120

// Key builds a cache key from a method name and string parts. Keys are
// deterministic across processes: equal inputs always produce equal keys.
func Key(method string, parts ...string) string {
	if len(parts) == 0 {
		return method
	}
	key := method + KeySeparator + strings.Join(parts, KeySeparator)
	if len(key) <= maxKeyLength {
		return key
	}
	tail := key[len(method):]
	return fmt.Sprintf("%s%sx%016x", method, KeySeparator, xxhash.Sum64String(tail))
}

// PredicatePart renders a predicate as a key segment: equality conditions as
// field=value, substring conditions as field~value, joined by '&'.
func PredicatePart(pred store.Predicate) string {
	if len(pred) == 0 {
		return "all"
	}
	parts := make([]string, len(pred))
	for i, cond := range pred {
		op := "="
		if cond.Op == store.OpContains {
			op = "~"
		}
		parts[i] = fmt.Sprintf("%s%s%v", cond.Field, op, cond.Value)
	}
	return strings.Join(parts, "&")
}

// OrderingPart renders an ordering as a key segment.
func OrderingPart(ord *store.Ordering) string {
	if ord == nil {
		return "unordered"
	}
	if ord.Desc {
		return ord.Field + ":desc"
	}
	return ord.Field + ":asc"
}
