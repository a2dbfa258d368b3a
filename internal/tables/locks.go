package tables

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// bucketLocks serializes work per restaurant and date. Entries are dropped
// once no goroutine holds or waits on them.
type bucketLocks struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	mu   sync.Mutex
	refs int
}

func newBucketLocks() *bucketLocks {
	return &bucketLocks{buckets: make(map[string]*bucket)}
}

func bucketKey(restaurantID uuid.UUID, date string) string {
	return restaurantID.String() + "|" + date
}

// lock acquires every key in sorted order and returns the matching unlock.
func (b *bucketLocks) lock(keys ...string) func() {
	unique := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, k)
	}
	sort.Strings(unique)

	held := make([]*bucket, 0, len(unique))
	for _, k := range unique {
		b.mu.Lock()
		bk, ok := b.buckets[k]
		if !ok {
			bk = &bucket{}
			b.buckets[k] = bk
		}
		bk.refs++
		b.mu.Unlock()

		bk.mu.Lock()
		held = append(held, bk)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()

			b.mu.Lock()
			held[i].refs--
			if held[i].refs == 0 {
				delete(b.buckets, unique[i])
			}
			b.mu.Unlock()
		}
	}
}
