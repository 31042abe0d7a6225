// Package dedupe enforces at-most-one result per (athlete, race) pair.
//
// CheckResults validates a single input batch and is what the engine calls.
// Deduper remembers pairs across ingestion calls so the service can reject
// a second submission before it ever reaches a batch.
package dedupe

import (
	"container/list"
	"context"
	"sync"

	"github.com/okian/harrier/internal/domain/model"
)

// CheckResults fails with *DuplicateResultError on the first pair that
// appears twice. It never drops or merges results.
func CheckResults(results []model.Result) error {
	seen := make(map[string]string, len(results))
	for _, r := range results {
		k := r.Key()
		if first, ok := seen[k]; ok {
			return &DuplicateResultError{
				AthleteID:      r.AthleteID,
				RaceID:         r.RaceID,
				FirstResultID:  first,
				SecondResultID: r.ID,
			}
		}
		seen[k] = r.ID
	}
	return nil
}

// CheckEntries is CheckResults over joined entries.
func CheckEntries(entries []model.Entry) error {
	results := make([]model.Result, len(entries))
	for i, e := range entries {
		results[i] = e.Result
	}
	return CheckResults(results)
}

// Deduper records seen (athlete, race) keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key string) bool
	// Unrecord forgets key, e.g. when the submission could not be queued.
	Unrecord(ctx context.Context, key string)
	Size() int64
}

type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // oldest at front
	maxSize int
}

// NewInMemoryDeduper creates a deduper. Unbounded unless WithMaxSize is set.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[key] = d.order.PushBack(key)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		d.order.Remove(el)
		delete(d.seen, key)
	}
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	front := d.order.Front()
	if front == nil {
		return
	}
	d.order.Remove(front)
	delete(d.seen, front.Value.(string))
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
