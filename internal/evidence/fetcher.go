// Package evidence fetches access-controlled violation images into display
// slots. A slot is a position (a list row, a detail pane) that gets rebound
// to different violations over time; the fetcher guarantees that only the
// most recent request for a slot ever delivers into it, so a slow response
// for a violation that has scrolled away can never overwrite the slot's
// current occupant.
package evidence

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ImageSource is the subset of the API client the fetcher needs.
type ImageSource interface {
	FetchImage(ctx context.Context, violationID int) ([]byte, error)
}

// Result is delivered to the caller's callback when a fetch settles.
// Placeholder is true when the fetch failed and the slot should keep
// showing placeholder content; failures are never surfaced as errors.
type Result struct {
	SlotKey     string
	ViolationID int
	Data        []byte
	Placeholder bool
}

type slot struct {
	gen         uint64
	violationID int
	cancel      context.CancelFunc
}

// Fetcher performs slot-keyed, cancellable evidence fetches.
type Fetcher struct {
	source ImageSource
	logger *slog.Logger

	mu     sync.Mutex
	slots  map[string]*slot
	locks  map[string]*sync.Mutex
	gen    uint64
	closed bool
	wg     sync.WaitGroup
}

// NewFetcher creates a fetcher reading images from the given source.
func NewFetcher(source ImageSource, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		source: source,
		logger: logger,
		slots:  make(map[string]*slot),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Fetch requests the evidence image for violationID on behalf of slotKey.
// Any outstanding fetch for the same slot is cancelled first; its result is
// discarded even if it was already on its way. deliver runs on the fetch
// goroutine exactly once per surviving request, or not at all when the slot
// was rebound or torn down in the meantime. deliver holds the slot's
// delivery lock while it runs and must not call back into the fetcher for
// the same slot.
func (f *Fetcher) Fetch(ctx context.Context, slotKey string, violationID int, deliver func(Result)) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	lk, ok := f.locks[slotKey]
	if !ok {
		lk = &sync.Mutex{}
		f.locks[slotKey] = lk
	}
	f.mu.Unlock()

	// The delivery lock serializes binding installs against in-progress
	// deliveries for this slot: a rebind lands either before the old
	// worker's bound check or after its delivery finished, never between
	// the two. Without it a stale result could arrive after the fresh one.
	lk.Lock()
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		lk.Unlock()
		return
	}
	if prev, ok := f.slots[slotKey]; ok {
		prev.cancel()
	}
	f.gen++
	gen := f.gen
	cctx, cancel := context.WithCancel(ctx)
	f.slots[slotKey] = &slot{gen: gen, violationID: violationID, cancel: cancel}
	f.wg.Add(1)
	f.mu.Unlock()
	lk.Unlock()

	go func() {
		defer f.wg.Done()
		defer cancel()

		data, err := f.source.FetchImage(cctx, violationID)

		lk.Lock()
		defer lk.Unlock()
		f.mu.Lock()
		cur, ok := f.slots[slotKey]
		bound := ok && cur.gen == gen
		f.mu.Unlock()

		if !bound {
			f.logger.Debug("discarding stale evidence result",
				"slot", slotKey, "violation_id", violationID)
			return
		}

		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			f.logger.Warn("evidence fetch failed, using placeholder",
				"slot", slotKey, "violation_id", violationID, "err", err)
			deliver(Result{SlotKey: slotKey, ViolationID: violationID, Placeholder: true})
			return
		}

		deliver(Result{SlotKey: slotKey, ViolationID: violationID, Data: data})
	}()
}

// Release unbinds a slot and cancels its outstanding fetch, if any.
// Used when an item leaves the visible set without a replacement.
func (f *Fetcher) Release(slotKey string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.slots[slotKey]; ok {
		s.cancel()
		delete(f.slots, slotKey)
	}
}

// Wait blocks until every outstanding fetch has settled and delivered.
// Unlike CancelAll it cancels nothing and leaves the fetcher usable.
func (f *Fetcher) Wait() {
	f.wg.Wait()
}

// CancelAll tears down every slot and waits for in-flight workers to
// finish. No delivery happens after it returns, and the fetcher accepts
// no further Fetch calls.
func (f *Fetcher) CancelAll() {
	f.mu.Lock()
	f.closed = true
	for key, s := range f.slots {
		s.cancel()
		delete(f.slots, key)
	}
	f.mu.Unlock()
	f.wg.Wait()
}
