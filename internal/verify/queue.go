// Package verify tracks the local verification state of pending violations
// and submits approve/reject decisions optimistically.
//
// The queue is the single owner of client-side status: the backend only
// knows pending_verification, approved and rejected, while the queue layers
// in_flight and failed on top so the UI can render a submission the moment
// the reviewer acts, before the server has answered. Poll results pass
// through ReplaceAll, which reconciles the authoritative server list with
// whatever optimistic state is outstanding locally.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sraslabs/sras/internal/client"
	"github.com/sraslabs/sras/internal/events"
	"github.com/sraslabs/sras/internal/model"
)

// Submitter is the subset of the API client the queue needs.
type Submitter interface {
	SubmitDecision(ctx context.Context, violationID int, req *client.VerifyRequest) (*client.VerifyAck, error)
}

type entry struct {
	v model.Violation

	// status shadows v.Status with the client-side overlay states.
	status model.VerificationStatus

	// submitted is set the first time a decision submission starts for
	// this entry and never cleared. An entry that has been submitted no
	// longer tracks the server's pending copy verbatim on refresh.
	submitted bool
}

// Options configures a Queue.
type Options struct {
	// Actor is the reviewer's username, attached to published events.
	Actor string

	// OnChange fires after every state transition, outside the queue
	// lock. Optional.
	OnChange func()

	// Events receives decision lifecycle events. Default NoopPublisher.
	Events events.Publisher

	Logger *slog.Logger
}

// Queue is the optimistic verification state machine. All methods are safe
// for concurrent use; submissions for distinct violations run in parallel.
type Queue struct {
	submitter Submitter
	actor     string
	onChange  func()
	events    events.Publisher
	logger    *slog.Logger

	mu      sync.Mutex
	entries map[int]*entry
	order   []int
	wg      sync.WaitGroup
}

// NewQueue creates an empty queue submitting decisions through submitter.
func NewQueue(submitter Submitter, opts Options) *Queue {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Events == nil {
		opts.Events = &events.NoopPublisher{}
	}
	if opts.OnChange == nil {
		opts.OnChange = func() {}
	}
	return &Queue{
		submitter: submitter,
		actor:     opts.Actor,
		onChange:  opts.OnChange,
		events:    opts.Events,
		logger:    opts.Logger,
		entries:   make(map[int]*entry),
	}
}

// Item is a read-only snapshot of one queue entry.
type Item struct {
	Violation model.Violation
	Status    model.VerificationStatus
}

// Items returns a snapshot of the queue in display order.
func (q *Queue) Items() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Item, 0, len(q.order))
	for _, id := range q.order {
		e := q.entries[id]
		out = append(out, Item{Violation: e.v, Status: e.status})
	}
	return out
}

// Get returns the entry for a violation id, if tracked.
func (q *Queue) Get(id int) (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[id]
	if !ok {
		return Item{}, false
	}
	return Item{Violation: e.v, Status: e.status}, true
}

// Len returns the number of tracked violations.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// ReplaceAll reconciles the queue against an authoritative pending list
// from the server. Entries absent from the list are dropped, including
// in-flight ones, whose disappearance means the server finalized them.
// Surviving entries keep their optimistic status: in_flight stays
// in_flight, approved/rejected acks are never rolled back by a racing
// poll that still carried the old copy, and failed submissions reset to
// pending so the reviewer can retry. Ids the queue has never seen are
// appended in server order.
func (q *Queue) ReplaceAll(items []model.Violation) {
	q.mu.Lock()

	present := make(map[int]model.Violation, len(items))
	for _, v := range items {
		present[v.ID] = v
	}

	// Keep surviving entries in their existing display order.
	kept := q.order[:0]
	for _, id := range q.order {
		v, ok := present[id]
		if !ok {
			delete(q.entries, id)
			continue
		}
		e := q.entries[id]
		switch e.status {
		case model.StatusFailed:
			e.status = model.StatusPending
			e.v = v
		case model.StatusPending:
			// Fresh server copy wins for untouched entries.
			e.v = v
		}
		kept = append(kept, id)
		delete(present, id)
	}
	q.order = kept

	for _, v := range items {
		if _, ok := present[v.ID]; !ok {
			continue
		}
		q.entries[v.ID] = &entry{v: v, status: model.StatusPending}
		q.order = append(q.order, v.ID)
	}
	q.mu.Unlock()

	q.onChange()
}

// Apply records a decision for a violation and starts its submission.
// The entry moves to in_flight before Apply returns; the submission
// outcome is delivered exactly once on the returned 1-buffered channel,
// so the caller may block on it or walk away.
//
// Apply fast-fails with ErrNotFound when the violation is not tracked and
// ErrConflict when a submission is already in flight or the entry has
// been finalized.
func (q *Queue) Apply(ctx context.Context, id int, kind model.DecisionKind, notes string) (<-chan error, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown decision %q", client.ErrValidation, kind)
	}

	q.mu.Lock()
	e, ok := q.entries[id]
	if !ok {
		q.mu.Unlock()
		return nil, fmt.Errorf("violation %d: %w", id, client.ErrNotFound)
	}
	switch e.status {
	case model.StatusInFlight:
		q.mu.Unlock()
		return nil, fmt.Errorf("violation %d: submission already in flight: %w", id, client.ErrConflict)
	case model.StatusApproved, model.StatusRejected:
		q.mu.Unlock()
		return nil, fmt.Errorf("violation %d already %s: %w", id, e.status, client.ErrConflict)
	}
	e.status = model.StatusInFlight
	e.submitted = true
	q.mu.Unlock()

	q.onChange()
	q.logger.Info("submitting decision",
		"violation_id", id, "decision", kind.String(), "actor", q.actor)

	done := make(chan error, 1)
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		done <- q.submit(ctx, id, kind, notes)
	}()
	return done, nil
}

func (q *Queue) submit(ctx context.Context, id int, kind model.DecisionKind, notes string) error {
	ack, err := q.submitter.SubmitDecision(ctx, id, &client.VerifyRequest{
		Status: kind.Status(),
		Notes:  notes,
	})

	q.mu.Lock()
	e, tracked := q.entries[id]
	if err != nil {
		if tracked {
			// Retry-eligible: the next refresh resets failed to pending,
			// and Apply accepts failed entries directly.
			e.status = model.StatusFailed
		}
		q.mu.Unlock()

		q.onChange()
		q.logger.Warn("decision submission failed",
			"violation_id", id, "decision", kind.String(), "err", err)
		_ = q.events.Publish(ctx, events.TopicDecisionFailed, events.DecisionFailed{
			ViolationID: id,
			Decision:    kind.String(),
			Error:       err.Error(),
		})
		return err
	}

	var verified model.Violation
	if tracked {
		e.status = kind.Status()
		if ack.Violation != nil {
			e.v = *ack.Violation
		}
		verified = e.v
	} else if ack.Violation != nil {
		verified = *ack.Violation
	}
	q.mu.Unlock()

	q.onChange()
	q.logger.Info("decision recorded",
		"violation_id", id, "decision", kind.String(), "actor", q.actor)

	topic := events.TopicViolationApproved
	if kind == model.DecisionReject {
		topic = events.TopicViolationRejected
	}
	_ = q.events.Publish(ctx, topic, events.ViolationVerified{
		Violation: &verified,
		Decision:  kind.String(),
		Notes:     notes,
		Actor:     q.actor,
	})
	return nil
}

// Wait blocks until all outstanding submissions have settled. Meant for
// shutdown; new Apply calls during Wait are not prevented.
func (q *Queue) Wait() {
	q.wg.Wait()
}
