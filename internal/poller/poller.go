// Package poller drives the pending-violation poll on a fixed interval.
//
// The scheduler owns a single background goroutine; polls run synchronously
// inside it, which is what guarantees at most one ListPending call in
// flight. Ticks or manual triggers that arrive while a poll is running are
// drained and dropped, never queued.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/sraslabs/sras/internal/events"
	"github.com/sraslabs/sras/internal/idgen"
	"github.com/sraslabs/sras/internal/model"
)

// Lister is the subset of the API client the scheduler needs.
type Lister interface {
	ListPending(ctx context.Context) ([]model.Violation, error)
}

// State is the scheduler lifecycle state.
type State int

const (
	StateStopped State = iota
	StateRunning
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	}
	return "stopped"
}

// Options configures a Scheduler.
type Options struct {
	// Interval between polls. Default 30s.
	Interval time.Duration

	// Sessions supplies the generation counter used to discard poll
	// results that arrive after a logout or re-login.
	Sessions interface{ Generation() uint64 }

	// Apply receives each successful poll result (the authoritative
	// pending list). Required.
	Apply func([]model.Violation)

	// OnError observes poll failures. The schedule is unaffected by
	// failures; the next tick polls again. Optional.
	OnError func(error)

	// Events receives poll lifecycle events. Default NoopPublisher.
	Events events.Publisher

	Logger *slog.Logger
}

type command int

const (
	cmdPause command = iota
	cmdResume
)

// Scheduler polls ListPending on a timer with an immediate first poll.
// Lifecycle: Stopped -> Running <-> Paused -> Stopped. A stopped scheduler
// cannot be restarted; build a new one.
type Scheduler struct {
	lister   Lister
	interval time.Duration
	sessions interface{ Generation() uint64 }
	apply    func([]model.Violation)
	onError  func(error)
	events   events.Publisher
	logger   *slog.Logger

	mu      sync.Mutex
	state   State
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	ctrl     chan command
	kick     chan struct{}
	paused   atomic.Bool
	inFlight atomic.Bool
}

// New creates a scheduler. It does not start polling until Start.
func New(lister Lister, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Events == nil {
		opts.Events = &events.NoopPublisher{}
	}
	if opts.OnError == nil {
		opts.OnError = func(error) {}
	}
	return &Scheduler{
		lister:   lister,
		interval: opts.Interval,
		sessions: opts.Sessions,
		apply:    opts.Apply,
		onError:  opts.OnError,
		events:   opts.Events,
		logger:   opts.Logger,
		ctrl:     make(chan command, 8),
		kick:     make(chan struct{}, 1),
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start begins polling: one immediate poll, then one per interval.
// Returns false if the scheduler was already started (including after Stop).
func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return false
	}
	s.started = true
	s.state = StateRunning

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
	return true
}

// Pause cancels the pending timer without losing the schedule. Ticks that
// already fired are suppressed; Resume reschedules from a fresh interval.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return
	}
	s.state = StatePaused
	s.paused.Store(true)
	s.ctrl <- cmdPause
}

// Resume restarts the interval from zero. Missed ticks are not replayed.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePaused {
		return
	}
	s.state = StateRunning
	s.paused.Store(false)
	s.ctrl <- cmdResume
}

// TriggerNow requests an immediate poll, bypassing the timer but not the
// in-flight guard: while a poll is running the request is dropped, not
// queued. Returns false when dropped or when the scheduler is not running.
func (s *Scheduler) TriggerNow() bool {
	s.mu.Lock()
	stopped := !s.started || s.state == StateStopped
	s.mu.Unlock()
	if stopped || s.inFlight.Load() {
		return false
	}
	select {
	case s.kick <- struct{}{}:
		return true
	default:
		return false
	}
}

// Stop cancels the timer permanently and waits for any in-flight poll to
// finish. No callback fires after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started || s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	s.state = StateStopped
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	tickCh := ticker.C

	// Immediate poll on start.
	s.pollOnce(ctx)
	s.drain(tickCh)

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-s.ctrl:
			switch cmd {
			case cmdPause:
				ticker.Stop()
				tickCh = nil
			case cmdResume:
				ticker = time.NewTicker(s.interval)
				tickCh = ticker.C
			}
		case <-s.kick:
			s.pollOnce(ctx)
			s.drain(tickCh)
		case <-tickCh:
			if s.paused.Load() {
				continue
			}
			s.pollOnce(ctx)
			s.drain(tickCh)
		}
	}
}

// drain discards triggers that accumulated while a poll was in flight,
// so they are skipped rather than replayed back to back.
func (s *Scheduler) drain(tickCh <-chan time.Time) {
	for {
		select {
		case <-s.kick:
		case <-tickCh:
		default:
			return
		}
	}
}

func (s *Scheduler) pollOnce(ctx context.Context) {
	s.inFlight.Store(true)
	defer s.inFlight.Store(false)

	reqID, _ := idgen.Generate()

	var gen uint64
	if s.sessions != nil {
		gen = s.sessions.Generation()
	}

	items, err := s.lister.ListPending(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("poll failed", "request_id", reqID, "err", err)
		_ = s.events.Publish(ctx, events.TopicPollFailed, events.PollFailed{
			Error:     err.Error(),
			RequestID: reqID,
		})
		s.onError(err)
		return
	}

	// The session rotated or was cleared while this poll was in flight;
	// its result no longer represents the current login.
	if s.sessions != nil && s.sessions.Generation() != gen {
		s.logger.Info("discarding poll result after session change", "request_id", reqID)
		return
	}

	s.apply(items)
	s.logger.Debug("poll completed", "request_id", reqID, "count", len(items))
	_ = s.events.Publish(ctx, events.TopicPollCompleted, events.PollCompleted{
		Count:     len(items),
		RequestID: reqID,
	})
}
