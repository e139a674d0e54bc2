package live

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/clima-risk/climadash/internal/metrics"
)

// Status is the lifecycle state of a live analysis session.
type Status int

const (
	StatusIdle Status = iota
	StatusStreaming
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusStreaming:
		return "streaming"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrStreamInterrupted marks a subscription that ended without delivering a
// terminal result or error event.
var ErrStreamInterrupted = errors.New("live: stream interrupted before a terminal event")

// Subscriber opens the server-push stream for one analysis run.
type Subscriber interface {
	Subscribe(ctx context.Context, lat, lon float64, date time.Time) (Stream, error)
}

// Session is the single live analysis session owned by the dashboard
// controller. At most one subscription is open at a time; starting a new
// run closes the previous subscription first. Log lines are appended in
// receipt order and never reordered; once a terminal event lands, later
// messages from the same (now closed) stream are discarded.
type Session struct {
	clock clockwork.Clock

	mu         sync.Mutex
	gen        uint64 // bumped by every Start and Reset
	status     Status
	log        []string
	result     *ResultPayload
	err        error
	stream     Stream // owner token: events from any other stream are stale
	startedAt  time.Time
	finishedAt time.Time
}

// NewSession creates an idle session. A nil clock means real time.
func NewSession(clock clockwork.Clock) *Session {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Session{clock: clock}
}

// Snapshot is a read-only view of the session for presentational use.
type Snapshot struct {
	Status     Status
	Log        []string
	Result     *ResultPayload
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	logCopy := make([]string, len(s.log))
	copy(logCopy, s.log)
	return Snapshot{
		Status:     s.status,
		Log:        logCopy,
		Result:     s.result,
		Err:        s.err,
		StartedAt:  s.startedAt,
		FinishedAt: s.finishedAt,
	}
}

// Start begins a new analysis run. Any open subscription is closed before
// the new one opens, and the log and prior result are cleared before the
// first message can arrive. A subscribe failure leaves the session Failed.
// The lock cannot be held across Subscribe, so each run carries a
// generation number; if another Start or Reset lands while the
// subscription is opening, the late stream is closed instead of attached,
// keeping at most one subscription open.
func (s *Session) Start(ctx context.Context, sub Subscriber, lat, lon float64, date time.Time) error {
	s.mu.Lock()
	if s.stream != nil {
		s.stream.Close()
		s.stream = nil
		metrics.LiveSessionsTotal.WithLabelValues("superseded").Inc()
	}
	s.gen++
	gen := s.gen
	s.log = nil
	s.result = nil
	s.err = nil
	s.status = StatusStreaming
	s.startedAt = s.clock.Now()
	s.finishedAt = time.Time{}
	s.mu.Unlock()

	stream, err := sub.Subscribe(ctx, lat, lon, date)
	if err != nil {
		s.mu.Lock()
		if s.gen == gen {
			s.status = StatusFailed
			s.err = err
			metrics.LiveSessionsTotal.WithLabelValues("failed").Inc()
		}
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		stream.Close()
		metrics.LiveSessionsTotal.WithLabelValues("superseded").Inc()
		return nil
	}
	s.stream = stream
	s.mu.Unlock()

	go s.consume(stream)
	return nil
}

func (s *Session) consume(stream Stream) {
	for ev := range stream.Events() {
		s.apply(stream, ev)
	}
	s.streamEnded(stream)
}

// apply folds one inbound event into the session. Events from a stream that
// is no longer the owner, closed by a terminal event or superseded by a
// newer Start, are dropped without mutating log or result.
func (s *Session) apply(stream Stream, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != stream {
		return
	}

	switch ev.Type {
	case EventLog:
		s.log = append(s.log, ev.Line)
	case EventResult:
		s.result = ev.Result
		s.status = StatusSucceeded
		s.finishedAt = s.clock.Now()
		s.stream = nil
		stream.Close()
		metrics.LiveSessionsTotal.WithLabelValues("succeeded").Inc()
	case EventError:
		s.err = ev.Err
		s.status = StatusFailed
		s.finishedAt = s.clock.Now()
		s.stream = nil
		stream.Close()
		metrics.LiveSessionsTotal.WithLabelValues("failed").Inc()
	}
}

// streamEnded handles the events channel closing. If the stream is still
// the owner, no terminal event arrived: that is a transport failure. The
// partial log is retained for display.
func (s *Session) streamEnded(stream Stream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != stream {
		return
	}
	s.status = StatusFailed
	if err := stream.Err(); err != nil {
		s.err = err
	} else {
		s.err = ErrStreamInterrupted
	}
	s.finishedAt = s.clock.Now()
	s.stream = nil
	metrics.LiveSessionsTotal.WithLabelValues("failed").Inc()
}

// Invalidate clears a completed result and its log. Live results are bound
// to the date and context active when they were produced; the controller
// calls this when the selected date changes under a Succeeded session.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusSucceeded {
		return
	}
	s.status = StatusIdle
	s.log = nil
	s.result = nil
	s.err = nil
}

// Reset returns the session to Idle, closing any open subscription and
// clearing log and result.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.stream != nil {
		s.stream.Close()
		s.stream = nil
	}
	s.status = StatusIdle
	s.log = nil
	s.result = nil
	s.err = nil
}
