/*
Package poll implements the message polling scheduler.

The Scheduler keeps at most one poll session alive. A session fetches the messages of
the room it was started for once immediately and then on every tick of its interval.
Each session carries a generation number; results are delivered with it so the
receiver can drop results of a session that has since been stopped.
*/
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"watchparty/internal/app/api"
	"watchparty/internal/pkg/logx"
	"watchparty/internal/pkg/metrics"
)

// DefaultInterval is the period between two fetches of a session.
const DefaultInterval = 500 * time.Millisecond

// FetchFunc lists the messages of a room.
type FetchFunc func(ctx context.Context, roomID int) ([]api.Message, error)

// Result is one successful fetch.
type Result struct {
	Session  uint64
	RoomID   int
	Messages []api.Message
}

// Sink receives results. It is called from scheduler goroutines and must not block for long.
type Sink func(Result)

// Scheduler drives the poll sessions. It is safe for concurrent use.
type Scheduler struct {
	fetch    FetchFunc
	sink     Sink
	interval time.Duration
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	// ctx is cancelled by Close; in-flight fetches observe it, Stop does not.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards everything below.
	mu         sync.Mutex
	generation uint64
	active     bool
	roomID     int
	ticker     *time.Ticker
	stopChan   chan struct{}
	liveTimers int
	closed     bool
}

// New creates an idle Scheduler. A non-positive interval selects DefaultInterval.
func New(fetch FetchFunc, sink Sink, interval time.Duration, m *metrics.Metrics) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if m == nil {
		m = metrics.Nop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		fetch:    fetch,
		sink:     sink,
		interval: interval,
		metrics:  m,
		logger:   logx.Component("poll"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start cancels any live session, then starts one for roomID.
func (s *Scheduler) Start(roomID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.stopLocked()

	s.generation++
	s.active = true
	s.roomID = roomID
	s.ticker = time.NewTicker(s.interval)
	s.stopChan = make(chan struct{})
	s.liveTimers++
	s.metrics.ActivePolls.Set(1)

	gen := s.generation
	s.wg.Add(1)
	go s.run(gen, roomID, s.ticker.C, s.stopChan)

	s.logger.Debug().Int("room_id", roomID).Uint64("session", gen).Msg("Polling started.")
}

// Stop cancels the live session, if any. An in-flight fetch is not aborted; its result
// is discarded.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if !s.active {
		return
	}

	s.ticker.Stop()
	close(s.stopChan)
	s.liveTimers--

	s.logger.Debug().Int("room_id", s.roomID).Uint64("session", s.generation).Msg("Polling stopped.")

	s.active = false
	s.roomID = 0
	s.ticker = nil
	s.stopChan = nil
	s.metrics.ActivePolls.Set(0)
}

// Refresh issues one extra fetch for the live session. It reports false when idle.
func (s *Scheduler) Refresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return false
	}

	gen, roomID := s.generation, s.roomID
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.tick(gen, roomID)
	}()
	return true
}

// Active returns the room of the live session.
func (s *Scheduler) Active() (roomID int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID, s.active
}

// Session returns the generation of the live session, or 0 when idle.
func (s *Scheduler) Session() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return 0
	}
	return s.generation
}

// IsCurrent reports whether session is the live session.
func (s *Scheduler) IsCurrent(session uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active && s.generation == session
}

// LiveTimers returns the number of running tickers: 0 or 1.
func (s *Scheduler) LiveTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveTimers
}

// Close stops polling, aborts in-flight fetches and waits for every goroutine to finish.
// The Scheduler cannot be restarted.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.stopLocked()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// run is the loop of one session.
func (s *Scheduler) run(gen uint64, roomID int, ticks <-chan time.Time, stop <-chan struct{}) {
	defer s.wg.Done()

	s.tick(gen, roomID)

	for {
		select {
		case <-stop:
			return
		case <-s.ctx.Done():
			return
		case <-ticks:
			s.tick(gen, roomID)
		}
	}
}

// tick performs one fetch for session gen and hands the result to the sink if the
// session is still live when the fetch completes.
func (s *Scheduler) tick(gen uint64, roomID int) {
	if !s.IsCurrent(gen) {
		return
	}

	msgs, err := s.fetch(s.ctx, roomID)
	if err != nil {
		s.metrics.PollFetches.WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Int("room_id", roomID).Uint64("session", gen).Msg("Message fetch failed; retrying on next tick.")
		return
	}

	if !s.IsCurrent(gen) {
		s.metrics.PollFetches.WithLabelValues("stale").Inc()
		s.metrics.StaleDiscards.Inc()
		s.logger.Debug().Int("room_id", roomID).Uint64("session", gen).Msg("Discarding result of a stopped session.")
		return
	}

	s.metrics.PollFetches.WithLabelValues("ok").Inc()
	if s.sink != nil {
		s.sink(Result{Session: gen, RoomID: roomID, Messages: msgs})
	}
}
