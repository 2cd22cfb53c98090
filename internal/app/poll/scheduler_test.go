package poll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchparty/internal/app/api"
	"watchparty/internal/pkg/metrics"
)

const testInterval = 10 * time.Millisecond

// fakeFetcher counts fetches per room and can fail or block on demand.
type fakeFetcher struct {
	mu      sync.Mutex
	counts  map[int]int
	fail    bool
	gate    chan struct{}
	started chan int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{counts: make(map[int]int)}
}

func (f *fakeFetcher) fetch(ctx context.Context, roomID int) ([]api.Message, error) {
	f.mu.Lock()
	f.counts[roomID]++
	fail, gate, started := f.fail, f.gate, f.started
	f.mu.Unlock()

	if started != nil {
		select {
		case started <- roomID:
		default:
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, errors.New("boom")
	}
	return []api.Message{{ID: roomID, Author: "a", Body: "b"}}, nil
}

func (f *fakeFetcher) count(roomID int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[roomID]
}

func (f *fakeFetcher) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

type collector struct {
	mu      sync.Mutex
	results []Result
}

func (c *collector) sink(r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

func (c *collector) rooms() map[int]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int]int)
	for _, r := range c.results {
		out[r.RoomID]++
	}
	return out
}

func TestScheduler_StartFetchesImmediatelyThenPeriodically(t *testing.T) {
	f := newFakeFetcher()
	c := &collector{}
	s := New(f.fetch, c.sink, time.Hour, nil)
	defer s.Close()

	s.Start(3)
	assert.Eventually(t, func() bool { return c.len() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 1, f.count(3))

	fast := New(f.fetch, c.sink, testInterval, nil)
	defer fast.Close()
	fast.Start(4)
	assert.Eventually(t, func() bool { return f.count(4) >= 3 }, time.Second, time.Millisecond)

	room, ok := fast.Active()
	assert.True(t, ok)
	assert.Equal(t, 4, room)
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s := New(newFakeFetcher().fetch, nil, testInterval, nil)
	defer s.Close()

	s.Stop()
	s.Stop()
	assert.Equal(t, 0, s.LiveTimers())

	s.Start(1)
	s.Stop()
	s.Stop()
	assert.Equal(t, 0, s.LiveTimers())
	_, ok := s.Active()
	assert.False(t, ok)
	assert.Zero(t, s.Session())
}

func TestScheduler_NoOrphanTimers(t *testing.T) {
	f := newFakeFetcher()
	s := New(f.fetch, nil, testInterval, nil)
	defer s.Close()

	for i := 0; i < 50; i++ {
		switch i % 3 {
		case 0:
			s.Start(i)
		case 1:
			s.Start(i - 1)
		default:
			s.Stop()
		}
		assert.LessOrEqual(t, s.LiveTimers(), 1)
	}

	s.Start(7)
	s.Start(7)
	assert.Equal(t, 1, s.LiveTimers())
	s.Stop()
	assert.Equal(t, 0, s.LiveTimers())
}

func TestScheduler_RoomSwitch(t *testing.T) {
	f := newFakeFetcher()
	c := &collector{}
	s := New(f.fetch, c.sink, testInterval, nil)
	defer s.Close()

	s.Start(1)
	require.Eventually(t, func() bool { return f.count(1) >= 2 }, time.Second, time.Millisecond)

	s.Stop()
	s.Start(2)
	// A fetch for room 1 may still be in flight at the switch; it is the last one.
	time.Sleep(5 * testInterval)
	afterSwitch := f.count(1)

	time.Sleep(10 * testInterval)
	assert.Equal(t, afterSwitch, f.count(1), "room 1 was fetched after the switch")
	assert.Greater(t, f.count(2), 2)

	room, _ := s.Active()
	assert.Equal(t, 2, room)
}

func TestScheduler_DiscardsResultOfStoppedSession(t *testing.T) {
	f := newFakeFetcher()
	f.gate = make(chan struct{})
	f.started = make(chan int, 1)
	c := &collector{}
	m := metrics.Nop()
	s := New(f.fetch, c.sink, time.Hour, m)
	defer s.Close()

	s.Start(1)
	<-f.started
	s.Stop()
	close(f.gate)

	assert.Eventually(t, func() bool { return testutil.ToFloat64(m.StaleDiscards) == 1 }, time.Second, time.Millisecond)
	assert.Zero(t, c.len())
}

func TestScheduler_FailureKeepsPolling(t *testing.T) {
	f := newFakeFetcher()
	f.setFail(true)
	c := &collector{}
	m := metrics.Nop()
	s := New(f.fetch, c.sink, testInterval, m)
	defer s.Close()

	s.Start(5)
	require.Eventually(t, func() bool { return f.count(5) >= 3 }, time.Second, time.Millisecond)
	assert.Zero(t, c.len(), "failed fetches must not reach the sink")
	assert.Equal(t, 1, s.LiveTimers())

	f.setFail(false)
	assert.Eventually(t, func() bool { return c.len() > 0 }, time.Second, time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.PollFetches.WithLabelValues("error")), 3.0)
}

func TestScheduler_Refresh(t *testing.T) {
	f := newFakeFetcher()
	c := &collector{}
	s := New(f.fetch, c.sink, time.Hour, nil)
	defer s.Close()

	assert.False(t, s.Refresh())

	s.Start(8)
	require.Eventually(t, func() bool { return c.len() == 1 }, time.Second, time.Millisecond)

	assert.True(t, s.Refresh())
	assert.Eventually(t, func() bool { return c.len() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, map[int]int{8: 2}, c.rooms())
}

func TestScheduler_CloseAbortsInFlight(t *testing.T) {
	f := newFakeFetcher()
	f.gate = make(chan struct{})
	f.started = make(chan int, 1)
	s := New(f.fetch, nil, testInterval, nil)

	s.Start(1)
	<-f.started

	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return")
	}

	s.Start(2)
	_, ok := s.Active()
	assert.False(t, ok, "a closed scheduler must not restart")
}

func TestScheduler_ActiveGauge(t *testing.T) {
	m := metrics.Nop()
	s := New(newFakeFetcher().fetch, nil, testInterval, m)
	defer s.Close()

	s.Start(1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActivePolls))
	s.Stop()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActivePolls))
}
