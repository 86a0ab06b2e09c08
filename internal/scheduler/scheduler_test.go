package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbitron/pkg/logger"
)

type firedLog struct {
	mu    sync.Mutex
	keys  []string
	fired chan struct{}
}

func newFiredLog() *firedLog {
	return &firedLog{fired: make(chan struct{}, 16)}
}

func (f *firedLog) handler(_ context.Context, key string, _ []byte) {
	f.mu.Lock()
	f.keys = append(f.keys, key)
	f.mu.Unlock()
	f.fired <- struct{}{}
}

func (f *firedLog) wait(t *testing.T) {
	t.Helper()
	select {
	case <-f.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func (f *firedLog) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

func TestScheduler_Schedule(t *testing.T) {
	clock := clockwork.NewFakeClock()
	log := newFiredLog()
	s := New(clock, log.handler, logger.New("error"))

	s.Schedule("case/1/resp_appeal", clock.Now().Add(time.Hour), nil)
	require.Equal(t, 1, s.Pending())

	clock.Advance(time.Hour)
	log.wait(t)

	assert.Equal(t, []string{"case/1/resp_appeal"}, log.snapshot())
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_RescheduleReplaces(t *testing.T) {
	clock := clockwork.NewFakeClock()
	log := newFiredLog()
	s := New(clock, log.handler, logger.New("error"))

	s.Schedule("case/1/upload_result", clock.Now().Add(time.Hour), nil)
	s.Schedule("case/1/upload_result", clock.Now().Add(3*time.Hour), nil)
	require.Equal(t, 1, s.Pending())

	clock.Advance(time.Hour)
	select {
	case <-log.fired:
		t.Fatal("replaced timer fired")
	case <-time.After(50 * time.Millisecond):
	}

	clock.Advance(2 * time.Hour)
	log.wait(t)
	assert.Equal(t, []string{"case/1/upload_result"}, log.snapshot())
}

func TestScheduler_Cancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	log := newFiredLog()
	s := New(clock, log.handler, logger.New("error"))

	s.Schedule("case/1/reappeal_window", clock.Now().Add(time.Minute), nil)
	s.Cancel("case/1/reappeal_window")
	assert.Equal(t, 0, s.Pending())

	clock.Advance(time.Minute)
	select {
	case <-log.fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestScheduler_PastInstantFiresImmediately(t *testing.T) {
	clock := clockwork.NewFakeClock()
	log := newFiredLog()
	s := New(clock, log.handler, logger.New("error"))

	s.Schedule("case/1/resp_juror", clock.Now().Add(-time.Minute), nil)

	clock.Advance(time.Nanosecond)
	log.wait(t)
	assert.Equal(t, []string{"case/1/resp_juror"}, log.snapshot())
}

func TestScheduler_Stop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	log := newFiredLog()
	s := New(clock, log.handler, logger.New("error"))

	s.Schedule("case/1/resp_appeal", clock.Now().Add(time.Minute), nil)
	s.Schedule("case/2/resp_appeal", clock.Now().Add(time.Minute), nil)
	s.Stop()

	assert.Equal(t, 0, s.Pending())
}
