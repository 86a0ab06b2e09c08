// Package scheduler is a keyed in-process timer wheel. Deadlines are also
// persisted on their cases, so timers are re-armed from storage on startup
// and the wheel itself keeps no durable state.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"arbitron/pkg/logger"
)

// Handler receives a fired timer. It runs on the timer goroutine.
type Handler func(ctx context.Context, key string, payload []byte)

type Scheduler struct {
	clock   clockwork.Clock
	handler Handler
	log     *logger.Logger

	mu     sync.Mutex
	timers map[string]clockwork.Timer
}

func New(clock clockwork.Clock, handler Handler, log *logger.Logger) *Scheduler {
	return &Scheduler{
		clock:   clock,
		handler: handler,
		log:     log,
		timers:  make(map[string]clockwork.Timer),
	}
}

// Schedule arms a timer for the key at the given instant, replacing any
// timer already armed under that key. Instants in the past fire immediately.
func (s *Scheduler) Schedule(key string, at time.Time, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[key]; ok {
		prev.Stop()
	}

	delay := at.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}

	s.timers[key] = s.clock.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, key)
		s.mu.Unlock()

		s.log.Debug("timer fired: %s", key)
		s.handler(context.Background(), key, payload)
	})
}

// Cancel disarms the key's timer if one is pending.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
}

// Pending reports how many timers are armed.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop disarms every pending timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}
