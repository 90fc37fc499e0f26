package chat

import (
	"sync"
	"time"
)

// Scheduler runs at most one delayed callback at a time. Scheduling a new
// callback cancels the pending one.
type Scheduler struct {
	mu     sync.Mutex
	timer  *time.Timer
	gen    uint64
	closed bool
}

// Schedule arranges for fn to run after d, replacing any pending callback.
// It reports false if the scheduler is closed.
func (s *Scheduler) Schedule(d time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.stopLocked()
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		if s.gen != gen || s.closed {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()
		fn()
	})
	return true
}

// Cancel drops the pending callback, if any, and reports whether one was
// pending.
func (s *Scheduler) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

// Pending reports whether a callback is waiting to run.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Close cancels the pending callback and rejects further scheduling.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.closed = true
}

func (s *Scheduler) stopLocked() bool {
	if s.timer == nil {
		return false
	}
	s.timer.Stop()
	s.timer = nil
	// A callback that already fired sees the bumped generation and returns.
	s.gen++
	return true
}
