package deferred

import "sync"

// Signal is a fire-many pub/sub primitive: every permanent listener runs on
// every Fire; one-shot listeners run on exactly the next Fire and are then
// discarded.
type Signal struct {
	mu       sync.Mutex
	perm     []func(args ...any)
	once     []func(args ...any)
}

// NewSignal creates an empty signal.
func NewSignal() *Signal {
	return &Signal{}
}

// Listen registers a permanent listener.
func (s *Signal) Listen(listener func(args ...any)) {
	s.mu.Lock()
	s.perm = append(s.perm, listener)
	s.mu.Unlock()
}

// ListenOnce registers a listener that fires at most once, on the next
// Fire call, and is then discarded.
func (s *Signal) ListenOnce(listener func(args ...any)) {
	s.mu.Lock()
	s.once = append(s.once, listener)
	s.mu.Unlock()
}

// Fire invokes every permanent listener followed by every pending one-shot
// listener, in registration order, then clears the one-shot list.
func (s *Signal) Fire(args ...any) {
	s.mu.Lock()
	perm := make([]func(args ...any), len(s.perm))
	copy(perm, s.perm)
	once := s.once
	s.once = nil
	s.mu.Unlock()

	for _, l := range perm {
		l(args...)
	}
	for _, l := range once {
		l(args...)
	}
}
