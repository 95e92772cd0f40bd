// Package stage holds the fulfillment stages. Each stage subscribes to one
// event kind, simulates its piece of work, and publishes exactly one outcome
// event per distinct input event. Stages never talk to each other or to the
// order store; the bus is their only dependency.
package stage

import "sync"

// seenSet remembers event ids a stage has already acted upon. It guards
// against a handler being invoked more than once for the same logical event;
// entries are retained for the lifetime of the process.
type seenSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func newSeenSet() *seenSet {
	return &seenSet{seen: make(map[string]struct{})}
}

// markSeen records the id and reports whether it was already present.
func (s *seenSet) markSeen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[id]; dup {
		return true
	}
	s.seen[id] = struct{}{}
	return false
}
