package dispatch

import (
	"slices"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/jonboulle/clockwork"
)

type purpose int

const (
	purposeAcceptance purpose = iota + 1
	purposeSeeking
	purposeRetry
)

func (p purpose) String() string {
	switch p {
	case purposeAcceptance:
		return "acceptance"
	case purposeSeeking:
		return "seeking"
	case purposeRetry:
		return "retry"
	default:
		return "unknown"
	}
}

type timerKey struct {
	orderID kernel.UUID
	purpose purpose
}

// timerHandle is one armed timer. tag identifies the offer an acceptance timer
// belongs to (its expiry instant) so cleanup never stops a newer offer's timer.
type timerHandle struct {
	timer clockwork.Timer
	tag   time.Time
}

func (h *timerHandle) stop() {
	if h.timer != nil {
		h.timer.Stop()
	}
}

type pendingOrder struct {
	payload order.Payload
	path    string
	since   time.Time
}

// state is the ephemeral, process-lifetime bookkeeping of the coordinator.
// mu is only held around map access, never across I/O.
type state struct {
	mu        sync.Mutex
	pending   map[kernel.UUID]pendingOrder
	locks     map[kernel.UUID]struct{}
	timers    map[timerKey]*timerHandle
	remaining map[kernel.UUID]time.Time
	cooldown  map[kernel.UUID]struct{}
	scan      *timerHandle
	closed    bool
}

func newState() *state {
	return &state{
		pending:   make(map[kernel.UUID]pendingOrder),
		locks:     make(map[kernel.UUID]struct{}),
		timers:    make(map[timerKey]*timerHandle),
		remaining: make(map[kernel.UUID]time.Time),
		cooldown:  make(map[kernel.UUID]struct{}),
	}
}

// tryLock adds id to the lock set; false when an attempt is already in flight.
func (s *state) tryLock(id kernel.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.locks[id]; held {
		return false
	}
	s.locks[id] = struct{}{}
	return true
}

func (s *state) unlock(id kernel.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, id)
}

func (s *state) isLocked(id kernel.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, held := s.locks[id]
	return held
}

// register records a pending order. It returns false when the order was already
// pending, in which case only payload and path are refreshed.
func (s *state) register(id kernel.UUID, entry pendingOrder) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.pending[id]; ok {
		entry.since = existing.since
		s.pending[id] = entry
		return false
	}
	s.pending[id] = entry
	return true
}

func (s *state) isPending(id kernel.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	return ok
}

func (s *state) pendingIDs() []kernel.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]kernel.UUID, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	return ids
}

func (s *state) addCooldown(id kernel.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooldown[id] = struct{}{}
}

func (s *state) removeCooldown(id kernel.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cooldown, id)
}

func (s *state) inCooldown(id kernel.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.cooldown[id]
	return ok
}

func (s *state) setRemaining(id kernel.UUID, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining[id] = expiresAt
}

func (s *state) getRemaining(id kernel.UUID) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.remaining[id]
	return expiresAt, ok
}

// arm starts a timer for (id, p), stopping the one it replaces. fire runs at most
// once and only while the handle is still the current one for its key.
// The clock is called without mu held since a due timer may fire right away.
func (s *state) arm(clock clockwork.Clock, id kernel.UUID, p purpose, tag time.Time, d time.Duration, fire func()) {
	key := timerKey{orderID: id, purpose: p}
	h := &timerHandle{tag: tag}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if prev, ok := s.timers[key]; ok {
		prev.stop()
	}
	s.timers[key] = h
	s.mu.Unlock()

	t := clock.AfterFunc(d, func() {
		if s.release(key, h) {
			fire()
		}
	})
	s.attach(t, func() bool { return s.timers[key] == h }, h)
}

// attach stores t on h while h is still current; otherwise t is stopped.
func (s *state) attach(t clockwork.Timer, current func() bool, h *timerHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !current() {
		t.Stop()
		return
	}
	h.timer = t
}

// release removes h if it is still current for key and reports whether it was.
func (s *state) release(key timerKey, h *timerHandle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timers[key] != h {
		return false
	}
	delete(s.timers, key)
	return true
}

func (s *state) hasTimer(id kernel.UUID, p purpose) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[timerKey{orderID: id, purpose: p}]
	return ok
}

// clearOffer drops the acceptance timer and cached expiry of the offer that
// expires at expiresAt. State belonging to a newer offer is left alone.
func (s *state) clearOffer(id kernel.UUID, expiresAt time.Time) {
	if expiresAt.IsZero() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := timerKey{orderID: id, purpose: purposeAcceptance}
	if h, ok := s.timers[key]; ok && h.tag.Equal(expiresAt) {
		h.stop()
		delete(s.timers, key)
	}
	if cached, ok := s.remaining[id]; ok && cached.Equal(expiresAt) {
		delete(s.remaining, id)
	}
}

// purge forgets everything about an order except its lock, which belongs to
// whoever is inside an attempt and is released by that attempt.
func (s *state) purge(id kernel.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range []purpose{purposeAcceptance, purposeSeeking, purposeRetry} {
		key := timerKey{orderID: id, purpose: p}
		if h, ok := s.timers[key]; ok {
			h.stop()
			delete(s.timers, key)
		}
	}
	delete(s.pending, id)
	delete(s.remaining, id)
	delete(s.cooldown, id)
}

// debounce arms the availability scan timer unless one is already waiting.
// It reports whether the call armed a new timer.
func (s *state) debounce(clock clockwork.Clock, d time.Duration, fire func()) bool {
	h := &timerHandle{}

	s.mu.Lock()
	if s.closed || s.scan != nil {
		s.mu.Unlock()
		return false
	}
	s.scan = h
	s.mu.Unlock()

	t := clock.AfterFunc(d, func() {
		s.mu.Lock()
		current := s.scan == h
		if current {
			s.scan = nil
		}
		s.mu.Unlock()
		if current {
			fire()
		}
	})
	s.attach(t, func() bool { return s.scan == h }, h)
	return true
}

// stopAll disarms every timer and refuses new ones.
func (s *state) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for key, h := range s.timers {
		h.stop()
		delete(s.timers, key)
	}
	if s.scan != nil {
		s.scan.stop()
		s.scan = nil
	}
}

// Snapshot is a diagnostic view of the coordinator state.
type Snapshot struct {
	Pending  []string `json:"pending"`
	Locked   []string `json:"locked"`
	Cooldown []string `json:"cooldown"`
	Timers   int      `json:"timers"`
	Cursor   uint64   `json:"cursor"`
}

func (s *state) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Pending:  keys(s.pending),
		Locked:   keys(s.locks),
		Cooldown: keys(s.cooldown),
		Timers:   len(s.timers),
	}
}

func keys[V any](m map[kernel.UUID]V) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id.String())
	}
	slices.Sort(out)
	return out
}
