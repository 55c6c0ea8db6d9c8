package recordcache

import (
	"context"
	"sync"
)

// session holds the per-unit-of-work state: the pending-write overlay, the
// re-entrant read-disablement depth, and the key blacklist. One session
// belongs to one logical execution context (a request, a worker iteration);
// sessions are never shared across concurrent units of work.
//
// The mutex guards against the occasional context that does leak into a
// helper goroutine; within a single unit of work access is sequential.
type session struct {
	mu        sync.Mutex
	disabled  int
	pending   map[string]pendingRecord
	blacklist map[string]struct{}
}

// pendingRecord is a saved-but-uncommitted record state, or a tombstone for
// a destroyed record.
type pendingRecord struct {
	row     Row
	deleted bool
}

type sessionKey struct{}

// WithSession attaches a fresh session to the context. Transactional
// features — the pending-write overlay, read disablement, the blacklist —
// require a session; without one the layer degrades to a plain
// read-through/write-through cache.
//
// Attach one session per request or unit of work, never share the resulting
// context across concurrent units.
func WithSession(ctx context.Context) context.Context {
	return context.WithValue(ctx, sessionKey{}, &session{})
}

func sessionFrom(ctx context.Context) *session {
	s, _ := ctx.Value(sessionKey{}).(*session)
	return s
}

func (s *session) readsDisabled() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabled > 0
}

func (s *session) disable() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disabled++
}

func (s *session) enable() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled > 0 {
		s.disabled--
	}
}

func (s *session) addPending(id string, row Row, deleted bool) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		s.pending = make(map[string]pendingRecord)
	}
	s.pending[id] = pendingRecord{row: row, deleted: deleted}
}

func (s *session) lookupPending(id string) (pendingRecord, bool) {
	if s == nil {
		return pendingRecord{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[id]
	return p, ok
}

func (s *session) hasPending() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0
}

// clear drops the pending overlay and the blacklist. Called unconditionally
// on commit and rollback.
func (s *session) clear() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.blacklist = nil
}

func (s *session) addToBlacklist(keys []string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blacklist == nil {
		s.blacklist = make(map[string]struct{}, len(keys))
	}
	for _, k := range keys {
		s.blacklist[k] = struct{}{}
	}
}

func (s *session) blacklisted(key string) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blacklist[key]
	return ok
}
