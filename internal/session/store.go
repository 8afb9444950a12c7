// Package session holds RuStream's process-wide, in-memory session state:
// the authoritative username→key mapping and the per-host stream tracker.
package session

import (
	"sync"
	"time"
)

// ActiveStream records the last file a host was observed streaming, plus
// its byte count and start time. The profile page shows only Path.
type ActiveStream struct {
	Path      string
	BytesSent int64
	StartedAt time.Time
}

// Store is the single shared object backing invariants #3 and #4: a
// username→key mapping and a host→last-streamed-path tracker, each guarded
// by its own narrow mutex so no critical section spans both maps.
type Store struct {
	mappingMu sync.Mutex
	mapping   map[string]string

	trackerMu sync.Mutex
	tracker   map[string]ActiveStream
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		mapping: make(map[string]string),
		tracker: make(map[string]ActiveStream),
	}
}

// IsEmpty reports whether the mapping holds no session keys (verify_token's first
// check, spec.md §4.4 step 1).
func (s *Store) IsEmpty() bool {
	s.mappingMu.Lock()
	defer s.mappingMu.Unlock()
	return len(s.mapping) == 0
}

// Mint stores a freshly generated session key for username, replacing any
// prior key (a new login invalidates any session minted before it).
func (s *Store) Mint(username, key string) {
	s.mappingMu.Lock()
	defer s.mappingMu.Unlock()
	s.mapping[username] = key
}

// Key returns the stored session key for username, if any.
func (s *Store) Key(username string) (string, bool) {
	s.mappingMu.Lock()
	defer s.mappingMu.Unlock()
	key, ok := s.mapping[username]
	return key, ok
}

// Revoke removes username's session key. Logout does not call it (logout
// only clears the host's tracker entry). Returns false if there was
// nothing to remove.
func (s *Store) Revoke(username string) bool {
	s.mappingMu.Lock()
	defer s.mappingMu.Unlock()
	if _, ok := s.mapping[username]; !ok {
		return false
	}
	delete(s.mapping, username)
	return true
}

// Touch records that host connected, establishing tracker[host] with an
// empty path if this is the first time host has been seen (invariant #3).
func (s *Store) Touch(host string) {
	s.trackerMu.Lock()
	defer s.trackerMu.Unlock()
	if _, ok := s.tracker[host]; !ok {
		s.tracker[host] = ActiveStream{}
	}
}

// LastStreamed returns the relative path host was last observed streaming,
// or the empty string if host has never streamed anything.
func (s *Store) LastStreamed(host string) string {
	s.trackerMu.Lock()
	defer s.trackerMu.Unlock()
	return s.tracker[host].Path
}

// ActiveStreamFor returns the full stream record for host.
func (s *Store) ActiveStreamFor(host string) (ActiveStream, bool) {
	s.trackerMu.Lock()
	defer s.trackerMu.Unlock()
	st, ok := s.tracker[host]
	return st, ok
}

// SetStreaming updates tracker[host] to path, reporting whether this is a
// change from the previous value (handlers log "Streaming <path>" only on
// change, per spec.md §4.7).
func (s *Store) SetStreaming(host, path string) (changed bool) {
	s.trackerMu.Lock()
	defer s.trackerMu.Unlock()
	prev := s.tracker[host]
	if prev.Path == path {
		return false
	}
	s.tracker[host] = ActiveStream{Path: path, StartedAt: time.Now()}
	return true
}

// AddBytesSent accumulates bytes onto host's active stream counter.
func (s *Store) AddBytesSent(host string, n int64) {
	s.trackerMu.Lock()
	defer s.trackerMu.Unlock()
	st := s.tracker[host]
	st.BytesSent += n
	s.tracker[host] = st
}

// ClearTracker removes host's entry, used on logout.
func (s *Store) ClearTracker(host string) bool {
	s.trackerMu.Lock()
	defer s.trackerMu.Unlock()
	if _, ok := s.tracker[host]; !ok {
		return false
	}
	delete(s.tracker, host)
	return true
}
