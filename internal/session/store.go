package session

import (
	"sync"
	"time"

	"datalens/domain/cleaning"
	"datalens/domain/core"
	"datalens/domain/table"
	"datalens/internal"
)

// Session holds everything a browser session has uploaded and done so far.
// The original table is immutable after load; cleaning operations apply to
// the working copy and append to the log.
type Session struct {
	ID        core.SessionID
	Filename  string
	Sheet     string
	FilePath  string
	Sheets    []string
	FileSize  int64
	Original  *table.Table
	Cleaned   *table.Table
	Log       []cleaning.LogEntry
	CreatedAt time.Time
	LastSeen  time.Time

	mu sync.Mutex
}

// Lock acquires the per-session mutex. Handlers hold it for the duration of
// any read or mutation of the tables or the cleaning log.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the per-session mutex
func (s *Session) Unlock() { s.mu.Unlock() }

// ResetCleaned discards all cleaning work and restores the original table
func (s *Session) ResetCleaned() {
	s.Cleaned = s.Original.Clone()
	s.Log = nil
}

// Store keeps live sessions in memory, keyed by session ID, and expires
// sessions that have been idle longer than the TTL.
type Store struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*Session
	ttl      time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewStore creates a session store with the given idle TTL
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[core.SessionID]*Session),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
}

// Create registers a new empty session and returns it
func (st *Store) Create() *Session {
	now := time.Now()
	sess := &Session{
		ID:        core.SessionID(core.NewID()),
		CreatedAt: now,
		LastSeen:  now,
	}

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()

	return sess
}

// Get returns the session for the given ID and refreshes its idle timer.
// Returns nil when the session does not exist or has expired.
func (st *Store) Get(id core.SessionID) *Session {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil
	}

	st.mu.Lock()
	if time.Since(sess.LastSeen) > st.ttl {
		delete(st.sessions, id)
		st.mu.Unlock()
		return nil
	}
	sess.LastSeen = time.Now()
	st.mu.Unlock()

	return sess
}

// Delete removes a session and returns it so the caller can release any
// resources it owns, such as the stored upload file.
func (st *Store) Delete(id core.SessionID) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[id]
	if !ok {
		return nil
	}
	delete(st.sessions, id)
	return sess
}

// Count returns the number of live sessions
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// StartSweeper runs a background loop that evicts expired sessions. Each
// evicted session is passed to onEvict, which may be nil.
func (st *Store) StartSweeper(interval time.Duration, onEvict func(*Session)) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				st.sweep(onEvict)
			case <-st.done:
				return
			}
		}
	}()
}

// Stop shuts down the sweeper goroutine
func (st *Store) Stop() {
	st.stopOnce.Do(func() { close(st.done) })
}

func (st *Store) sweep(onEvict func(*Session)) {
	cutoff := time.Now().Add(-st.ttl)

	st.mu.Lock()
	var expired []*Session
	for id, sess := range st.sessions {
		if sess.LastSeen.Before(cutoff) {
			expired = append(expired, sess)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	if len(expired) > 0 {
		internal.DefaultLogger.Info("[SessionStore] Evicted %d expired session(s), %d remaining", len(expired), st.Count())
	}
	for _, sess := range expired {
		if onEvict != nil {
			onEvict(sess)
		}
	}
}
