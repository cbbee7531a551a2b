// Package withdraw — session.go is the per-user dialog state.
// The store is an explicit value injected into the handler, keyed by
// Telegram user ID, with a TTL so abandoned dialogs disappear on their
// own. A cron job calls Sweep for the ones nobody touches again.
package withdraw

import (
	"sync"
	"time"
)

type sessionState int

const (
	stateAwaitingAmount sessionState = iota + 1
	stateAwaitingMethod
)

// session is one in-flight withdraw dialog. Nothing here touches money:
// the balance only changes at the final Create call.
type session struct {
	state     sessionState
	amount    int64 // set once the amount step passed validation
	expiresAt time.Time
}

// SessionStore holds the active withdraw dialogs.
type SessionStore struct {
	mu  sync.Mutex
	m   map[int64]*session
	ttl time.Duration
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		m:   make(map[int64]*session),
		ttl: ttl,
	}
}

// get returns the user's session, or nil when there is none or it expired.
// Expired sessions are removed on sight.
func (st *SessionStore) get(userID int64) *session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.m[userID]
	if !ok {
		return nil
	}
	if time.Now().After(s.expiresAt) {
		delete(st.m, userID)
		return nil
	}
	return s
}

// put stores (or refreshes) the user's session with a fresh TTL.
func (st *SessionStore) put(userID int64, s *session) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s.expiresAt = time.Now().Add(st.ttl)
	st.m[userID] = s
}

// delete ends the user's session.
func (st *SessionStore) delete(userID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.m, userID)
}

// Sweep drops every expired session and returns how many were removed.
func (st *SessionStore) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := time.Now()
	removed := 0
	for userID, s := range st.m {
		if now.After(s.expiresAt) {
			delete(st.m, userID)
			removed++
		}
	}
	return removed
}
