package web

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wallet-profiles/internal/logging"
	"github.com/wallet-profiles/internal/screen"
)

// Toast is a transient notification shown once on the next render
type Toast struct {
	Kind    string // "success" or "error"
	Message string
}

// toastQueue collects notifications raised by a screen until the next render
type toastQueue struct {
	mu    sync.Mutex
	items []Toast
}

func (q *toastQueue) Success(message string) { q.push("success", message) }
func (q *toastQueue) Error(message string)   { q.push("error", message) }

func (q *toastQueue) push(kind, message string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, Toast{Kind: kind, Message: message})
}

// drain returns and clears the pending toasts
func (q *toastQueue) drain() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Session is one browser's profile screen
type Session struct {
	ID     string
	Screen *screen.Screen
	toasts *toastQueue

	lastSeen time.Time // guarded by SessionStore.mu
}

// Notify queues a toast that did not originate from the screen
func (s *Session) Notify(kind, message string) {
	s.toasts.push(kind, message)
}

// Toasts drains the pending notifications
func (s *Session) Toasts() []Toast {
	return s.toasts.drain()
}

// ScreenFactory builds the screen of a new session around its notifier
type ScreenFactory func(notifier screen.Notifier) *screen.Screen

// SessionStore keeps sessions in memory and expires idle ones
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idle     time.Duration
	factory  ScreenFactory
	logger   *logging.Logger
	now      func() time.Time
}

// NewSessionStore creates a store whose sessions expire after idle
func NewSessionStore(idle time.Duration, factory ScreenFactory, logger *logging.Logger) *SessionStore {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		idle:     idle,
		factory:  factory,
		logger:   logger.WithField("component", "session_store"),
		now:      time.Now,
	}
}

// Get returns a live session and marks it as used
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	now := st.now()
	if st.expiredLocked(sess, now) {
		delete(st.sessions, id)
		return nil, false
	}
	sess.lastSeen = now
	return sess, true
}

// Create starts a new session with a disconnected screen
func (st *SessionStore) Create() *Session {
	toasts := &toastQueue{}
	sess := &Session{
		ID:     uuid.New().String(),
		Screen: st.factory(toasts),
		toasts: toasts,
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	sess.lastSeen = st.now()
	st.sessions[sess.ID] = sess
	return sess
}

// Sweep removes idle sessions and returns how many were dropped
func (st *SessionStore) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	removed := 0
	for id, sess := range st.sessions {
		if st.expiredLocked(sess, now) {
			// disconnecting supersedes any request still in flight
			sess.Screen.Disconnect()
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of sessions held
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Run sweeps idle sessions every interval until ctx is done
func (st *SessionStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				st.logger.WithField("expired", n).Debug("Expired idle sessions")
			}
		}
	}
}

func (st *SessionStore) expiredLocked(sess *Session, now time.Time) bool {
	return st.idle > 0 && now.Sub(sess.lastSeen) > st.idle
}
