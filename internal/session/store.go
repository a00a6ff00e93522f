package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoSuchSession = errors.New("no such session")
	ErrWrongAuthKey  = errors.New("wrong auth key")
	ErrNotBound      = errors.New("session not verified")
	ErrBotMismatch   = errors.New("session is bound to a different bot")
)

// Store owns every live session. All mutation goes through the store; a
// Session returned from any method is a copy and cannot alias internal
// state. Closed sessions are removed from the map, so a token can never
// come back after release.
type Store struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	authKey    string
	pendingTTL time.Duration
	onRelease  func(*Session)
}

func NewStore(authKey string, pendingTTL time.Duration) *Store {
	if pendingTTL <= 0 {
		pendingTTL = 5 * time.Minute
	}
	return &Store{
		sessions:   make(map[string]*Session),
		authKey:    authKey,
		pendingTTL: pendingTTL,
	}
}

// SetReleaseHook registers a callback fired after a session closes, whether
// by explicit release, transport disconnect, or janitor expiry.
func (s *Store) SetReleaseHook(hook func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRelease = hook
}

// Create issues a fresh pending session. Tokens come from crypto/rand via
// uuid and never collide with a live token.
func (s *Store) Create() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	var token string
	for {
		token = uuid.NewString()
		if _, exists := s.sessions[token]; !exists {
			break
		}
	}
	sess := &Session{
		Token:     token,
		State:     StatePending,
		CreatedAt: time.Now().UTC(),
	}
	s.sessions[token] = sess
	return clone(sess)
}

// CheckAuthKey verifies the shared secret without touching any session.
// Callers that must authenticate before resolving other state use this
// first, so a wrong key leaks nothing about bots or tokens.
func (s *Store) CheckAuthKey(authKey string) error {
	if subtle.ConstantTimeCompare([]byte(authKey), []byte(s.authKey)) != 1 {
		return ErrWrongAuthKey
	}
	return nil
}

// Bind transitions a pending session to bound. Rebinding to the same bot is
// idempotent; rebinding to a different bot fails without touching the
// existing binding. A wrong key never changes session state.
func (s *Store) Bind(token string, botID int64, authKey string) (*Session, error) {
	if err := s.CheckAuthKey(authKey); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrNoSuchSession
	}
	if sess.State == StateBound {
		if sess.BotID != botID {
			return nil, ErrBotMismatch
		}
		return clone(sess), nil
	}
	sess.State = StateBound
	sess.BotID = botID
	sess.BoundAt = time.Now().UTC()
	return clone(sess), nil
}

// Get resolves a live session by token.
func (s *Store) Get(token string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrNoSuchSession
	}
	return clone(sess), nil
}

// Bound resolves a session that must already be bound.
func (s *Store) Bound(token string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrNoSuchSession
	}
	if sess.State != StateBound {
		return nil, ErrNotBound
	}
	return clone(sess), nil
}

// Release closes a session on behalf of the stated bot. The caller's bot
// must match the binding. The first release wins; later calls see
// ErrNoSuchSession.
func (s *Store) Release(token string, botID int64) (*Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[token]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNoSuchSession
	}
	if sess.State == StateBound && sess.BotID != botID {
		s.mu.Unlock()
		return nil, ErrBotMismatch
	}
	released := s.closeLocked(sess)
	hook := s.onRelease
	s.mu.Unlock()

	if hook != nil {
		hook(released)
	}
	return released, nil
}

// Close closes a session unconditionally. Used when the transport carrying
// the session disconnects.
func (s *Store) Close(token string) (*Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[token]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNoSuchSession
	}
	released := s.closeLocked(sess)
	hook := s.onRelease
	s.mu.Unlock()

	if hook != nil {
		hook(released)
	}
	return released, nil
}

func (s *Store) closeLocked(sess *Session) *Session {
	sess.State = StateClosed
	sess.BotID = 0
	delete(s.sessions, sess.Token)
	return clone(sess)
}

// Counts reports live sessions by state.
func (s *Store) Counts() (pending, bound int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		switch sess.State {
		case StatePending:
			pending++
		case StateBound:
			bound++
		}
	}
	return pending, bound
}

// StartJanitor expires pending sessions that were never bound. Bound
// sessions live until released or their transport disconnects.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.expirePending()
			}
		}
	}()
}

func (s *Store) expirePending() {
	cutoff := time.Now().UTC().Add(-s.pendingTTL)
	var expired []*Session

	s.mu.Lock()
	for _, sess := range s.sessions {
		if sess.State != StatePending {
			continue
		}
		if sess.CreatedAt.After(cutoff) {
			continue
		}
		expired = append(expired, s.closeLocked(sess))
	}
	hook := s.onRelease
	s.mu.Unlock()

	if hook != nil {
		for _, sess := range expired {
			hook(sess)
		}
	}
}

func clone(sess *Session) *Session {
	c := *sess
	return &c
}
