package repository

import (
	"errors"
	"sync"
	"time"

	"milsabores/internal/domain"
	apperrors "milsabores/internal/errors"
)

// ErrSessionClosed is returned by a Session that was swept from its store.
// Callers fetch the session again and retry.
var ErrSessionClosed = errors.New("basket session closed")

// Session guards one operator's basket. While a confirm is in flight the
// basket is frozen: mutations and a second confirm fail with a conflict.
type Session struct {
	mu         sync.Mutex
	basket     *domain.Basket
	submitting bool
	closed     bool
	touched    time.Time
	now        func() time.Time
}

func (s *Session) Mutate(fn func(b *domain.Basket) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.submitting {
		return apperrors.NewConflictError("a sale is being confirmed for this basket")
	}
	s.touched = s.now()
	return fn(s.basket)
}

func (s *Session) View(fn func(b *domain.Basket, submitting bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	fn(s.basket, s.submitting)
	return nil
}

// Renew swaps in a fresh basket, dropping every line of the current one.
func (s *Session) Renew(basket *domain.Basket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.submitting {
		return apperrors.NewConflictError("a sale is being confirmed for this basket")
	}
	s.basket = basket
	s.touched = s.now()
	return nil
}

// BeginSubmit freezes the basket and returns its confirm payload.
func (s *Session) BeginSubmit() (domain.ConfirmSaleRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ConfirmSaleRequest{}, ErrSessionClosed
	}
	if s.submitting {
		return domain.ConfirmSaleRequest{}, apperrors.NewConflictError("a sale is already being confirmed for this basket")
	}
	req, err := s.basket.ToConfirmRequest()
	if err != nil {
		return domain.ConfirmSaleRequest{}, err
	}
	s.submitting = true
	s.touched = s.now()
	return req, nil
}

// EndSubmit unfreezes the basket. When next is non-nil the sale went through
// and next replaces the basket before any other request sees it.
func (s *Session) EndSubmit(next *domain.Basket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submitting = false
	s.touched = s.now()
	if next != nil {
		s.basket = next
	}
}

// BasketStore keeps one session per operator in memory.
type BasketStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewBasketStore() *BasketStore {
	return &BasketStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Session returns the session for key, creating it with create when absent.
// Handing out a session counts as activity.
func (s *BasketStore) Session(key string, create func() *domain.Basket) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		sess = &Session{basket: create(), touched: s.now(), now: s.now}
		s.sessions[key] = sess
		return sess
	}

	sess.mu.Lock()
	sess.touched = s.now()
	sess.mu.Unlock()
	return sess
}

func (s *BasketStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than maxIdle and returns how many went.
// Sessions with a confirm in flight are kept. A dropped session is closed, so
// a request still holding it gets ErrSessionClosed instead of writing into a
// basket nobody can see.
func (s *BasketStore) Sweep(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxIdle)
	removed := 0
	for key, sess := range s.sessions {
		sess.mu.Lock()
		idle := !sess.submitting && sess.touched.Before(cutoff)
		if idle {
			sess.closed = true
		}
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, key)
			removed++
		}
	}
	return removed
}
