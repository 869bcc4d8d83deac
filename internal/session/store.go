// Package session keeps per-user conversational state and the
// order-creation dedup guard. Everything is memory-resident; nothing
// survives a process restart.
package session

import "sync"

// PendingExchange holds the parameters a user confirmed up to the
// flat/dynamic mode question.
type PendingExchange struct {
	FromCurrency string
	ToCurrency   string
	ToAddress    string
}

// Store owns the pending-exchange map, the reservation set for orders
// mid-creation, and the per-user execution locks.
type Store struct {
	mu       sync.Mutex
	pending  map[string]PendingExchange
	reserved map[string]struct{}

	userMu    sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewStore constructs an empty session store.
func NewStore() *Store {
	return &Store{
		pending:   make(map[string]PendingExchange),
		reserved:  make(map[string]struct{}),
		userLocks: make(map[string]*sync.Mutex),
	}
}

// SetPending stores the user's pending exchange parameters. A new
// /exchange while one is pending overwrites it: last request wins.
func (s *Store) SetPending(userID string, params PendingExchange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[userID] = params
}

// GetPending returns the user's pending exchange, if any.
func (s *Store) GetPending(userID string) (PendingExchange, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	params, ok := s.pending[userID]
	return params, ok
}

// ClearPending drops the user's pending exchange.
func (s *Store) ClearPending(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, userID)
}

// TryReserve atomically checks and inserts the order ID into the
// mid-creation set. A false return signals a duplicate creation flow;
// the caller must surface an error and abort.
func (s *Store) TryReserve(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reserved[orderID]; exists {
		return false
	}
	s.reserved[orderID] = struct{}{}
	return true
}

// Release removes the reservation. Must be called exactly once per
// successful TryReserve, on every exit path of the creation flow.
func (s *Store) Release(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reserved, orderID)
}

// LockUser serializes processing per user: two back-to-back inbound
// events for the same user never run their handlers concurrently. The
// returned func releases the lock.
func (s *Store) LockUser(userID string) func() {
	s.userMu.Lock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	s.userMu.Unlock()

	lock.Lock()
	return lock.Unlock
}
