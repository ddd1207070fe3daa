package cart

import "sync"

// Store persists carts between requests, keyed by session id. The cart
// itself is single-session; the store only needs to hand the same cart
// back to the same session.
type Store interface {
	Get(sessionID string) *Cart
	Put(sessionID string, c *Cart)
	Forget(sessionID string)
}

// MemoryStore keeps carts in process memory. Suitable for a single
// instance deployment; a shared-session backend would implement Store
// the same way.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]*Cart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: map[string]*Cart{}}
}

// Get returns the session's cart, creating an empty one on first use.
func (s *MemoryStore) Get(sessionID string) *Cart {
	s.mu.RLock()
	c, ok := s.carts[sessionID]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.carts[sessionID]; ok {
		return c
	}
	c = New()
	s.carts[sessionID] = c
	return c
}

func (s *MemoryStore) Put(sessionID string, c *Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[sessionID] = c
}

func (s *MemoryStore) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
}
