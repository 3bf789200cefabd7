package identity

import "sync"

// Session holds the current identity of one client and notifies subscribers
// whenever it changes. A nil identity means signed out.
type Session struct {
	mu          sync.Mutex
	current     *Identity
	subscribers map[int]func(*Identity)
	nextID      int
}

func NewSession() *Session {
	return &Session{subscribers: make(map[int]func(*Identity))}
}

func (s *Session) Current() (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Identity{}, false
	}
	return *s.current, true
}

// Set replaces the current identity. Subscribers are only notified when the
// value actually changes.
func (s *Session) Set(id *Identity) {
	s.mu.Lock()
	if sameIdentity(s.current, id) {
		s.mu.Unlock()
		return
	}
	if id != nil {
		copied := *id
		id = &copied
	}
	s.current = id
	fns := make([]func(*Identity), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(copyIdentity(id))
	}
}

func (s *Session) SignOut() {
	s.Set(nil)
}

// Subscribe calls fn with the current identity straight away and again on every
// change until the returned func is called.
func (s *Session) Subscribe(fn func(*Identity)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	current := copyIdentity(s.current)
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

func sameIdentity(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyIdentity(id *Identity) *Identity {
	if id == nil {
		return nil
	}
	copied := *id
	return &copied
}
