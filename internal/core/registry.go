package core

import "sync"

// Registry maps session ids to live sessions. It is the one structure
// touched by concurrent flows (creation, disconnect/rejoin lookup,
// eviction); a single mutex guards the maps while session bodies stay
// serialized by their own lock.
type Registry struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	byIdentity map[string]string // participant identity -> session id
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions:   make(map[string]*Session),
		byIdentity: make(map[string]string),
	}
}

func (r *Registry) add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	for _, seat := range s.seats {
		if !seat.IsBot {
			r.byIdentity[seat.Identity] = s.ID
		}
	}
}

// Get looks a session up by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// ByIdentity looks a session up by participant identity, the rejoin key.
func (r *Registry) ByIdentity(identity string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byIdentity[identity]
	if !ok {
		return nil, false
	}
	s, ok := r.sessions[id]
	return s, ok
}

// Contains reports whether an identity is currently bound to a session.
func (r *Registry) Contains(identity string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byIdentity[identity]
	return ok
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return
	}
	delete(r.sessions, id)
	for _, seat := range s.seats {
		if !seat.IsBot && r.byIdentity[seat.Identity] == id {
			delete(r.byIdentity, seat.Identity)
		}
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
