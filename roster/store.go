// Package roster owns the live set of joined users across all rooms.
// Rooms are never materialized: a room exists exactly while the roster
// holds at least one user for it.
package roster

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"sync"
)

// Store is the single piece of shared mutable state in the relay.
// All mutation funnels through its guarded operations; readers get
// consistent snapshots, never a torn write.
type Store struct {
	mu    sync.RWMutex
	users map[domain.ConnID]domain.User
}

func NewStore() *Store {
	return &Store{users: make(map[domain.ConnID]domain.User)}
}

// Insert registers the user of a live connection.
// A connection holds at most one user at a time.
func (s *Store) Insert(user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return errors.ErrAlreadyJoined
	}
	s.users[user.ID] = user
	return nil
}

// Remove deletes and returns the user for id.
func (s *Store) Remove(id domain.ConnID) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, errors.ErrNotFound
	}
	delete(s.users, id)
	return user, nil
}

// Lookup returns the user for id without touching the roster.
func (s *Store) Lookup(id domain.ConnID) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, errors.ErrNotFound
	}
	return user, nil
}

// MembersOf snapshots the current occupants of a room.
// Order is unspecified; the slice is safe to retain.
func (s *Store) MembersOf(room string) []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var members []domain.User
	for _, user := range s.users {
		if user.Room == room {
			members = append(members, user)
		}
	}
	return members
}

// Stats counts distinct rooms and live users, for periodic reporting.
func (s *Store) Stats() (rooms, users int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, user := range s.users {
		seen[user.Room] = struct{}{}
	}
	return len(seen), len(s.users)
}
