package roster

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"sync"

	"github.com/samber/lo"
)

// Manager validates and applies join/leave operations against the Store.
// A single mutex serializes Join's check-then-insert with every other
// mutation, so two concurrent joins carrying the same normalized name and
// room can never both succeed.
type Manager struct {
	mu    sync.Mutex
	store *Store
}

func NewManager(store *Store) *Manager {
	return &Manager{store: store}
}

// Join normalizes the raw inputs, enforces per-room display-name uniqueness
// and registers the user. The same display name may live in different rooms.
func (m *Manager) Join(id domain.ConnID, rawName, rawRoom string) (domain.User, error) {
	name := domain.Normalize(rawName)
	room := domain.Normalize(rawRoom)
	if name == "" || room == "" {
		return domain.User{}, errors.ErrMissingField
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, member := range m.store.MembersOf(room) {
		if member.DisplayName == name {
			return domain.User{}, errors.ErrNameTaken
		}
	}

	user := domain.User{ID: id, DisplayName: name, Room: room}
	if err := m.store.Insert(user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Leave removes and returns the user for id. ErrNotFound means the
// connection never joined, which is expected on disconnect-before-join
// and swallowed by the caller.
func (m *Manager) Leave(id domain.ConnID) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Remove(id)
}

// UsersIn projects a room's occupants for roomData broadcasts.
func (m *Manager) UsersIn(room string) []event.RoomUser {
	return lo.Map(m.store.MembersOf(room), func(u domain.User, _ int) event.RoomUser {
		return event.RoomUser{DisplayName: u.DisplayName}
	})
}
