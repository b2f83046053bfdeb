package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"sort"
	"sync"

	"github.com/samber/lo"
)

// roomMembers keeps the live connections of a room and their display names.
// conns and names always share the same keys; order holds them by join time.
type roomMembers struct {
	conns map[string]contract.Connection
	names map[string]string
	order []string
}

func newRoomMembers() *roomMembers {
	return &roomMembers{
		conns: make(map[string]contract.Connection),
		names: make(map[string]string),
	}
}

func (m *roomMembers) roster() []string {
	return lo.Map(m.order, func(id string, _ int) string { return m.names[id] })
}

type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomMembers
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.RoomID]*roomMembers)}
}

// Join registers a connection under a room and returns the roster including the newcomer.
// The room is created on the fly the first time someone joins it.
// Joining again with the same connection id only refreshes the connection.
func (r *Registry) Join(roomID domain.RoomID, conn contract.Connection, name string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		members = newRoomMembers()
		r.rooms[roomID] = members
	}
	id := conn.ID()
	if _, exists := members.conns[id]; !exists {
		members.order = append(members.order, id)
	}
	members.conns[id] = conn
	members.names[id] = name
	return members.roster()
}

// Leave removes a connection and returns the participant and the remaining roster.
// ok is false when the connection was not registered, so a second call is a no-op.
// A room left empty is deleted entirely.
func (r *Registry) Leave(roomID domain.RoomID, connectionID string) (domain.Participant, []string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return domain.Participant{}, nil, false
	}
	if _, ok := members.conns[connectionID]; !ok {
		return domain.Participant{}, nil, false
	}

	participant := domain.Participant{ConnectionID: connectionID, Name: members.names[connectionID]}
	delete(members.conns, connectionID)
	delete(members.names, connectionID)
	members.order = lo.Without(members.order, connectionID)

	if len(members.conns) == 0 {
		delete(r.rooms, roomID)
		return participant, nil, true
	}
	return participant, members.roster(), true
}

// IsMember reports whether name is on the room roster.
func (r *Registry) IsMember(roomID domain.RoomID, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	return lo.Contains(lo.Values(members.names), name)
}

// Connections returns a snapshot of the room connections in join order.
// Returns nil if the room doesn't exist.
func (r *Registry) Connections(roomID domain.RoomID) []contract.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	return lo.Map(members.order, func(id string, _ int) contract.Connection { return members.conns[id] })
}

func (r *Registry) Roster(roomID domain.RoomID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	return members.roster()
}

// Rooms lists the rooms that currently have members, sorted by id.
func (r *Registry) Rooms() []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := lo.Keys(r.rooms)
	sort.Slice(rooms, func(i, j int) bool { return rooms[i] < rooms[j] })
	return rooms
}
