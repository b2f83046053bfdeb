package runtime

import (
	"chat-relay/domain"
	"sync"
)

type roomLock struct {
	mu   sync.Mutex
	refs int
}

// RoomLocks serialises every mutation on a given room.
// Different rooms never contend. An entry lives only while someone holds or waits for it.
type RoomLocks struct {
	mu    sync.Mutex
	locks map[domain.RoomID]*roomLock
}

func NewRoomLocks() *RoomLocks {
	return &RoomLocks{locks: make(map[domain.RoomID]*roomLock)}
}

// Lock blocks until the room is free and returns the matching unlock function.
func (l *RoomLocks) Lock(roomID domain.RoomID) func() {
	l.mu.Lock()
	lock, ok := l.locks[roomID]
	if !ok {
		lock = &roomLock{}
		l.locks[roomID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, roomID)
		}
		l.mu.Unlock()
	}
}

func (l *RoomLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
