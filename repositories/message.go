package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// MemoryMessageStore keeps every message of every room for the process lifetime.
// Messages are copied on the way in and out so callers never share reaction state.
type MemoryMessageStore struct {
	mu       sync.RWMutex
	log      *slog.Logger
	messages map[domain.RoomID]map[uuid.UUID]domain.Message
}

func NewMemoryMessageStore(log *slog.Logger) *MemoryMessageStore {
	return &MemoryMessageStore{
		log:      log,
		messages: make(map[domain.RoomID]map[uuid.UUID]domain.Message),
	}
}

// StoreMessage inserts a message under its room. An id already present in the
// room is rejected with ErrDuplicateMessageID, never overwritten.
func (s *MemoryMessageStore) StoreMessage(roomID domain.RoomID, message domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.messages[roomID]
	if !ok {
		room = make(map[uuid.UUID]domain.Message)
		s.messages[roomID] = room
	}
	if _, exists := room[message.ID]; exists {
		return fmt.Errorf("%w: %s", errors.ErrDuplicateMessageID, message.ID)
	}
	message.Room = roomID
	room[message.ID] = message.Clone()
	return nil
}

// GetMessage looks a message up inside one room only.
func (s *MemoryMessageStore) GetMessage(roomID domain.RoomID, messageID uuid.UUID) (domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	message, ok := s.messages[roomID][messageID]
	if !ok {
		return domain.Message{}, fmt.Errorf("%w: %s", errors.ErrMessageNotFound, messageID)
	}
	return message.Clone(), nil
}

// UpdateMessage replaces a stored message, used to persist reaction changes.
func (s *MemoryMessageStore) UpdateMessage(roomID domain.RoomID, message domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.messages[roomID]
	if _, ok := room[message.ID]; !ok {
		return fmt.Errorf("%w: %s", errors.ErrMessageNotFound, message.ID)
	}
	message.Room = roomID
	room[message.ID] = message.Clone()
	return nil
}

func (s *MemoryMessageStore) CountMessages(roomID domain.RoomID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages[roomID])
}
