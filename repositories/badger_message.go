package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// BadgerMessageStore keeps messages in an in-memory badger instance.
// Nothing is written to disk, so messages live as long as the process.
type BadgerMessageStore struct {
	db  *badger.DB
	log *slog.Logger
}

// OpenInMemoryBadger opens a badger database that never touches the disk.
func OpenInMemoryBadger() (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.WARNING))
}

func NewBadgerMessageStore(db *badger.DB, log *slog.Logger) BadgerMessageStore {
	return BadgerMessageStore{db: db, log: log}
}

const uuidLength = 36

type diskMessage struct {
	ID        uuid.UUID           `json:"id"`
	Room      string              `json:"room"`
	Type      string              `json:"type"`
	Author    string              `json:"author"`
	Content   string              `json:"content"`
	CreatedAt time.Time           `json:"created_at"`
	Reactions map[string][]string `json:"reactions"`
}

// messageKey is formatted as "msg:{room}:{uuid}". The uuid has a fixed length,
// so a room name containing ':' cannot make two keys collide.
func messageKey(roomID domain.RoomID, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%s", roomID, id))
}

func roomPrefix(roomID domain.RoomID) []byte {
	return []byte(fmt.Sprintf("msg:%s:", roomID))
}

// StoreMessage inserts a message, rejecting an id already stored in the room.
func (b BadgerMessageStore) StoreMessage(roomID domain.RoomID, message domain.Message) error {
	key := messageKey(roomID, message.ID)
	bytes, err := json.Marshal(toDiskMessage(roomID, message))
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", errors.ErrDuplicateMessageID, message.ID)
		case !stderrors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return txn.Set(key, bytes)
	})
}

func (b BadgerMessageStore) GetMessage(roomID domain.RoomID, messageID uuid.UUID) (domain.Message, error) {
	var message diskMessage
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(messageKey(roomID, messageID))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &message)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, fmt.Errorf("%w: %s", errors.ErrMessageNotFound, messageID)
	}
	if err != nil {
		return domain.Message{}, err
	}
	return fromDiskMessage(message), nil
}

// UpdateMessage rewrites an existing message, used to persist reaction changes.
func (b BadgerMessageStore) UpdateMessage(roomID domain.RoomID, message domain.Message) error {
	key := messageKey(roomID, message.ID)
	bytes, err := json.Marshal(toDiskMessage(roomID, message))
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", errors.ErrMessageNotFound, message.ID)
			}
			return err
		}
		return txn.Set(key, bytes)
	})
}

// CountMessages scans the room prefix with a key-only iterator.
// Keys of a room whose name extends this one share the prefix and are skipped by length.
func (b BadgerMessageStore) CountMessages(roomID domain.RoomID) int {
	count := 0
	err := b.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := roomPrefix(roomID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if len(it.Item().Key()) == len(prefix)+uuidLength {
				count++
			}
		}
		return nil
	})
	if err != nil {
		b.log.Error("Unable to count messages", "room", roomID, "error", err)
	}
	return count
}

func toDiskMessage(roomID domain.RoomID, m domain.Message) diskMessage {
	reactions := m.Reactions
	if reactions == nil {
		reactions = domain.NewReactionData()
	}
	return diskMessage{
		ID:        m.ID,
		Room:      roomID.String(),
		Type:      string(m.Type),
		Author:    m.Author,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		Reactions: reactions,
	}
}

func fromDiskMessage(d diskMessage) domain.Message {
	reactions := domain.ReactionData(d.Reactions)
	if reactions == nil {
		reactions = domain.NewReactionData()
	}
	return domain.Message{
		ID:        d.ID,
		Room:      domain.RoomID(d.Room),
		Type:      domain.MessageType(d.Type),
		Author:    d.Author,
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
		Reactions: reactions,
	}
}
