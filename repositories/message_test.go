package repositories

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]contract.IMessageStore {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	db, err := OpenInMemoryBadger()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]contract.IMessageStore{
		"memory": NewMemoryMessageStore(log),
		"badger": NewBadgerMessageStore(db, log),
	}
}

func TestMessageStore_Store_And_Get(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			at := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
			message := domain.NewMessage("r1", "alice", "hi", at)

			// When a message is stored
			req.NoError(store.StoreMessage("r1", message))

			// Then it can be read back from the same room
			got, err := store.GetMessage("r1", message.ID)
			req.NoError(err)
			req.Equal(message.ID, got.ID)
			req.Equal(domain.RoomID("r1"), got.Room)
			req.Equal("alice", got.Author)
			req.Equal("hi", got.Content)
			req.Equal(domain.MessageTypeMessage, got.Type)
			req.True(at.Equal(got.CreatedAt))
			req.Empty(got.Reactions)
			req.NotNil(got.Reactions)
			req.Equal(1, store.CountMessages("r1"))
		})
	}
}

func TestMessageStore_Duplicate_ID(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			message := domain.NewMessage("r1", "alice", "hi", time.Now())
			req.NoError(store.StoreMessage("r1", message))

			// When the same id is stored again
			overwrite := message
			overwrite.Content = "overwritten"
			err := store.StoreMessage("r1", overwrite)

			// Then it is rejected and the original is kept
			req.ErrorIs(err, errors.ErrDuplicateMessageID)
			got, err := store.GetMessage("r1", message.ID)
			req.NoError(err)
			req.Equal("hi", got.Content)
		})
	}
}

func TestMessageStore_Get_Is_Scoped_By_Room(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			message := domain.NewMessage("r2", "bob", "hello", time.Now())
			req.NoError(store.StoreMessage("r2", message))

			// When looking the id up from another room
			_, err := store.GetMessage("r1", message.ID)

			// Then it is not found
			req.ErrorIs(err, errors.ErrMessageNotFound)
			_, err = store.GetMessage("r2", uuid.New())
			req.ErrorIs(err, errors.ErrMessageNotFound)
		})
	}
}

func TestMessageStore_Update_Reactions(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			message := domain.NewMessage("r1", "alice", "hi", time.Now())
			req.NoError(store.StoreMessage("r1", message))

			got, err := store.GetMessage("r1", message.ID)
			req.NoError(err)
			got.Reactions.Add("👍", "bob")

			// Given the read copy was changed, the store is untouched until updated
			untouched, err := store.GetMessage("r1", message.ID)
			req.NoError(err)
			req.Empty(untouched.Reactions)

			req.NoError(store.UpdateMessage("r1", got))
			updated, err := store.GetMessage("r1", message.ID)
			req.NoError(err)
			req.Equal(domain.ReactionData{"👍": {"bob"}}, updated.Reactions)
		})
	}
}

func TestMessageStore_Update_Unknown_Message(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			message := domain.NewMessage("r1", "alice", "hi", time.Now())
			require.ErrorIs(t, store.UpdateMessage("r1", message), errors.ErrMessageNotFound)
		})
	}
}

func TestMessageStore_Count_Ignores_Rooms_Sharing_A_Prefix(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			req.NoError(store.StoreMessage("a", domain.NewMessage("a", "alice", "1", time.Now())))
			req.NoError(store.StoreMessage("a:b", domain.NewMessage("a:b", "bob", "2", time.Now())))
			req.NoError(store.StoreMessage("a:b", domain.NewMessage("a:b", "bob", "3", time.Now())))

			req.Equal(1, store.CountMessages("a"))
			req.Equal(2, store.CountMessages("a:b"))
			req.Equal(0, store.CountMessages("b"))
		})
	}
}
