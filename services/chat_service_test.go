package services

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type frame struct {
	Type      string              `json:"type"`
	User      string              `json:"user"`
	Content   *string             `json:"content"`
	MessageID string              `json:"message_id"`
	Emoji     string              `json:"emoji"`
	Users     []string            `json:"users"`
	Online    []string            `json:"online"`
	Reactions map[string][]string `json:"reactions"`
	Timestamp *time.Time          `json:"timestamp"`
}

type recordingConnection struct {
	mu     sync.Mutex
	id     string
	frames []frame
	closed bool
}

func newRecordingConnection() *recordingConnection {
	return &recordingConnection{id: uuid.NewString()}
}

func (r *recordingConnection) ID() string { return r.id }

func (r *recordingConnection) Send(payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.ErrConnectionClosed
	}
	var f frame
	if err := json.Unmarshal(payload, &f); err != nil {
		return err
	}
	r.frames = append(r.frames, f)
	return nil
}

func (r *recordingConnection) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recordingConnection) received() []frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]frame{}, r.frames...)
}

func (r *recordingConnection) last() frame {
	frames := r.received()
	return frames[len(frames)-1]
}

func newTestService() (*ChatService, *runtime.Registry, *repositories.MemoryMessageStore) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := runtime.NewRegistry()
	store := repositories.NewMemoryMessageStore(log)
	dispatcher := runtime.NewDispatcher(log, registry)
	return NewChatService(log, registry, store, dispatcher, runtime.NewRoomLocks()), registry, store
}

func participant(conn *recordingConnection, name string) domain.Participant {
	return domain.NewParticipant(conn.ID(), name)
}

func TestChatService_Room_Scenario(t *testing.T) {
	req := require.New(t)
	service, _, _ := newTestService()
	alice := newRecordingConnection()
	bob := newRecordingConnection()

	// Given alice joins r1
	req.Equal([]string{"alice"}, service.JoinRoom("r1", alice, "alice"))
	req.Equal("join", alice.last().Type)
	req.Equal([]string{"alice"}, alice.last().Online)

	// When bob joins r1, both see the full roster
	req.Equal([]string{"alice", "bob"}, service.JoinRoom("r1", bob, "bob"))
	for _, conn := range []*recordingConnection{alice, bob} {
		req.Equal("join", conn.last().Type)
		req.Equal("bob", conn.last().User)
		req.Equal([]string{"alice", "bob"}, conn.last().Online)
	}

	// When alice says hi
	req.NoError(service.Handle("r1", participant(alice, "alice"), []byte(`{"type":"message","content":"hi"}`)))
	posted := bob.last()
	req.Equal("message", posted.Type)
	req.Equal("alice", posted.User)
	req.Equal("hi", *posted.Content)
	req.NotEmpty(posted.MessageID)
	req.NotNil(posted.Reactions)
	req.Empty(posted.Reactions)
	req.NotNil(posted.Timestamp)
	req.Equal(posted, alice.last())

	// When bob reacts with a thumbs up
	addReaction := fmt.Sprintf(`{"type":"add_reaction","message_id":%q,"emoji":"👍"}`, posted.MessageID)
	req.NoError(service.Handle("r1", participant(bob, "bob"), []byte(addReaction)))
	for _, conn := range []*recordingConnection{alice, bob} {
		update := conn.last()
		req.Equal("reaction_update", update.Type)
		req.Equal("bob", update.User)
		req.Equal(posted.MessageID, update.MessageID)
		req.Equal("👍", update.Emoji)
		req.Equal([]string{"bob"}, update.Users)
		req.Equal(map[string][]string{"👍": {"bob"}}, update.Reactions)
	}

	// When bob removes it again
	removeReaction := fmt.Sprintf(`{"type":"remove_reaction","message_id":%q,"emoji":"👍"}`, posted.MessageID)
	req.NoError(service.Handle("r1", participant(bob, "bob"), []byte(removeReaction)))
	update := alice.last()
	req.Equal("reaction_update", update.Type)
	req.NotNil(update.Users)
	req.Empty(update.Users)
	req.Empty(update.Reactions)

	// When alice disconnects, bob is told and is alone
	service.LeaveRoom("r1", alice.ID())
	req.Equal("leave", bob.last().Type)
	req.Equal("alice", bob.last().User)
	req.Equal([]string{"bob"}, bob.last().Online)
	req.Len(bob.received(), 5)
	req.Len(alice.received(), 5)
}

func TestChatService_Reaction_Idempotent_Add_Broadcasts_Once(t *testing.T) {
	req := require.New(t)
	service, _, store := newTestService()
	alice := newRecordingConnection()
	service.JoinRoom("r1", alice, "alice")
	message, err := service.PostMessage(domain.PostMessageCommand{Room: "r1", Author: "alice", Content: "hi", CreatedAt: time.Now()})
	req.NoError(err)
	before := len(alice.received())

	cmd := domain.ReactCommand{Room: "r1", MessageID: message.ID, Emoji: "🎉", User: "alice", Action: domain.ReactionAdd}
	req.NoError(service.React(cmd))
	req.ErrorIs(service.React(cmd), errors.ErrReactionNotApplied)

	// Then one update only and the state is the one-add state
	req.Len(alice.received(), before+1)
	stored, err := store.GetMessage("r1", message.ID)
	req.NoError(err)
	req.Equal(domain.ReactionData{"🎉": {"alice"}}, stored.Reactions)
}

func TestChatService_Remove_Never_Added_Does_Not_Broadcast(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	registry := runtime.NewRegistry()
	store := repositories.NewMemoryMessageStore(log)
	dispatcher := mocks.NewMockIDispatcher(ctrl)
	service := NewChatService(log, registry, store, dispatcher, runtime.NewRoomLocks())

	// Given alice joined and posted a message
	dispatcher.EXPECT().Broadcast(domain.RoomID("r1"), gomock.Any()).Times(2)
	alice := newRecordingConnection()
	service.JoinRoom("r1", alice, "alice")
	message, err := service.PostMessage(domain.PostMessageCommand{Room: "r1", Author: "alice", Content: "hi", CreatedAt: time.Now()})
	req.NoError(err)

	// When alice removes a reaction she never added
	data := fmt.Sprintf(`{"type":"reaction","message_id":%q,"emoji":"👍","action":"remove"}`, message.ID)
	err = service.Handle("r1", participant(alice, "alice"), []byte(data))

	// Then nothing is broadcast and reactions are unchanged
	req.ErrorIs(err, errors.ErrReactionNotApplied)
	stored, err := store.GetMessage("r1", message.ID)
	req.NoError(err)
	req.Empty(stored.Reactions)
}

func TestChatService_Unified_And_Dedicated_Remove_Match(t *testing.T) {
	req := require.New(t)
	results := make([]domain.ReactionData, 0, 2)

	for _, removal := range []string{
		`{"type":"remove_reaction","message_id":%q,"emoji":"👍"}`,
		`{"type":"reaction","message_id":%q,"emoji":"👍","action":"remove"}`,
	} {
		service, _, store := newTestService()
		alice := newRecordingConnection()
		bob := newRecordingConnection()
		service.JoinRoom("r1", alice, "alice")
		service.JoinRoom("r1", bob, "bob")
		message, err := service.PostMessage(domain.PostMessageCommand{Room: "r1", Author: "alice", Content: "hi", CreatedAt: time.Now()})
		req.NoError(err)
		add := fmt.Sprintf(`{"type":"reaction","message_id":%q,"emoji":"👍","action":"add"}`, message.ID)
		req.NoError(service.Handle("r1", participant(alice, "alice"), []byte(add)))
		req.NoError(service.Handle("r1", participant(bob, "bob"), []byte(add)))

		req.NoError(service.Handle("r1", participant(bob, "bob"), []byte(fmt.Sprintf(removal, message.ID))))
		stored, err := store.GetMessage("r1", message.ID)
		req.NoError(err)
		results = append(results, stored.Reactions)
	}

	req.Equal(results[0], results[1])
	req.Equal(domain.ReactionData{"👍": {"alice"}}, results[0])
}

func TestChatService_React_Requires_Membership(t *testing.T) {
	req := require.New(t)
	service, _, _ := newTestService()
	alice := newRecordingConnection()
	service.JoinRoom("r1", alice, "alice")
	message, err := service.PostMessage(domain.PostMessageCommand{Room: "r1", Author: "alice", Content: "hi", CreatedAt: time.Now()})
	req.NoError(err)
	before := len(alice.received())

	// When someone who is not on the roster reacts
	err = service.React(domain.ReactCommand{Room: "r1", MessageID: message.ID, Emoji: "👍", User: "mallory", Action: domain.ReactionAdd})

	// Then it is dropped
	req.ErrorIs(err, errors.ErrNotRoomMember)
	req.Len(alice.received(), before)
}

func TestChatService_React_Target_In_Other_Room(t *testing.T) {
	req := require.New(t)
	service, _, _ := newTestService()
	alice := newRecordingConnection()
	bob := newRecordingConnection()
	service.JoinRoom("r1", alice, "alice")
	service.JoinRoom("r2", bob, "bob")
	message, err := service.PostMessage(domain.PostMessageCommand{Room: "r2", Author: "bob", Content: "hello", CreatedAt: time.Now()})
	req.NoError(err)
	before := len(alice.received())

	// When alice reacts from r1 to a message of r2
	data := fmt.Sprintf(`{"type":"add_reaction","message_id":%q,"emoji":"👍"}`, message.ID)
	err = service.Handle("r1", participant(alice, "alice"), []byte(data))

	// Then the message is not found and nobody is told
	req.ErrorIs(err, errors.ErrMessageNotFound)
	req.Len(alice.received(), before)
}

func TestChatService_Handle_Drops_Malformed_And_Unknown(t *testing.T) {
	req := require.New(t)
	service, registry, _ := newTestService()
	alice := newRecordingConnection()
	service.JoinRoom("r1", alice, "alice")
	before := len(alice.received())

	req.ErrorIs(service.Handle("r1", participant(alice, "alice"), []byte(`{not json`)), errors.ErrMalformedEvent)
	req.ErrorIs(service.Handle("r1", participant(alice, "alice"), []byte(`{"type":"message"}`)), errors.ErrMalformedEvent)
	req.ErrorIs(service.Handle("r1", participant(alice, "alice"), []byte(`{"type":"typing"}`)), errors.ErrUnknownEventType)

	// Then nothing was sent and alice is still joined
	req.Len(alice.received(), before)
	req.True(registry.IsMember("r1", "alice"))
}

func TestChatService_Leave_Last_Member_Sends_Nothing(t *testing.T) {
	req := require.New(t)
	service, registry, _ := newTestService()
	alice := newRecordingConnection()
	service.JoinRoom("r1", alice, "alice")
	before := len(alice.received())

	service.LeaveRoom("r1", alice.ID())
	service.LeaveRoom("r1", alice.ID())

	req.Len(alice.received(), before)
	req.Empty(registry.Rooms())
}

func TestChatService_Failed_Delivery_Evicts_And_Notifies(t *testing.T) {
	req := require.New(t)
	service, registry, _ := newTestService()
	alice := newRecordingConnection()
	bob := newRecordingConnection()
	service.JoinRoom("r1", alice, "alice")
	service.JoinRoom("r1", bob, "bob")

	// Given bob's connection is dead
	req.NoError(bob.Close())

	// When alice posts
	_, err := service.PostMessage(domain.PostMessageCommand{Room: "r1", Author: "alice", Content: "anyone?", CreatedAt: time.Now()})
	req.NoError(err)

	// Then alice got her message and bob's leave
	frames := alice.received()
	req.Equal("message", frames[len(frames)-2].Type)
	req.Equal("leave", frames[len(frames)-1].Type)
	req.Equal("bob", frames[len(frames)-1].User)
	req.Equal([]string{"alice"}, frames[len(frames)-1].Online)
	req.False(registry.IsMember("r1", "bob"))

	// And a later disconnect of bob changes nothing
	service.LeaveRoom("r1", bob.ID())
	req.Len(alice.received(), len(frames))
}

func TestChatService_Concurrent_Reactions_Are_Not_Lost(t *testing.T) {
	req := require.New(t)
	service, _, store := newTestService()
	author := newRecordingConnection()
	service.JoinRoom("r1", author, "author")
	message, err := service.PostMessage(domain.PostMessageCommand{Room: "r1", Author: "author", Content: "vote", CreatedAt: time.Now()})
	req.NoError(err)

	names := make([]string, 50)
	for i := range names {
		names[i] = fmt.Sprintf("user-%02d", i)
		service.JoinRoom("r1", newRecordingConnection(), names[i])
	}

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = service.React(domain.ReactCommand{Room: "r1", MessageID: message.ID, Emoji: "👍", User: name, Action: domain.ReactionAdd})
		}()
	}
	wg.Wait()

	stored, err := store.GetMessage("r1", message.ID)
	req.NoError(err)
	req.ElementsMatch(names, stored.Reactions["👍"])
}

func TestChatService_Stats(t *testing.T) {
	req := require.New(t)
	service, _, _ := newTestService()
	service.JoinRoom("r1", newRecordingConnection(), "alice")
	service.JoinRoom("r1", newRecordingConnection(), "bob")
	service.JoinRoom("r2", newRecordingConnection(), "carol")
	_, err := service.PostMessage(domain.PostMessageCommand{Room: "r1", Author: "alice", Content: "hi", CreatedAt: time.Now()})
	req.NoError(err)

	stats := service.Stats()
	req.Len(stats, 2)
	req.Equal(domain.RoomID("r1"), stats[0].Room)
	req.Equal(2, stats[0].Members)
	req.Equal(1, stats[0].Messages)
	req.Equal([]string{"alice", "bob"}, stats[0].Online)
	req.Equal(0, stats[1].Messages)
}

func TestChatService_Evicted_Connection_Cannot_Post_Or_React(t *testing.T) {
	req := require.New(t)
	service, _, _ := newTestService()
	alice := newRecordingConnection()
	bob := newRecordingConnection()
	service.JoinRoom("r1", alice, "alice")
	service.JoinRoom("r1", bob, "bob")
	message, err := service.PostMessage(domain.PostMessageCommand{Room: "r1", Author: "alice", Content: "hi", CreatedAt: time.Now()})
	req.NoError(err)

	// Given bob was evicted by a failed delivery
	req.NoError(bob.Close())
	_, err = service.PostMessage(domain.PostMessageCommand{Room: "r1", Author: "alice", Content: "again", CreatedAt: time.Now()})
	req.NoError(err)
	before := len(alice.received())

	// When frames still arrive from bob's connection
	err = service.Handle("r1", participant(bob, "bob"), []byte(`{"type":"message","content":"ghost"}`))
	req.ErrorIs(err, errors.ErrConnectionEvicted)
	reaction := fmt.Sprintf(`{"type":"add_reaction","message_id":%q,"emoji":"👍"}`, message.ID)
	err = service.Handle("r1", participant(bob, "bob"), []byte(reaction))
	req.ErrorIs(err, errors.ErrNotRoomMember)

	// Then nothing reaches the room
	req.Len(alice.received(), before)
}
