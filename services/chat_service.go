package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/runtime"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

type IChatService interface {
	JoinRoom(roomID domain.RoomID, conn contract.Connection, name string) []string
	LeaveRoom(roomID domain.RoomID, connectionID string)
	Handle(roomID domain.RoomID, participant domain.Participant, data []byte) error
	PostMessage(cmd domain.PostMessageCommand) (domain.Message, error)
	React(cmd domain.ReactCommand) error
	Stats() []contract.RoomStats
}

// ChatService drives the registry, the message store and the dispatcher.
// Every operation holds the room lock from the first read to the end of the
// fan-out, so the next operation on that room sees a settled roster.
type ChatService struct {
	log        *slog.Logger
	registry   contract.IRegistry
	store      contract.IMessageStore
	dispatcher contract.IDispatcher
	locks      *runtime.RoomLocks
	now        func() time.Time
}

func NewChatService(log *slog.Logger, registry contract.IRegistry, store contract.IMessageStore,
	dispatcher contract.IDispatcher, locks *runtime.RoomLocks) *ChatService {
	return &ChatService{
		log:        log,
		registry:   registry,
		store:      store,
		dispatcher: dispatcher,
		locks:      locks,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// JoinRoom registers the connection and tells the whole room, newcomer included.
func (s *ChatService) JoinRoom(roomID domain.RoomID, conn contract.Connection, name string) []string {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	roster := s.registry.Join(roomID, conn, name)
	s.log.Info("Participant joined", "room", roomID, "user", name, "connection_id", conn.ID())
	s.dispatcher.Broadcast(roomID, event.Joined{User: name, Online: roster})
	return roster
}

// LeaveRoom unregisters the connection. Nothing is broadcast when it was
// already gone or when nobody is left to hear about it.
func (s *ChatService) LeaveRoom(roomID domain.RoomID, connectionID string) {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	participant, roster, ok := s.registry.Leave(roomID, connectionID)
	if !ok {
		return
	}
	s.log.Info("Participant left", "room", roomID, "user", participant.Name, "connection_id", connectionID)
	if len(roster) == 0 {
		return
	}
	s.dispatcher.Broadcast(roomID, event.Left{User: participant.Name, Online: roster})
}

// Handle classifies one inbound frame and dispatches it.
// The returned error only explains why the frame was dropped.
func (s *ChatService) Handle(roomID domain.RoomID, participant domain.Participant, data []byte) error {
	inbound, err := event.ParseInbound(data)
	if err != nil {
		return err
	}

	switch e := inbound.(type) {
	case event.PostMessage:
		_, err := s.PostMessage(domain.PostMessageCommand{
			Room:         roomID,
			ConnectionID: participant.ConnectionID,
			Author:       participant.Name,
			Content:      *e.Content,
			CreatedAt:    s.now(),
		})
		return err
	case event.ReactionRequest:
		cmd, err := e.ReactCommand(roomID, participant.Name)
		if err != nil {
			return err
		}
		cmd.ConnectionID = participant.ConnectionID
		return s.React(cmd)
	default:
		return fmt.Errorf("%w: %s", errors.ErrUnknownEventType, inbound.InboundType())
	}
}

func (s *ChatService) PostMessage(cmd domain.PostMessageCommand) (domain.Message, error) {
	unlock := s.locks.Lock(cmd.Room)
	defer unlock()

	if err := s.checkConnected(cmd.Room, cmd.ConnectionID); err != nil {
		return domain.Message{}, err
	}
	message := domain.NewMessage(cmd.Room, cmd.Author, cmd.Content, cmd.CreatedAt)
	if err := s.store.StoreMessage(cmd.Room, message); err != nil {
		s.log.Error("Unable to store message", "room", cmd.Room, "message_id", message.ID, "error", err)
		return domain.Message{}, fmt.Errorf("store message: %w", err)
	}
	s.dispatcher.Broadcast(cmd.Room, event.NewMessagePosted(message))
	return message, nil
}

// React applies a reaction change to a message of the same room and broadcasts
// the new state. A change that leaves the reactions as they were returns
// ErrReactionNotApplied and nothing is sent.
func (s *ChatService) React(cmd domain.ReactCommand) error {
	unlock := s.locks.Lock(cmd.Room)
	defer unlock()

	if err := s.checkConnected(cmd.Room, cmd.ConnectionID); err != nil {
		return err
	}
	if !s.registry.IsMember(cmd.Room, cmd.User) {
		return fmt.Errorf("%w: %s", errors.ErrNotRoomMember, cmd.User)
	}
	message, err := s.store.GetMessage(cmd.Room, cmd.MessageID)
	if err != nil {
		return err
	}
	changed, err := message.React(cmd)
	if err != nil {
		return err
	}
	if !changed {
		return errors.ErrReactionNotApplied
	}
	if err := s.store.UpdateMessage(cmd.Room, message); err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	s.dispatcher.Broadcast(cmd.Room, event.NewReactionUpdated(message, cmd, s.now()))
	return nil
}

// checkConnected fails once the connection is no longer registered in the room,
// which is the case after an eviction. An empty id is not checked.
func (s *ChatService) checkConnected(roomID domain.RoomID, connectionID string) error {
	if connectionID == "" {
		return nil
	}
	registered := lo.ContainsBy(s.registry.Connections(roomID), func(conn contract.Connection) bool {
		return conn.ID() == connectionID
	})
	if !registered {
		return fmt.Errorf("%w: %w", errors.ErrNotRoomMember, errors.ErrConnectionEvicted)
	}
	return nil
}

func (s *ChatService) Stats() []contract.RoomStats {
	var stats []contract.RoomStats
	for _, roomID := range s.registry.Rooms() {
		roster := s.registry.Roster(roomID)
		stats = append(stats, contract.RoomStats{
			Room:     roomID,
			Members:  len(roster),
			Messages: s.store.CountMessages(roomID),
			Online:   roster,
		})
	}
	return stats
}
