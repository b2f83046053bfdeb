package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	stderrors "errors"
	"log/slog"
	"sync"
)

type SessionState int

const (
	SessionConnecting SessionState = iota
	SessionJoined
	SessionClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionConnecting:
		return "connecting"
	case SessionJoined:
		return "joined"
	case SessionClosed:
		return "closed"
	}
	return "unknown"
}

// Session is the lifecycle of one connection: Connecting, Joined, then Closed for good.
type Session struct {
	mu          sync.Mutex
	log         *slog.Logger
	service     IChatService
	room        domain.RoomID
	participant domain.Participant
	conn        contract.Connection
	state       SessionState
}

func NewSession(log *slog.Logger, service IChatService, roomID domain.RoomID, conn contract.Connection, name string) *Session {
	return &Session{
		log:         log.With("room", roomID, "user", name, "connection_id", conn.ID()),
		service:     service,
		room:        roomID,
		participant: domain.NewParticipant(conn.ID(), name),
		conn:        conn,
		state:       SessionConnecting,
	}
}

// Open joins the room and returns the roster. It does nothing once the session left Connecting.
func (s *Session) Open() []string {
	s.mu.Lock()
	if s.state != SessionConnecting {
		s.mu.Unlock()
		return nil
	}
	s.state = SessionJoined
	s.mu.Unlock()

	return s.service.JoinRoom(s.room, s.conn, s.participant.Name)
}

// Receive handles one inbound frame. Frames that cannot be applied are logged
// and dropped; the session stays open unless its connection was evicted,
// in which case it moves to Closed without a second leave.
func (s *Session) Receive(data []byte) error {
	if s.State() != SessionJoined {
		return errors.ErrSessionNotJoined
	}
	err := s.service.Handle(s.room, s.participant, data)
	if stderrors.Is(err, errors.ErrConnectionEvicted) {
		s.log.Info("Connection evicted, closing session")
		s.mu.Lock()
		s.state = SessionClosed
		s.mu.Unlock()
		_ = s.conn.Close()
		return err
	}
	if err != nil {
		s.log.Debug("Inbound event dropped", "error", err)
		return err
	}
	return nil
}

// Close leaves the room once and closes the connection.
func (s *Session) Close() {
	s.mu.Lock()
	previous := s.state
	s.state = SessionClosed
	s.mu.Unlock()

	if previous == SessionClosed {
		return
	}
	if previous == SessionJoined {
		s.service.LeaveRoom(s.room, s.participant.ConnectionID)
	}
	_ = s.conn.Close()
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
