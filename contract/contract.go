//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"

	"github.com/google/uuid"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Connection is one live channel to a single client.
// Send must not block; a returned error means the connection has to be evicted.
type Connection interface {
	ID() string
	Send(payload []byte) error
	Close() error
}

type RoomStats struct {
	Room     domain.RoomID
	Members  int
	Messages int
	Online   []string
}

type IRegistry interface {
	Join(roomID domain.RoomID, conn Connection, name string) []string
	Leave(roomID domain.RoomID, connectionID string) (domain.Participant, []string, bool)
	IsMember(roomID domain.RoomID, name string) bool
	Connections(roomID domain.RoomID) []Connection
	Roster(roomID domain.RoomID) []string
	Rooms() []domain.RoomID
}

type IMessageStore interface {
	StoreMessage(roomID domain.RoomID, message domain.Message) error
	GetMessage(roomID domain.RoomID, messageID uuid.UUID) (domain.Message, error)
	UpdateMessage(roomID domain.RoomID, message domain.Message) error
	CountMessages(roomID domain.RoomID) int
}

type IDispatcher interface {
	Broadcast(roomID domain.RoomID, evt event.Outbound)
}
