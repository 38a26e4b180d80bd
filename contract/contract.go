//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"

	"lexchat/domain"
)

// EventSink is one connected client's outbound channel. Push must never
// block: a sink whose buffer is full drops the event and reports false.
type EventSink interface {
	Push(e domain.Event) bool
}

// IRegistry holds live sessions and room subscriptions. Register replaces
// any existing session for the same user (last-connection-wins).
type IRegistry interface {
	Register(identity domain.Identity, sink EventSink) *Session
	Unregister(userID string, session *Session) bool
	Lookup(userID string) (*Session, bool)
	Snapshot() []domain.SessionSummary
	JoinRoom(userID, room string)
	LeaveAllRooms(userID string)
	InRoom(userID, room string) bool
	RoomSessions(room string) []*Session
	All() []*Session
}

// Session is a live connection's registry entry.
type Session struct {
	Identity    domain.Identity
	Sink        EventSink
	OnlineSince time.Time
}

// IMessageRepository is the append-only message store gateway.
type IMessageRepository interface {
	StoreMessage(ctx context.Context, message domain.Message) error
	GetMessages(ctx context.Context, room string, page, limit int) ([]domain.Message, bool, error)
	MarkMessagesRead(ctx context.Context, room, readerID string) (int, error)
}

// Worker is a supervised background task.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// used for logging during supervision without forcing a naming method on
// the Worker interface.
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
