package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrDuplicateMessageID = fmt.Errorf("message id already stored in room")
	ErrMessageNotFound    = fmt.Errorf("message not found in room")
	ErrReactionNotApplied = fmt.Errorf("reaction not applied")
	ErrUnknownEventType   = fmt.Errorf("unknown event type")
	ErrMalformedEvent     = fmt.Errorf("malformed event")
	ErrNotRoomMember      = fmt.Errorf("user is not a member of the room")
	ErrSendQueueFull      = fmt.Errorf("send queue full")
	ErrConnectionClosed   = fmt.Errorf("connection closed")
	ErrConnectionEvicted  = fmt.Errorf("connection evicted from the room")
	ErrSessionNotJoined   = fmt.Errorf("session is not joined")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
)
