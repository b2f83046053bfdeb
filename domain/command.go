// Package domain contains core concepts of the chat system.
// This file defines the commands accepted by the chat service.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReactionAction string

const (
	ReactionAdd    ReactionAction = "add"
	ReactionRemove ReactionAction = "remove"
)

// PostMessageCommand publishes content in a room.
// ConnectionID, when set, must still be registered in the room.
type PostMessageCommand struct {
	Room         RoomID
	ConnectionID string
	Author       string
	Content      string
	CreatedAt    time.Time
}

// ReactCommand targets one stored message of a room.
// ConnectionID follows the same rule as for PostMessageCommand.
type ReactCommand struct {
	Room         RoomID
	ConnectionID string
	MessageID    uuid.UUID
	Emoji        string
	User         string
	Action       ReactionAction
}
