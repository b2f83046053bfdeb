// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Only the reaction state of a stored message changes after creation.
package domain

import (
	"chat-relay/errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type MessageType string

const MessageTypeMessage MessageType = "message"

// Message represents a chat event stored for the lifetime of the process.
type Message struct {
	ID        uuid.UUID // unique identifier
	Room      RoomID
	Type      MessageType
	Author    string
	Content   string
	CreatedAt time.Time
	Reactions ReactionData
}

func NewMessage(room RoomID, author, content string, at time.Time) Message {
	return Message{
		ID:        uuid.New(),
		Room:      room,
		Type:      MessageTypeMessage,
		Author:    author,
		Content:   content,
		CreatedAt: at,
		Reactions: NewReactionData(),
	}
}

// Clone returns a copy whose reaction state can be changed independently.
func (m Message) Clone() Message {
	m.Reactions = m.Reactions.Clone()
	return m
}

// React applies the command to the message reactions.
// Adding a reaction that is already there is accepted without change;
// changed reports whether the reaction state moved.
func (m *Message) React(cmd ReactCommand) (changed bool, err error) {
	if m.Reactions == nil {
		m.Reactions = NewReactionData()
	}
	switch cmd.Action {
	case ReactionAdd:
		return m.Reactions.Add(cmd.Emoji, cmd.User), nil
	case ReactionRemove:
		if err := m.Reactions.Remove(cmd.Emoji, cmd.User); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, fmt.Errorf("%w: action %q", errors.ErrMalformedEvent, cmd.Action)
}
