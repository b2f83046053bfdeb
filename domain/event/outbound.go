package event

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OutboundType string

const (
	OutboundJoin           OutboundType = "join"
	OutboundLeave          OutboundType = "leave"
	OutboundMessage        OutboundType = "message"
	OutboundReactionUpdate OutboundType = "reaction_update"
)

// Outbound is a frame broadcast to every member of a room.
// The variants are Joined, Left, MessagePosted and ReactionUpdated.
type Outbound interface {
	OutboundType() OutboundType
}

type Joined struct {
	User   string
	Online []string
}

func (Joined) OutboundType() OutboundType { return OutboundJoin }

type Left struct {
	User   string
	Online []string
}

func (Left) OutboundType() OutboundType { return OutboundLeave }

type MessagePosted struct {
	ID        uuid.UUID
	Author    string
	Content   string
	Reactions domain.ReactionData
	At        time.Time
}

func (MessagePosted) OutboundType() OutboundType { return OutboundMessage }

func NewMessagePosted(m domain.Message) MessagePosted {
	return MessagePosted{
		ID:        m.ID,
		Author:    m.Author,
		Content:   m.Content,
		Reactions: m.Reactions.Clone(),
		At:        m.CreatedAt,
	}
}

type ReactionUpdated struct {
	MessageID uuid.UUID
	User      string
	Emoji     string
	Users     []string
	Reactions domain.ReactionData
	At        time.Time
}

func (ReactionUpdated) OutboundType() OutboundType { return OutboundReactionUpdate }

// NewReactionUpdated snapshots the reactions of m after cmd was applied.
func NewReactionUpdated(m domain.Message, cmd domain.ReactCommand, at time.Time) ReactionUpdated {
	return ReactionUpdated{
		MessageID: m.ID,
		User:      cmd.User,
		Emoji:     cmd.Emoji,
		Users:     m.Reactions.Users(cmd.Emoji),
		Reactions: m.Reactions.Clone(),
		At:        at,
	}
}

type rosterFrame struct {
	Type   OutboundType `json:"type"`
	User   string       `json:"user"`
	Online []string     `json:"online"`
}

type messageFrame struct {
	Type      OutboundType        `json:"type"`
	User      string              `json:"user"`
	Content   string              `json:"content"`
	MessageID string              `json:"message_id"`
	Reactions map[string][]string `json:"reactions"`
	Timestamp time.Time           `json:"timestamp"`
}

type reactionFrame struct {
	Type      OutboundType        `json:"type"`
	User      string              `json:"user"`
	MessageID string              `json:"message_id"`
	Emoji     string              `json:"emoji"`
	Users     []string            `json:"users"`
	Reactions map[string][]string `json:"reactions"`
	Timestamp time.Time           `json:"timestamp"`
}

// Encode serialises an outbound event to its wire frame.
func Encode(evt Outbound) ([]byte, error) {
	switch e := evt.(type) {
	case Joined:
		return json.Marshal(rosterFrame{Type: OutboundJoin, User: e.User, Online: nonNil(e.Online)})
	case Left:
		return json.Marshal(rosterFrame{Type: OutboundLeave, User: e.User, Online: nonNil(e.Online)})
	case MessagePosted:
		return json.Marshal(messageFrame{
			Type:      OutboundMessage,
			User:      e.Author,
			Content:   e.Content,
			MessageID: e.ID.String(),
			Reactions: reactionsOrEmpty(e.Reactions),
			Timestamp: e.At,
		})
	case ReactionUpdated:
		return json.Marshal(reactionFrame{
			Type:      OutboundReactionUpdate,
			User:      e.User,
			MessageID: e.MessageID.String(),
			Emoji:     e.Emoji,
			Users:     nonNil(e.Users),
			Reactions: reactionsOrEmpty(e.Reactions),
			Timestamp: e.At,
		})
	}
	return nil, fmt.Errorf("%w: %T", errors.ErrUnknownEventType, evt)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func reactionsOrEmpty(r domain.ReactionData) map[string][]string {
	if r == nil {
		return map[string][]string{}
	}
	return r
}
