package event

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

type InboundType string

const (
	InboundMessage        InboundType = "message"
	InboundAddReaction    InboundType = "add_reaction"
	InboundRemoveReaction InboundType = "remove_reaction"
	InboundReaction       InboundType = "reaction"
)

// Inbound is a frame received from a client. The variants are
// PostMessage, AddReaction, RemoveReaction and Reaction.
type Inbound interface {
	InboundType() InboundType
}

// ReactionRequest is implemented by every inbound variant targeting a reaction.
type ReactionRequest interface {
	Inbound
	ReactCommand(room domain.RoomID, user string) (domain.ReactCommand, error)
}

type PostMessage struct {
	Content *string `json:"content" validate:"required"`
}

func (PostMessage) InboundType() InboundType { return InboundMessage }

type AddReaction struct {
	MessageID string `json:"message_id" validate:"required,uuid"`
	Emoji     string `json:"emoji" validate:"required"`
}

func (AddReaction) InboundType() InboundType { return InboundAddReaction }

func (a AddReaction) ReactCommand(room domain.RoomID, user string) (domain.ReactCommand, error) {
	return toReactCommand(room, user, a.MessageID, a.Emoji, domain.ReactionAdd)
}

type RemoveReaction struct {
	MessageID string `json:"message_id" validate:"required,uuid"`
	Emoji     string `json:"emoji" validate:"required"`
}

func (RemoveReaction) InboundType() InboundType { return InboundRemoveReaction }

func (r RemoveReaction) ReactCommand(room domain.RoomID, user string) (domain.ReactCommand, error) {
	return toReactCommand(room, user, r.MessageID, r.Emoji, domain.ReactionRemove)
}

// Reaction is the unified form carrying the action explicitly.
type Reaction struct {
	MessageID string `json:"message_id" validate:"required,uuid"`
	Emoji     string `json:"emoji" validate:"required"`
	Action    string `json:"action" validate:"required,oneof=add remove"`
}

func (Reaction) InboundType() InboundType { return InboundReaction }

func (r Reaction) ReactCommand(room domain.RoomID, user string) (domain.ReactCommand, error) {
	return toReactCommand(room, user, r.MessageID, r.Emoji, domain.ReactionAction(r.Action))
}

func toReactCommand(room domain.RoomID, user, messageID, emoji string, action domain.ReactionAction) (domain.ReactCommand, error) {
	id, err := uuid.Parse(messageID)
	if err != nil {
		return domain.ReactCommand{}, fmt.Errorf("%w: message_id: %v", errors.ErrMalformedEvent, err)
	}
	return domain.ReactCommand{
		Room:      room,
		MessageID: id,
		Emoji:     emoji,
		User:      user,
		Action:    action,
	}, nil
}

// ParseInbound decodes a client frame by its type tag and validates its shape.
// Unknown tags return ErrUnknownEventType, anything unparseable ErrMalformedEvent.
func ParseInbound(data []byte) (Inbound, error) {
	var envelope struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedEvent, err)
	}
	if envelope.Type == nil {
		return nil, fmt.Errorf("%w: missing type", errors.ErrMalformedEvent)
	}

	switch InboundType(*envelope.Type) {
	case InboundMessage:
		return decode[PostMessage](data)
	case InboundAddReaction:
		return decode[AddReaction](data)
	case InboundRemoveReaction:
		return decode[RemoveReaction](data)
	case InboundReaction:
		return decode[Reaction](data)
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownEventType, *envelope.Type)
	}
}

func decode[T Inbound](data []byte) (Inbound, error) {
	var frame T
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedEvent, err)
	}
	if err := validate.Struct(frame); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedEvent, err)
	}
	return frame, nil
}
