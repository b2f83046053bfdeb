// Package domain contains core concepts of the chat system.
// This file defines the reaction state attached to a message.
package domain

import (
	"chat-relay/errors"

	"github.com/samber/lo"
)

// ReactionData maps an emoji to the display names that reacted with it.
// An emoji key exists only while at least one user reacted with it.
type ReactionData map[string][]string

func NewReactionData() ReactionData {
	return make(ReactionData)
}

// Add records user under emoji. It reports false when the pair was already present.
func (r ReactionData) Add(emoji, user string) bool {
	users := r[emoji]
	if lo.Contains(users, user) {
		return false
	}
	r[emoji] = append(users, user)
	return true
}

// Remove deletes user from emoji and prunes the emoji once nobody is left.
func (r ReactionData) Remove(emoji, user string) error {
	users, ok := r[emoji]
	if !ok || !lo.Contains(users, user) {
		return errors.ErrReactionNotApplied
	}
	remaining := lo.Without(users, user)
	if len(remaining) == 0 {
		delete(r, emoji)
		return nil
	}
	r[emoji] = remaining
	return nil
}

// Users returns the users that reacted with emoji, never nil.
func (r ReactionData) Users(emoji string) []string {
	return append([]string{}, r[emoji]...)
}

func (r ReactionData) Clone() ReactionData {
	clone := make(ReactionData, len(r))
	for emoji, users := range r {
		clone[emoji] = append([]string{}, users...)
	}
	return clone
}
