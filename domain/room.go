// Package domain contains core concepts of the chat system.
// This file defines Room identity.
package domain

import "strings"

// RoomID names an independent broadcast domain.
type RoomID string

func NewRoomID(name string) RoomID {
	return RoomID(strings.TrimSpace(name))
}

func (r RoomID) String() string {
	return string(r)
}
