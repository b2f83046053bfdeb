// Package domain contains core concepts of the chat system.
// This file defines Participant entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import "strings"

// Participant is one live connection joined to a room under a display name.
// The display name is fixed at join time.
type Participant struct {
	ConnectionID string
	Name         string
}

func NewParticipant(connectionID, name string) Participant {
	return Participant{ConnectionID: connectionID, Name: strings.TrimSpace(name)}
}
