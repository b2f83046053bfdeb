package client

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrUsage is returned for slash commands with missing arguments.
var ErrUsage = fmt.Errorf("usage: /react <message_id> <emoji> | /unreact <message_id> <emoji> | /quit")

// ParseLine turns one line typed by the user into an inbound frame.
// quit is true for /quit, in which case frame is nil.
func ParseLine(line string) (frame []byte, quit bool, err error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		frame, err = json.Marshal(map[string]string{"type": "message", "content": line})
		return frame, false, err
	}

	fields := strings.Fields(trimmed)
	switch fields[0] {
	case "/quit":
		return nil, true, nil
	case "/react", "/unreact":
		if len(fields) != 3 {
			return nil, false, ErrUsage
		}
		eventType := "add_reaction"
		if fields[0] == "/unreact" {
			eventType = "remove_reaction"
		}
		frame, err = json.Marshal(map[string]string{
			"type":       eventType,
			"message_id": fields[1],
			"emoji":      fields[2],
		})
		return frame, false, err
	}
	return nil, false, ErrUsage
}
