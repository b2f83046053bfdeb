package client

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/samber/lo"
)

type serverFrame struct {
	Type      string              `json:"type"`
	User      string              `json:"user"`
	Content   string              `json:"content"`
	MessageID string              `json:"message_id"`
	Emoji     string              `json:"emoji"`
	Users     []string            `json:"users"`
	Online    []string            `json:"online"`
	Reactions map[string][]string `json:"reactions"`
	Timestamp time.Time           `json:"timestamp"`
}

var styles = map[string]color.Style{
	"join":            color.New(color.FgGreen),
	"leave":           color.New(color.FgYellow),
	"message":         color.New(color.FgWhite),
	"reaction_update": color.New(color.FgCyan),
}

// Render formats one server frame as a single line.
func Render(data []byte, colours bool) (string, error) {
	var f serverFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return "", err
	}

	var line string
	switch f.Type {
	case "join":
		line = fmt.Sprintf("--> %s joined (online: %s)", f.User, strings.Join(f.Online, ", "))
	case "leave":
		line = fmt.Sprintf("<-- %s left (online: %s)", f.User, strings.Join(f.Online, ", "))
	case "message":
		line = fmt.Sprintf("[%s] %s: %s  (%s)", f.Timestamp.Format(time.TimeOnly), f.User, f.Content, f.MessageID)
	case "reaction_update":
		line = fmt.Sprintf("%s reacted %s on %s: %s", f.User, f.Emoji, f.MessageID, summary(f.Reactions))
	default:
		line = string(data)
	}

	if style, ok := styles[f.Type]; ok && colours {
		return style.Render(line), nil
	}
	return line, nil
}

func summary(reactions map[string][]string) string {
	if len(reactions) == 0 {
		return "no reactions"
	}
	emojis := lo.Keys(reactions)
	sort.Strings(emojis)
	return strings.Join(lo.Map(emojis, func(emoji string, _ int) string {
		return fmt.Sprintf("%s %d", emoji, len(reactions[emoji]))
	}), " ")
}
