package e2e

import (
	"fmt"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type Frame struct {
	Type      string              `json:"type"`
	User      string              `json:"user"`
	Content   string              `json:"content"`
	MessageID string              `json:"message_id"`
	Emoji     string              `json:"emoji"`
	Users     []string            `json:"users"`
	Online    []string            `json:"online"`
	Reactions map[string][]string `json:"reactions"`
}

type BaseWsSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration and skips when no relay is configured
func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerURL == "" {
		s.T().Skip("E2E_SERVER_URL not set")
	}
}

// Step prints a colorized header for a scenario step
func (s *BaseWsSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Dial joins a room on the running relay
func (s *BaseWsSuite) Dial(room, user string) *websocket.Conn {
	url := strings.TrimSuffix(s.Config.ServerURL, "/") + "/ws/" + room + "/" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err, "Failed to connect to relay at "+url)
	s.T().Cleanup(func() { _ = conn.Close() })
	return conn
}

// Next reads one frame, failing the test after a short timeout
func (s *BaseWsSuite) Next(conn *websocket.Conn) Frame {
	var f Frame
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	s.Require().NoError(conn.ReadJSON(&f))
	s.T().Logf("<- %s %s", f.Type, f.User)
	return f
}
