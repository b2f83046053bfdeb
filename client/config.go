package client

import (
	"net/url"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	URL  string `envconfig:"CHAT_URL" default:"ws://localhost:8080"`
	Room string `envconfig:"CHAT_ROOM" default:"general"`
	User string `envconfig:"CHAT_USER" required:"true"`
	// CHAT_COLOURS enables colorized output per event type
	Colours bool `envconfig:"CHAT_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}

// Endpoint is the websocket address of the configured room for the configured user.
func (c Config) Endpoint() string {
	return strings.TrimSuffix(c.URL, "/") + "/ws/" + url.PathEscape(c.Room) + "/" + url.PathEscape(c.User)
}
