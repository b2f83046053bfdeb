package internal

import (
	"chat-relay/errors"
	"chat-relay/sink"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

const (
	StoreMemory = "memory"
	StoreBadger = "badger"
)

// Config is the relay server configuration read from the environment.
type Config struct {
	Host            string        `env:"HOST,default=localhost"`
	Port            int           `env:"PORT,default=8080" validate:"gt=0,lte=65535"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO" validate:"required"`
	SendBufferSize  int           `env:"SEND_BUFFER_SIZE,default=64" validate:"gt=0"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT,default=10s" validate:"gt=0"`
	PongTimeout     time.Duration `env:"PONG_TIMEOUT,default=60s" validate:"gt=0"`
	MaxMessageBytes int           `env:"MAX_MESSAGE_BYTES,default=65536" validate:"gt=0"`
	StoreBackend    string        `env:"STORE_BACKEND,default=memory" validate:"oneof=memory badger"`
	StatsInterval   time.Duration `env:"STATS_INTERVAL,default=30s" validate:"gt=0"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=1s" validate:"gt=0"`
	AllowedOrigins  string        `env:"ALLOWED_ORIGINS"`
}

var configValidator = validator.New()

func (c Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Origins splits ALLOWED_ORIGINS on commas, dropping blanks.
func (c Config) Origins() []string {
	origins := lo.Map(strings.Split(c.AllowedOrigins, ","), func(o string, _ int) string {
		return strings.TrimSpace(o)
	})
	return lo.Compact(origins)
}

func (c Config) WebsocketOptions() sink.WebsocketOptions {
	return sink.WebsocketOptions{
		SendBufferSize:  c.SendBufferSize,
		WriteTimeout:    c.WriteTimeout,
		PongTimeout:     c.PongTimeout,
		MaxMessageBytes: int64(c.MaxMessageBytes),
	}
}
