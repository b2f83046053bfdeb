package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gorilla/websocket"
)

// Run connects to the room and pumps stdin lines to the server and server frames to out.
// It returns when ctx is canceled, the user types /quit, in reaches EOF or the server closes.
func Run(ctx context.Context, log *slog.Logger, cfg Config, in io.Reader, out io.Writer) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.Endpoint(), nil)
	if err != nil {
		return fmt.Errorf("could not connect to %s: %w", cfg.Endpoint(), err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	received := make(chan error, 1)
	go func() {
		received <- receive(conn, cfg.Colours, out)
	}()

	done := make(chan struct{})
	defer close(done)
	lines := readLines(in, done)

	for {
		select {
		case <-ctx.Done():
			return closeGracefully(conn)
		case err := <-received:
			return err
		case line, ok := <-lines:
			if !ok {
				return closeGracefully(conn)
			}
			frame, quit, err := ParseLine(line)
			if quit {
				return closeGracefully(conn)
			}
			if err != nil {
				_, _ = fmt.Fprintln(out, err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return fmt.Errorf("send error: %w", err)
			}
		}
	}
}

// readLines scans in until EOF or until done is closed.
func readLines(in io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}

func receive(conn *websocket.Conn, colours bool, out io.Writer) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}
		line, err := Render(data, colours)
		if err != nil {
			line = string(data)
		}
		_, _ = fmt.Fprintln(out, line)
	}
}

func closeGracefully(conn *websocket.Conn) error {
	return conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
