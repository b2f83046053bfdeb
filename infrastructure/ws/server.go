package ws

import (
	"chat-relay/domain"
	"chat-relay/internal"
	"chat-relay/services"
	"chat-relay/sink"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

type Options struct {
	Connection     sink.WebsocketOptions
	AllowedOrigins []string
}

// Server upgrades `/ws/{room}/{username}` requests and runs one session per socket.
type Server struct {
	log         *slog.Logger
	chatService services.IChatService
	options     Options
	upgrader    websocket.Upgrader
}

func NewServer(log *slog.Logger, chatService services.IChatService, options Options) *Server {
	s := &Server{log: log, chatService: chatService, options: options}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// NewHandler routes the websocket endpoint, the health check and the debug table.
func NewHandler(log *slog.Logger, chatService services.IChatService, options Options) http.Handler {
	s := NewServer(log, chatService, options)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /up", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("GET /debug/rooms", internal.NewDebugHandler(chatService.Stats))
	mux.HandleFunc("GET /ws/{room}/{username}", s.Connect)
	return mux
}

// Connect blocks until the client goes away or its connection gets evicted.
func (s *Server) Connect(w http.ResponseWriter, r *http.Request) {
	roomID := domain.NewRoomID(r.PathValue("room"))
	username := strings.TrimSpace(r.PathValue("username"))
	if roomID == "" || username == "" {
		http.Error(w, "room and username are required", http.StatusBadRequest)
		return
	}

	socket, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", "room", roomID, "user", username, "error", err)
		return
	}

	conn := sink.NewWebsocketConnection(s.log, socket, s.options.Connection)
	go conn.WritePump()

	session := services.NewSession(s.log, s.chatService, roomID, conn, username)
	defer session.Close()

	online := session.Open()
	s.log.Info("Connection opened", "room", roomID, "user", username,
		"connection_id", conn.ID(), "online", len(online))

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("Read failed", "connection_id", conn.ID(), "error", err)
			}
			break
		}
		_ = session.Receive(data)
		if session.State() == services.SessionClosed {
			break
		}
	}
	s.log.Info("Connection closed", "room", roomID, "user", username, "connection_id", conn.ID())
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.options.AllowedOrigins) == 0 {
		return true
	}
	return lo.Contains(s.options.AllowedOrigins, r.Header.Get("Origin"))
}
