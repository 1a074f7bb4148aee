package signal

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"signalmesh/internal/core/domain"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// EventServer streams the node's emitted events to connected clients over
// WebSocket. It is the emission sink of the whole node: everything the
// classifier or the relay receiver produces ends up here. Events are
// ephemeral; a client that is not connected when an event fires never sees
// it.
type EventServer struct {
	connections map[*websocket.Conn]*sync.Mutex
	mu          sync.RWMutex

	pingInterval time.Duration
	pongTimeout  time.Duration
	writeTimeout time.Duration

	logger *zap.SugaredLogger
}

// eventFrame is the wire shape of one streamed event.
type eventFrame struct {
	Type      domain.EventType `json:"type"`
	Timestamp int64            `json:"timestamp"`
	Data      domain.Event     `json:"data"`
}

func NewEventServer(pingInterval, pongTimeout, writeTimeout time.Duration, logger *zap.SugaredLogger) *EventServer {
	return &EventServer{
		connections:  make(map[*websocket.Conn]*sync.Mutex),
		pingInterval: pingInterval,
		pongTimeout:  pongTimeout,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// Emit broadcasts one event to every connected client. Delivery is
// best-effort: a client whose write fails is dropped, the rest still
// receive the event.
func (s *EventServer) Emit(event domain.Event) {
	frame, err := json.Marshal(eventFrame{
		Type:      event.EventType(),
		Timestamp: time.Now().UnixMilli(),
		Data:      event,
	})
	if err != nil {
		s.logger.Errorw("failed to marshal event", "type", event.EventType(), "error", err)
		return
	}

	s.mu.RLock()
	conns := make(map[*websocket.Conn]*sync.Mutex, len(s.connections))
	for conn, lock := range s.connections {
		conns[conn] = lock
	}
	s.mu.RUnlock()

	for conn, lock := range conns {
		if err := s.write(conn, lock, websocket.TextMessage, frame); err != nil {
			s.logger.Infow("dropping client after failed write", "error", err)
			s.remove(conn)
		}
	}

	s.logger.Debugw("event emitted", "type", event.EventType(), "clients", len(conns))
}

func (s *EventServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	lock := &sync.Mutex{}
	s.mu.Lock()
	s.connections[conn] = lock
	clients := len(s.connections)
	s.mu.Unlock()

	s.logger.Infow("event stream client connected", "clients", clients)

	conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
		return nil
	})

	// The stream is one-way; the read loop only services pings and detects
	// disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Infow("event stream client read error", "error", err)
				}
				return
			}
		}
	}()

	pingTicker := time.NewTicker(s.pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-done:
			s.remove(conn)
			s.logger.Infow("event stream client disconnected")
			return

		case <-pingTicker.C:
			if err := s.write(conn, lock, websocket.PingMessage, nil); err != nil {
				s.remove(conn)
				s.logger.Infow("event stream client dropped on ping", "error", err)
				return
			}
		}
	}
}

func (s *EventServer) write(conn *websocket.Conn, lock *sync.Mutex, messageType int, data []byte) error {
	lock.Lock()
	defer lock.Unlock()

	conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return conn.WriteMessage(messageType, data)
}

func (s *EventServer) remove(conn *websocket.Conn) {
	s.mu.Lock()
	_, exists := s.connections[conn]
	delete(s.connections, conn)
	s.mu.Unlock()

	if exists {
		conn.Close()
	}
}

// ClientCount reports how many event stream clients are connected.
func (s *EventServer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

func (s *EventServer) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().Unix(),
		"connections": s.ClientCount(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
