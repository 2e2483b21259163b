package services

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"sync-backend/internal/metrics"
	"sync-backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// PushMessage envelope sent to subscribed clients
type PushMessage struct {
	Type      string      `json:"type"`
	AccountID uint        `json:"account_id"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Connection one subscribed WebSocket client
type Connection struct {
	AccountID uint
	Socket    *websocket.Conn
	Send      chan []byte
}

// WebSocketPushService hub broadcasting newly stored transfers to the
// accounts involved. Delivery is best-effort: a slow client's buffer
// overflowing disconnects that client, never the sync pipeline.
type WebSocketPushService struct {
	upgrader    websocket.Upgrader
	hub         chan PushMessage
	register    chan *Connection
	unregister  chan *Connection
	connections map[uint]map[*Connection]bool
	mu          sync.RWMutex
	stopCh      chan struct{}
}

// NewWebSocketPushService creates the push hub
func NewWebSocketPushService() *WebSocketPushService {
	return &WebSocketPushService{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		hub:         make(chan PushMessage, 256),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		connections: make(map[uint]map[*Connection]bool),
		stopCh:      make(chan struct{}),
	}
}

// Start runs the hub loop
func (s *WebSocketPushService) Start() {
	go s.run()
	log.Println("✅ WebSocket push service started")
}

// Stop terminates the hub loop
func (s *WebSocketPushService) Stop() {
	close(s.stopCh)
}

// PushTransfer broadcasts a newly stored transfer to all connections of the
// involved accounts. Non-blocking.
func (s *WebSocketPushService) PushTransfer(accountIDs []uint, transfer *models.Transfer) {
	for _, accountID := range accountIDs {
		message := PushMessage{
			Type:      "transfer",
			AccountID: accountID,
			Payload:   transfer,
			Timestamp: time.Now(),
		}
		select {
		case s.hub <- message:
		default:
			log.Printf("⚠️ Push hub full, dropping transfer push for account %d", accountID)
		}
	}
}

func (s *WebSocketPushService) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			if s.connections[conn.AccountID] == nil {
				s.connections[conn.AccountID] = make(map[*Connection]bool)
			}
			s.connections[conn.AccountID][conn] = true
			s.mu.Unlock()
			metrics.WebSocketConnections.Inc()

		case conn := <-s.unregister:
			s.mu.Lock()
			if conns, ok := s.connections[conn.AccountID]; ok {
				if conns[conn] {
					delete(conns, conn)
					close(conn.Send)
					metrics.WebSocketConnections.Dec()
				}
				if len(conns) == 0 {
					delete(s.connections, conn.AccountID)
				}
			}
			s.mu.Unlock()

		case message := <-s.hub:
			s.broadcast(message)

		case <-s.stopCh:
			return
		}
	}
}

func (s *WebSocketPushService) broadcast(message PushMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("⚠️ Failed to marshal push message: %v", err)
		return
	}

	s.mu.RLock()
	conns := make([]*Connection, 0)
	for conn := range s.connections[message.AccountID] {
		conns = append(conns, conn)
	}
	s.mu.RUnlock()

	for _, conn := range conns {
		select {
		case conn.Send <- data:
			metrics.WebSocketMessagesSent.Inc()
		default:
			// Slow client: drop the message, never block the hub loop.
			// Sending on unregister here would deadlock, run() is the
			// only receiver.
			log.Printf("⚠️ Push buffer full for account %d, dropping message", conn.AccountID)
		}
	}
}

// HandleConnection upgrades an HTTP request and registers the client
// GET /api/accounts/:id/ws
func (s *WebSocketPushService) HandleConnection(c *gin.Context, accountID uint) {
	socket, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ WebSocket upgrade failed: %v", err)
		return
	}

	conn := &Connection{
		AccountID: accountID,
		Socket:    socket,
		Send:      make(chan []byte, 256),
	}
	s.register <- conn

	go s.writePump(conn)
	go s.readPump(conn)
}

func (s *WebSocketPushService) writePump(conn *Connection) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		conn.Socket.Close()
	}()

	for {
		select {
		case data, ok := <-conn.Send:
			if !ok {
				conn.Socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.Socket.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.Socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *WebSocketPushService) readPump(conn *Connection) {
	defer func() {
		s.unregister <- conn
		conn.Socket.Close()
	}()
	conn.Socket.SetReadLimit(512)
	for {
		if _, _, err := conn.Socket.ReadMessage(); err != nil {
			return
		}
	}
}
