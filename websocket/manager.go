package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"amora/middleware"
	"amora/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// envelope is a routed outbound frame: the payload goes only to connections
// belonging to the listed users.
type envelope struct {
	userIDs []string
	data    []byte
}

// Manager routes server events to the websocket connections of specific
// users. A user may hold several connections (multiple devices).
type Manager struct {
	clients    map[string]map[*Client]bool
	outbound   chan envelope
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

type Client struct {
	conn    *websocket.Conn
	userID  string
	send    chan []byte
	manager *Manager
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]map[*Client]bool),
		outbound:   make(chan envelope, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Start runs the hub loop. Call it in its own goroutine.
func (m *Manager) Start() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			conns := m.clients[client.userID]
			if conns == nil {
				conns = make(map[*Client]bool)
				m.clients[client.userID] = conns
			}
			conns[client] = true
			m.mu.Unlock()
			log.Debug().Str("userId", client.userID).Msg("websocket client registered")

		case client := <-m.unregister:
			m.mu.Lock()
			if conns, ok := m.clients[client.userID]; ok {
				if _, ok := conns[client]; ok {
					delete(conns, client)
					close(client.send)
					if len(conns) == 0 {
						delete(m.clients, client.userID)
					}
				}
			}
			m.mu.Unlock()
			log.Debug().Str("userId", client.userID).Msg("websocket client unregistered")

		case env := <-m.outbound:
			m.mu.Lock()
			for _, userID := range env.userIDs {
				for client := range m.clients[userID] {
					select {
					case client.send <- env.data:
					default:
						close(client.send)
						delete(m.clients[userID], client)
					}
				}
			}
			m.mu.Unlock()
		}
	}
}

func (m *Manager) emit(userIDs []string, eventType string, payload interface{}) {
	data, err := json.Marshal(map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	})
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("marshal websocket event")
		return
	}
	select {
	case m.outbound <- envelope{userIDs: userIDs, data: data}:
	default:
		log.Warn().Str("type", eventType).Msg("websocket outbound queue full, event dropped")
	}
}

// NotifyMessage delivers a stored message to both conversation participants.
func (m *Manager) NotifyMessage(msg *models.Message) {
	m.emit([]string{msg.SenderID.Hex(), msg.ReceiverID.Hex()}, "new_message", msg)
}

// NotifyMatch tells both users that a match now exists.
func (m *Manager) NotifyMatch(a, b string) {
	m.emit([]string{a, b}, "new_match", map[string]interface{}{
		"users": []string{a, b},
		"time":  time.Now().Unix(),
	})
}

// NotifyLike tells the receiving user about a new incoming like.
func (m *Manager) NotifyLike(to string, like models.ReceivedLike) {
	m.emit([]string{to}, "new_like", like)
}

// ConnectedUsers returns the number of distinct users currently connected.
func (m *Manager) ConnectedUsers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler upgrades the connection after validating the JWT passed as a
// `token` query parameter (browsers cannot set headers on websocket dials).
func Handler(manager *Manager, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "token required", http.StatusUnauthorized)
			return
		}

		claims, err := middleware.ParseToken(token, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		client := &Client{
			conn:    conn,
			userID:  claims.UserID,
			send:    make(chan []byte, 256),
			manager: manager,
		}

		// Queue the welcome before registering: once the hub knows the
		// channel, only the hub may write to or close it.
		welcome, _ := json.Marshal(map[string]interface{}{
			"type": "connected",
			"payload": map[string]interface{}{
				"userId": client.userID,
				"time":   time.Now().Unix(),
			},
		})
		client.send <- welcome

		manager.register <- client

		go client.writePump()
		go client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.manager.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("userId", c.userID).Msg("websocket read error")
			}
			break
		}

		var data map[string]interface{}
		if err := json.Unmarshal(message, &data); err != nil {
			continue
		}

		// The only client-to-server frame is the keepalive. The pong goes
		// back through the hub: the hub may close this client's send
		// channel at any time, so no other goroutine writes to it.
		if data["type"] == "ping" {
			c.manager.emit([]string{c.userID}, "pong",
				map[string]interface{}{"time": time.Now().Unix()})
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
