// Package websocket delivers live sync snapshots to connected clients.
// Each user gets at most one running sync session regardless of how many
// devices are connected; the session starts on the first connection and
// stops when the last one goes away.
package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"chorely/middleware"
	"chorely/store"
	chorelysync "chorely/sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Manager struct {
	Users  *store.UserStore
	Events *store.EventStore

	register   chan *Client
	unregister chan *Client
	deliver    chan delivery

	// closed when Start returns; unblocks senders once the hub stops
	// draining deliver
	done chan struct{}

	clients  map[primitive.ObjectID]map[*Client]bool
	sessions map[primitive.ObjectID]func()
}

type Client struct {
	conn    *websocket.Conn
	userID  primitive.ObjectID
	send    chan []byte
	manager *Manager
}

type delivery struct {
	userID  primitive.ObjectID
	payload []byte
}

func NewManager(users *store.UserStore, events *store.EventStore) *Manager {
	return &Manager{
		Users:      users,
		Events:     events,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 16),
		done:       make(chan struct{}),
		clients:    make(map[primitive.ObjectID]map[*Client]bool),
		sessions:   make(map[primitive.ObjectID]func()),
	}
}

// Start runs the manager loop. Registration, teardown and delivery all pass
// through here, so the clients and sessions maps need no locking.
func (m *Manager) Start(ctx context.Context) {
	defer close(m.done)
	for {
		select {
		case <-ctx.Done():
			for _, stop := range m.sessions {
				stop()
			}
			return

		case client := <-m.register:
			set, ok := m.clients[client.userID]
			if !ok {
				set = make(map[*Client]bool)
				m.clients[client.userID] = set
			}
			set[client] = true
			if !ok {
				m.startSession(ctx, client.userID)
			}
			log.Printf("[WebSocket] Client connected for %s (%d total)", client.userID.Hex(), m.totalClients())

		case client := <-m.unregister:
			set, ok := m.clients[client.userID]
			if !ok || !set[client] {
				continue
			}
			delete(set, client)
			close(client.send)
			if len(set) == 0 {
				delete(m.clients, client.userID)
				if stop, ok := m.sessions[client.userID]; ok {
					stop()
					delete(m.sessions, client.userID)
				}
			}
			log.Printf("[WebSocket] Client disconnected for %s (%d total)", client.userID.Hex(), m.totalClients())

		case d := <-m.deliver:
			for client := range m.clients[d.userID] {
				select {
				case client.send <- d.payload:
				default:
					// Slow consumer. Drop the connection, not the hub.
					close(client.send)
					delete(m.clients[d.userID], client)
				}
			}
		}
	}
}

func (m *Manager) startSession(ctx context.Context, userID primitive.ObjectID) {
	stop, err := chorelysync.Start(ctx, m.Users, m.Events, userID, func(s chorelysync.Snapshot) {
		m.SendSnapshot(userID, s)
	})
	if err != nil {
		log.Printf("[WebSocket] Failed to start sync session for %s: %v", userID.Hex(), err)
		return
	}
	m.sessions[userID] = stop
}

// SendSnapshot queues a snapshot frame for every connection of one user.
// Once the hub has stopped, frames are discarded instead of blocking the
// publishing session goroutine.
func (m *Manager) SendSnapshot(userID primitive.ObjectID, snapshot chorelysync.Snapshot) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":    "snapshot",
		"payload": snapshot,
	})
	if err != nil {
		log.Printf("[WebSocket] Error marshaling snapshot: %v", err)
		return
	}
	select {
	case m.deliver <- delivery{userID: userID, payload: payload}:
	case <-m.done:
	}
}

func (m *Manager) totalClients() int {
	n := 0
	for _, set := range m.clients {
		n += len(set)
	}
	return n
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler upgrades an authenticated request and attaches the connection to
// the caller's sync session. Auth happens in middleware.JWTAuth before this
// runs (browsers pass the token as ?token= since they cannot set headers on
// websocket upgrades).
func Handler(manager *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WebSocket] Upgrade failed: %v", err)
			return
		}

		client := &Client{
			conn:    conn,
			userID:  userID,
			send:    make(chan []byte, 16),
			manager: manager,
		}
		manager.register <- client

		go client.writePump()
		go client.readPump()
	}
}

// readPump drains the connection. Clients only send pings; everything else
// is ignored. Exiting unregisters the client.
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
				log.Printf("[WebSocket] Read error: %v", err)
			}
			return
		}

		var data map[string]interface{}
		if err := json.Unmarshal(message, &data); err != nil {
			continue
		}
		if data["type"] == "ping" {
			c.sendPong()
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
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

func (c *Client) sendPong() {
	msg, err := json.Marshal(map[string]interface{}{
		"type":    "pong",
		"payload": map[string]interface{}{"time": time.Now().Unix()},
	})
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}
