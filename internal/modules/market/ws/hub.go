// Package ws maintains the WebSocket connections of each room and
// pushes market events to them.
package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Abinaav-K876/market-crash/pkg/logger"
)

type CloseReason string

const (
	ReasonWriteError CloseReason = "write_error"
	ReasonPingError  CloseReason = "ping_error"
	ReasonReadError  CloseReason = "read_error"
	ReasonReplaced   CloseReason = "replaced_by_new_connection"
	ReasonShutdown   CloseReason = "server_shutdown"
	ReasonBufferFull CloseReason = "buffer_full"
)

// Connection represents one player's WebSocket connection
type Connection struct {
	RoomID    string
	PlayerID  string
	Conn      *websocket.Conn
	Send      chan []byte
	hub       *Hub
	closeOnce sync.Once
}

// Hub manages the WebSocket connections of all rooms
type Hub struct {
	rooms      map[string]map[*Connection]bool
	byPlayer   map[string]*Connection
	register   chan *Connection
	unregister chan *Connection
	mu         sync.RWMutex
}

// NewHub creates a connection hub
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Connection]bool),
		byPlayer:   make(map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
	}
}

// Register registers a new connection for a player
func (h *Hub) Register(conn *websocket.Conn, roomID, playerID string) *Connection {
	c := &Connection{
		RoomID:   roomID,
		PlayerID: playerID,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		hub:      h,
	}
	h.register <- c
	return c
}

// Run starts the hub loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// A player reconnecting replaces their old connection
			if old, ok := h.byPlayer[client.PlayerID]; ok {
				h.drop(old)
				old.CloseWithReason(ReasonReplaced, nil)
			}
			if h.rooms[client.RoomID] == nil {
				h.rooms[client.RoomID] = make(map[*Connection]bool)
			}
			h.rooms[client.RoomID][client] = true
			h.byPlayer[client.PlayerID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()
			client.CloseWithReason(ReasonShutdown, nil)
		}
	}
}

// drop removes a connection from the maps. Caller holds h.mu.
func (h *Hub) drop(client *Connection) {
	if room, ok := h.rooms[client.RoomID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, client.RoomID)
		}
	}
	if h.byPlayer[client.PlayerID] == client {
		delete(h.byPlayer, client.PlayerID)
	}
}

// BroadcastToRoom sends a message to every connection in a room
func (h *Hub) BroadcastToRoom(roomID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[roomID] {
		select {
		case client.Send <- message:
		default:
			// Buffer full, drop the client. Cleanup happens when its
			// pumps exit and hit the unregister channel.
			client.CloseWithReason(ReasonBufferFull, nil)
		}
	}
}

// Shutdown closes all connections
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, room := range h.rooms {
		for client := range room {
			client.CloseWithReason(ReasonShutdown, nil)
		}
	}
}

// CloseWithReason closes the connection once with a logged reason
func (c *Connection) CloseWithReason(r CloseReason, err error) {
	c.closeOnce.Do(func() {
		logger.Info(context.Background()).
			Str("room_id", c.RoomID).
			Str("player_id", c.PlayerID).
			Str("reason", string(r)).
			Err(err).
			Msg("ws connection closed")
		c.Conn.Close()
	})
}

// WritePump pumps messages from the hub to the websocket connection
func (c *Connection) WritePump() {
	ticker := time.NewTicker(54 * time.Second) // ping period
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.CloseWithReason(ReasonWriteError, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.CloseWithReason(ReasonPingError, err)
				return
			}
		}
	}
}

// ReadPump drains the connection and reacts to disconnects. Clients
// only listen; inbound payloads are handed to handleMessage when set.
func (c *Connection) ReadPump(handleMessage func(roomID, playerID string, message []byte)) {
	var readErr error
	defer func() {
		c.hub.unregister <- c
		c.CloseWithReason(ReasonReadError, readErr)
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			readErr = err
			return
		}
		if handleMessage != nil {
			handleMessage(c.RoomID, c.PlayerID, message)
		}
	}
}
