package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hirehub/interview-engine/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// Hub fans session frames out to the websocket clients of each room.
// Clients are grouped by room code; a room entry disappears when its
// last client unregisters.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *models.SessionFrame
	done       chan struct{}
}

// Client is one websocket connection bound to a room
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	roomCode string
	userID   string
	role     models.Role
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *models.SessionFrame, sendBuffer),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.roomCode] == nil {
				h.clients[client.roomCode] = make(map[*Client]bool)
			}
			h.clients[client.roomCode][client] = true
			h.mu.Unlock()
			slog.Debug("session client registered", "room_code", client.roomCode, "user_id", client.userID)

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.roomCode]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.roomCode)
					}
				}
			}
			h.mu.Unlock()
			slog.Debug("session client unregistered", "room_code", client.roomCode, "user_id", client.userID)

		case frame := <-h.broadcast:
			h.deliver(frame)

		case <-ctx.Done():
			// Closing done releases clients blocked on register or
			// unregister after the hub stopped draining them
			close(h.done)
			h.closeAll()
			return
		}
	}
}

// Broadcast queues a frame for every client in the frame's room.
// Dropping on a full hub channel is preferred over blocking callers.
func (h *Hub) Broadcast(frame *models.SessionFrame) {
	select {
	case h.broadcast <- frame:
	default:
		slog.Warn("session broadcast dropped, hub channel full", "room_code", frame.RoomCode)
	}
}

func (h *Hub) deliver(frame *models.SessionFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		slog.Error("failed to marshal session frame", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[frame.RoomCode]
	if !ok {
		return
	}

	for client := range clients {
		select {
		case client.send <- data:
		default:
			// Slow consumer, drop the connection
			delete(clients, client)
			close(client.send)
		}
	}
	if len(clients) == 0 {
		delete(h.clients, frame.RoomCode)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for code, clients := range h.clients {
		for client := range clients {
			close(client.send)
		}
		delete(h.clients, code)
	}
}

// NewClient binds an upgraded websocket connection to a room.
// The caller starts the pumps with Start.
func (h *Hub) NewClient(conn *websocket.Conn, roomCode, userID string, role models.Role) *Client {
	return &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		roomCode: roomCode,
		userID:   userID,
		role:     role,
	}
}

// Start registers the client and runs the write pump in this goroutine
// after spawning the read pump. onFrame is invoked for every inbound
// frame; Start returns when the connection is gone.
func (c *Client) Start(onFrame func(*models.SessionFrame)) {
	select {
	case c.hub.register <- c:
	case <-c.hub.done:
		return
	}
	go c.readPump(onFrame)
	c.writePump()
}

// SendError pushes an error frame to this client only
func (c *Client) SendError(message string) {
	frame := &models.SessionFrame{
		Type:      models.FrameError,
		RoomCode:  c.roomCode,
		Content:   message,
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) readPump(onFrame func(*models.SessionFrame)) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("websocket read error", "error", err, "room_code", c.roomCode)
			}
			return
		}

		var frame models.SessionFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.SendError("invalid frame")
			continue
		}
		onFrame(&frame)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
