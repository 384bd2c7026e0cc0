// Package realtime pushes tournament changes to websocket subscribers. Each
// tournament has its own room; a message published for a tournament reaches
// every client connected to that room.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event types sent to subscribers.
const (
	EventMatchupsUpdated     = "MATCHUPS_UPDATED"
	EventParticipantsUpdated = "PARTICIPANTS_UPDATED"
	EventTournamentUpdated   = "TOURNAMENT_UPDATED"
	EventWheelSpun           = "WHEEL_SPUN"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

// Message is the envelope written to every client.
type Message struct {
	Type         string    `json:"type"`
	TournamentID uuid.UUID `json:"tournament_id"`
	Payload      any       `json:"payload"`
	SentAt       time.Time `json:"sent_at"`
}

// Publisher is what the service layer depends on.
type Publisher interface {
	Publish(tournamentID uuid.UUID, eventType string, payload any)
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	room uuid.UUID
}

type Hub struct {
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	rooms      map[uuid.UUID]map[*Client]bool
	mu         sync.RWMutex
	logger     *slog.Logger
	onChange   func(clients int)
}

type Option func(*Hub)

func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

// WithClientGauge registers a callback invoked with the total client count
// whenever a client joins or leaves.
func WithClientGauge(fn func(clients int)) Option {
	return func(h *Hub) { h.onChange = fn }
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run serves registrations until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for room, clients := range h.rooms {
				for c := range clients {
					close(c.send)
				}
				delete(h.rooms, room)
			}
			h.mu.Unlock()
			h.changed()
			return

		case c := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[c.room]; !ok {
				h.rooms[c.room] = make(map[*Client]bool)
			}
			h.rooms[c.room][c] = true
			n := len(h.rooms[c.room])
			h.mu.Unlock()
			h.logger.Debug("websocket client joined", slog.String("tournament_id", c.room.String()), slog.Int("room_clients", n))
			h.changed()

		case c := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[c.room]; ok && clients[c] {
				close(c.send)
				delete(clients, c)
				if len(clients) == 0 {
					delete(h.rooms, c.room)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("websocket client left", slog.String("tournament_id", c.room.String()))
			h.changed()
		}
	}
}

func (h *Hub) changed() {
	if h.onChange != nil {
		h.onChange(h.ClientCount(uuid.Nil))
	}
}

// ClientCount returns the number of clients in a room, or in every room when
// tournamentID is uuid.Nil.
func (h *Hub) ClientCount(tournamentID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if tournamentID != uuid.Nil {
		return len(h.rooms[tournamentID])
	}
	total := 0
	for _, clients := range h.rooms {
		total += len(clients)
	}
	return total
}

// Publish sends an event to every client watching the tournament. Slow
// clients whose buffer is full miss the message.
func (h *Hub) Publish(tournamentID uuid.UUID, eventType string, payload any) {
	data, err := json.Marshal(Message{
		Type:         eventType,
		TournamentID: tournamentID,
		Payload:      payload,
		SentAt:       time.Now().UTC(),
	})
	if err != nil {
		h.logger.Error("failed to encode realtime event",
			slog.String("tournament_id", tournamentID.String()),
			slog.String("type", eventType),
			slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[tournamentID] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("websocket client buffer full, dropping event",
				slog.String("tournament_id", tournamentID.String()),
				slog.String("type", eventType))
		}
	}
}

// Attach registers an upgraded connection in the tournament's room and
// starts its read and write pumps.
func (h *Hub) Attach(conn *websocket.Conn, tournamentID uuid.UUID) {
	c := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		room: tournamentID,
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

// readPump only drains control frames; clients never send commands.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read failed", slog.String("tournament_id", c.room.String()), slog.Any("error", err))
			}
			return
		}
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
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Warn("websocket write failed", slog.String("tournament_id", c.room.String()), slog.Any("error", err))
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
