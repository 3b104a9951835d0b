// Package spectate streams a running game to read-only websocket viewers.
//
// The Hub is fed from the game loop through Publish and Notify, which never
// block: a viewer whose queue is full misses frames instead of stalling the
// simulation.
package spectate

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brensch/demonsnake/game"
	"github.com/brensch/demonsnake/session"
)

const (
	writeWait   = 5 * time.Second
	sendBacklog = 16
)

// StateFrame is the JSON message sent for every published snapshot.
type StateFrame struct {
	Type        string       `json:"type"`
	Ticks       int          `json:"ticks"`
	Snake       [][2]int     `json:"snake"`
	Food        [][2]int     `json:"food"`
	Pursuers    [][2]float64 `json:"pursuers"`
	Score       int          `json:"score"`
	Fat         int          `json:"fat"`
	DemonActive bool         `json:"demon_active"`
	Outcome     string       `json:"outcome"`
}

// EventFrame is the JSON message sent for every session event.
type EventFrame struct {
	Type        string `json:"type"`
	Kind        string `json:"kind"`
	DemonActive bool   `json:"demon_active"`
	SnakeLen    int    `json:"snake_len"`
	Score       int    `json:"score"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans game frames out to every connected viewer.
type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
	dropped int
}

var _ session.NotificationSink = (*Hub)(nil)

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and keeps the viewer subscribed until it
// disconnects. A new viewer first receives the latest state frame.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("spectator upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBacklog)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	h.mu.Unlock()
	h.log.Info("spectator joined", "remote", r.RemoteAddr)

	go h.writeLoop(c)

	// Viewers are read-only; reading only notices the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	h.log.Info("spectator left", "remote", r.RemoteAddr)
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.remove(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Publish sends a state frame to every viewer and keeps it for late joiners.
func (h *Hub) Publish(snap session.Snapshot) {
	frame := StateFrame{
		Type:        "state",
		Ticks:       snap.Ticks,
		Snake:       cells(snap.Snake),
		Food:        cells(snap.Food),
		Pursuers:    make([][2]float64, len(snap.Pursuers)),
		Score:       snap.Score,
		Fat:         snap.Fat,
		DemonActive: snap.DemonActive,
		Outcome:     snap.Outcome.String(),
	}
	for i, p := range snap.Pursuers {
		frame.Pursuers[i] = [2]float64{p.X, p.Y}
	}
	h.broadcast(frame, true)
}

// Notify forwards a session event.
func (h *Hub) Notify(ev session.Event) {
	h.broadcast(EventFrame{
		Type:        "event",
		Kind:        ev.Kind.String(),
		DemonActive: ev.DemonActive,
		SnakeLen:    ev.SnakeLen,
		Score:       ev.Score,
	}, false)
}

func (h *Hub) broadcast(frame any, keep bool) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.log.Error("marshal spectator frame", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if keep {
		h.last = data
	}
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.dropped++
		}
	}
}

// LastFrame is the latest encoded state frame, or nil before the first
// Publish.
func (h *Hub) LastFrame() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// Clients is the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped counts frames skipped because a viewer was behind.
func (h *Hub) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// Close disconnects every viewer.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func cells(ps []game.Point) [][2]int {
	out := make([][2]int, len(ps))
	for i, p := range ps {
		out[i] = [2]int{p.X, p.Y}
	}
	return out
}
