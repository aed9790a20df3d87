package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"emnnit/console/internal/live"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type client struct {
	conn     *websocket.Conn
	send     chan []byte
	group    string
	semester string
}

// filtered reports whether the client asked to receive only updates for one
// group/semester selection.
func (c *client) filtered() bool {
	return c.group != "" && c.semester != ""
}

// Hub fans schedule updates out to connected console browsers. One Hub runs
// per process; clients come and go with their websocket connections.
type Hub struct {
	log        *zap.Logger
	clients    map[*client]struct{}
	broadcast  chan live.Update
	register   chan *client
	unregister chan *client
}

func New(log *zap.Logger) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan live.Update, 16),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case update := <-h.broadcast:
			h.push(update)
		}
	}
}

// Broadcast queues an update for delivery to every interested client.
func (h *Hub) Broadcast(u live.Update) {
	select {
	case h.broadcast <- u:
	default:
		h.log.Warn("dropping schedule update broadcast, hub queue full")
	}
}

func (h *Hub) push(u live.Update) {
	payload, err := json.Marshal(u)
	if err != nil {
		h.log.Error("marshaling schedule update", zap.Error(err))
		return
	}
	for c := range h.clients {
		if c.filtered() && !live.Matches(u, c.group, c.semester) {
			continue
		}
		select {
		case c.send <- payload:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// ServeWS upgrades the request and attaches the browser to the hub. An
// optional ?group=&semester= pair narrows the updates the client receives.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{
		conn:     conn,
		send:     make(chan []byte, 16),
		group:    r.URL.Query().Get("group"),
		semester: r.URL.Query().Get("semester"),
	}
	h.register <- c
	go c.writePump()
	go c.readPump(h)
}

func (c *client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
}

// readPump discards client input; the socket is push-only. It exists to
// notice closed connections.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
