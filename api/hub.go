package api

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/matt-g-everett/sensorar/router"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string
}

// Hub fans render events out to every connected WebSocket client.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	count      atomic.Int64
}

// NewHub creates an instance of a Hub.
func NewHub() *Hub {
	h := new(Hub)
	h.clients = make(map[*client]bool)
	h.register = make(chan *client)
	h.unregister = make(chan *client)
	h.broadcast = make(chan []byte, sendBufferSize)
	h.done = make(chan struct{})
	return h
}

// Publish queues e for every client, dropping it when the hub is backed up.
func (h *Hub) Publish(e router.Event) {
	b, err := json.Marshal(e)
	if err != nil {
		log.Printf("encode %s event: %v", e.Kind, err)
		return
	}
	select {
	case h.broadcast <- b:
	default:
		log.Printf("dropping %s event for device %d: hub queue full", e.Kind, e.DeviceID)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

// Run manages clients until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			h.count.Store(int64(len(h.clients)))
			log.Printf("websocket client %s connected, %d total", c.id, len(h.clients))
		case c := <-h.unregister:
			h.remove(c)
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer.
					h.remove(c)
				}
			}
		case <-ctx.Done():
			for c := range h.clients {
				h.remove(c)
			}
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.count.Store(int64(len(h.clients)))
	log.Printf("websocket client %s disconnected, %d total", c.id, len(h.clients))
}

// Attach registers conn for live events and then sends the message built by
// greeting ahead of them. Events published while greeting runs queue behind
// it.
func (h *Hub) Attach(conn *websocket.Conn, greeting func() ([]byte, error)) {
	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		id:   uuid.New().String(),
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	var first []byte
	if greeting != nil {
		b, err := greeting()
		if err != nil {
			log.Printf("websocket client %s: greeting: %v", c.id, err)
			c.detach()
			conn.Close()
			return
		}
		first = b
	}
	go c.writePump(first)
	go c.readPump()
}

func (c *client) detach() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

// readPump only services control frames; clients never send commands over
// the socket.
func (c *client) readPump() {
	defer func() {
		c.detach()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket client %s: %v", c.id, err)
			}
			return
		}
	}
}

func (c *client) writePump(first []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	if first != nil {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, first); err != nil {
			return
		}
	}

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
