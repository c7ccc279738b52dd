// Package hub fans accepted state changes out to every connected dashboard
// observer over the push channel.
package hub

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	logrus "github.com/sirupsen/logrus"
)

// Outbound event kinds. The names are part of the wire protocol.
const (
	EventMarkerUpdate = "update_marker"
	EventNameUpdated  = "name_updated"
)

// Envelope is the wire framing for push-channel events, in both directions.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// writeWait bounds a single observer write so one stalled connection cannot
// wedge the fan-out loop.
const writeWait = 5 * time.Second

// Hub keeps the set of connected observers and broadcasts events to all of
// them. Delivery is best-effort and fire-and-forget: a slow or disconnected
// observer misses the event and resynchronizes by re-fetching full state on
// reconnect.
type Hub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan Envelope
	mu        sync.Mutex
}

// New creates a Hub and starts its broadcasting goroutine.
func New() *Hub {
	h := &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Envelope, 100),
	}
	go h.run()
	return h
}

// run drains the broadcast channel and writes each event to every observer.
// A single goroutine does all the writing, so events reach each observer in
// the order they were published.
func (h *Hub) run() {
	for msg := range h.broadcast {
		h.mu.Lock()
		for conn := range h.clients {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
					logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("Observer closed during broadcast, dropping.")
				} else {
					logrus.WithError(err).WithField("conn_ptr", fmt.Sprintf("%p", conn)).Warn("Failed to send broadcast to observer, dropping.")
				}
				delete(h.clients, conn)
				conn.Close()
			}
		}
		h.mu.Unlock()
	}
}

// Register adds a new observer connection to the hub.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("Observer registered with hub.")
}

// Unregister removes a disconnected observer from the hub.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("Observer unregistered from hub.")
}

// Publish queues an event for broadcast. It never blocks: when the channel
// is full the event is dropped and observers resynchronize on reconnect.
func (h *Hub) Publish(event string, data interface{}) {
	select {
	case h.broadcast <- Envelope{Event: event, Data: data}:
	default:
		logrus.WithField("event", event).Warn("Broadcast channel full, dropping event.")
	}
}
