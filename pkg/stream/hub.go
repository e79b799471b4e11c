/*
 * Copyright 2025 Homewatch Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package stream

import (
	"net/http"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/homewatch/homewatch/pkg/logger"
)

const (
	// sendBufferSize bounds the per-client outbound queue. A client
	// that cannot drain this many events is dropped rather than
	// allowed to stall the broadcaster.
	sendBufferSize = 16

	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// Hub fans device_update events out to all connected viewers.
type Hub struct {
	logger   logger.Logger
	upgrader websocket.Upgrader

	mu      gosync.Mutex
	clients map[string]*hubClient
	closed  bool
}

type hubClient struct {
	id   string
	conn *websocket.Conn
	send chan StreamMessage
	once gosync.Once
}

func (c *hubClient) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// NewHub creates an empty hub.
func NewHub(log logger.Logger) *Hub {
	return &Hub{
		logger: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The registry serves viewers on the local network; any
			// origin may subscribe.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[string]*hubClient),
	}
}

// Handler upgrades HTTP requests to WebSocket subscriptions.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Error().
				Err(err).
				Str("remote_addr", r.RemoteAddr).
				Msg("Failed to upgrade to WebSocket")

			return
		}

		client := &hubClient{
			id:   uuid.New().String(),
			conn: conn,
			send: make(chan StreamMessage, sendBufferSize),
		}

		h.mu.Lock()
		if h.closed {
			h.mu.Unlock()
			_ = conn.Close()

			return
		}

		h.clients[client.id] = client
		h.mu.Unlock()

		h.logger.Info().
			Str("client_id", client.id).
			Str("remote_addr", r.RemoteAddr).
			Msg("Viewer subscribed to event stream")

		go h.writePump(client)
		h.readPump(client)
	}
}

// Broadcast queues an event for every connected client. Clients whose
// send buffer is full are dropped; they will reconnect and re-fetch.
func (h *Hub) Broadcast(event string) {
	msg := StreamMessage{
		Type:      TypeEvent,
		Event:     event,
		Timestamp: time.Now(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		select {
		case client.send <- msg:
		default:
			h.logger.Warn().
				Str("client_id", id).
				Msg("Dropping slow stream client")

			delete(h.clients, id)
			client.close()
		}
	}
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// Close disconnects all clients and rejects new subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*hubClient, 0, len(h.clients))

	for id, client := range h.clients {
		clients = append(clients, client)
		delete(h.clients, id)
	}
	h.mu.Unlock()

	for _, client := range clients {
		client.close()
	}
}

// writePump drains the client's send queue and keeps the connection
// alive with periodic pings. It owns all writes to the connection.
func (h *Hub) writePump(client *hubClient) {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			if !ok {
				_ = client.conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeTimeout))

				return
			}

			_ = client.conn.SetWriteDeadline(time.Now().Add(writeTimeout))

			if err := client.conn.WriteJSON(msg); err != nil {
				h.logger.Debug().
					Err(err).
					Str("client_id", client.id).
					Msg("Stream write failed")

				h.remove(client)

				return
			}
		case <-ticker.C:
			ping := StreamMessage{Type: TypePing, Timestamp: time.Now()}

			_ = client.conn.SetWriteDeadline(time.Now().Add(writeTimeout))

			if err := client.conn.WriteJSON(ping); err != nil {
				h.remove(client)
				return
			}
		}
	}
}

// readPump consumes inbound frames for disconnect detection only;
// viewers never send application messages.
func (h *Hub) readPump(client *hubClient) {
	defer h.remove(client)

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Debug().
					Err(err).
					Str("client_id", client.id).
					Msg("Stream read error")
			}

			return
		}
	}
}

func (h *Hub) remove(client *hubClient) {
	h.mu.Lock()
	_, present := h.clients[client.id]
	delete(h.clients, client.id)
	h.mu.Unlock()

	if present {
		h.logger.Info().
			Str("client_id", client.id).
			Msg("Viewer unsubscribed from event stream")
	}

	client.close()
}
