package dev

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/stencil/pkg/dom"
)

// MessageType represents the type of stream message.
type MessageType string

const (
	MessageMutations MessageType = "mutations"
	MessageReload    MessageType = "reload"
	MessageError     MessageType = "error"
)

// Message is sent to stream clients via WebSocket.
type Message struct {
	Type      MessageType    `json:"type"`
	Trigger   string         `json:"trigger,omitempty"`
	Mutations []dom.Mutation `json:"mutations,omitempty"`
	HTML      string         `json:"html,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Hub manages WebSocket clients of the mutation stream.
type Hub struct {
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader

	// OnConnect and OnDisconnect are called as clients come and go.
	OnConnect    func()
	OnDisconnect func()
}

// NewHub creates a new stream hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP upgrades the connection and keeps it registered until the
// client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	if h.OnConnect != nil {
		h.OnConnect()
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(conn)
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
	if ok && h.OnDisconnect != nil {
		h.OnDisconnect()
	}
}

// Mutations sends a batch of document mutations. Empty batches are
// skipped.
func (h *Hub) Mutations(trigger string, muts []dom.Mutation, html string) {
	if len(muts) == 0 {
		return
	}
	h.Broadcast(Message{Type: MessageMutations, Trigger: trigger, Mutations: muts, HTML: html})
}

// Reload tells clients the template was replaced.
func (h *Hub) Reload(html string) {
	h.Broadcast(Message{Type: MessageReload, HTML: html})
}

// Error reports a failed pass or compile to clients.
func (h *Hub) Error(err error) {
	h.Broadcast(Message{Type: MessageError, Error: err.Error()})
}

// Broadcast sends a message to all connected clients. Clients that fail to
// receive it are dropped.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			h.drop(client)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.drop(client)
	}
}

// clientScript keeps #app in sync with the server copy. It replaces the
// markup on every message rather than replaying mutations.
const clientScript = `(function() {
    'use strict';
    var delay = 1000;
    function connect() {
        var proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
        var ws = new WebSocket(proto + '//' + location.host + '/_stencil/stream');
        ws.onopen = function() { delay = 1000; };
        ws.onmessage = function(e) {
            var msg;
            try { msg = JSON.parse(e.data); } catch (err) { return; }
            if (msg.type === 'error') { console.error('[stencil]', msg.error); return; }
            if (msg.mutations) { console.debug('[stencil]', msg.trigger, msg.mutations); }
            var app = document.getElementById('app');
            if (app && msg.html !== undefined) { app.innerHTML = msg.html; }
        };
        ws.onclose = function() {
            setTimeout(function() { delay = Math.min(delay * 2, 30000); connect(); }, delay);
        };
    }
    connect();
})();`
