// Package websocket pushes scene updates to connected browsers.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Message types
const (
	MsgSceneUpdate  = "scene.update"
	MsgSyncRequest  = "sync.request"
	MsgSyncResponse = "sync.response"
)

// Message is the envelope of every frame sent or received.
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Hub tracks connected clients and fans messages out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	syncs      chan *Client
	done       chan struct{}
	snapshot   func() any // current state for sync requests and new clients
	logger     *zap.Logger
}

// NewHub returns a hub. snapshot is called for each new client and for each
// sync request.
func NewHub(snapshot func() any, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		syncs:      make(chan *Client),
		done:       make(chan struct{}),
		snapshot:   snapshot,
		logger:     logger,
	}
}

// Run processes registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("client connected", zap.Int("clients", len(h.clients)))
			h.sendTo(client, MsgSceneUpdate, h.snapshot())

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Debug("client disconnected", zap.Int("clients", len(h.clients)))
			}

		case client := <-h.syncs:
			if h.clients[client] {
				h.sendTo(client, MsgSyncResponse, h.snapshot())
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client; drop it rather than block everyone else
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// Publish queues v for every connected client as a scene update. It never
// blocks; when the queue is full the update is dropped.
func (h *Hub) Publish(v any) {
	msg, err := encode(MsgSceneUpdate, v)
	if err != nil {
		h.logger.Error("failed to encode scene", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast queue full, dropping scene update")
	}
}

// sendTo must only be called from Run.
func (h *Hub) sendTo(client *Client, msgType string, v any) {
	msg, err := encode(msgType, v)
	if err != nil {
		h.logger.Error("failed to encode message", zap.String("type", msgType), zap.Error(err))
		return
	}
	select {
	case client.send <- msg:
	default:
		close(client.send)
		delete(h.clients, client)
	}
}

func encode(msgType string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: msgType, Data: data, Timestamp: time.Now().UTC()})
}

// Upgrader accepts connections from the allowed origins. An empty list or
// "*" allows every origin.
func Upgrader(allowedOrigins []string) websocket.Upgrader {
	allowAll := len(allowedOrigins) == 0
	allowed := map[string]bool{}
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowAll || origin == "" || allowed[origin]
		},
	}
}
