package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"toursApi/internal/modules/realtime/application/port"
	"toursApi/internal/modules/realtime/domain"
)

// Hub fans messages out to live clients, either by collection or to every
// client attached to all collections.
type Hub struct {
	collections map[string]map[*Client]struct{}
	clients     map[string]*Client
	global      map[*Client]struct{}
	mu          sync.RWMutex
}

var _ port.Broadcaster = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		collections: make(map[string]map[*Client]struct{}),
		clients:     make(map[string]*Client),
		global:      make(map[*Client]struct{}),
	}
}

// Len reports the number of attached clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.clients[c.key()]; ok && existing != c {
		h.detachLocked(existing)
	}
	h.clients[c.key()] = c
	slog.Info("live client registered", slog.String("userId", c.userID), slog.String("sessionId", c.sessionID))
}

func (h *Hub) subscribe(c *Client, collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.collections[collection] == nil {
		h.collections[collection] = make(map[*Client]struct{})
	}
	h.collections[collection][c] = struct{}{}
	c.subscribed[collection] = struct{}{}
}

func (h *Hub) detachClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(c)
}

func (h *Hub) detachLocked(c *Client) {
	if c == nil {
		return
	}
	for collection := range c.subscribed {
		if subs, ok := h.collections[collection]; ok {
			delete(subs, c)
			if len(subs) == 0 {
				delete(h.collections, collection)
			}
		}
	}
	if current, ok := h.clients[c.key()]; ok && current == c {
		delete(h.clients, c.key())
	}
	delete(h.global, c)
	c.close()
	slog.Info("live client detached", slog.String("userId", c.userID), slog.String("sessionId", c.sessionID))
}

// Broadcast delivers msg to the clients subscribed to its collection and to
// global clients. Clients whose buffer is full are dropped.
func (h *Hub) Broadcast(_ context.Context, msg *domain.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("broadcast marshal error", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	subscribers := h.collections[msg.Collection()]
	clients := make([]*Client, 0, len(subscribers)+len(h.global))
	seen := make(map[*Client]struct{}, len(subscribers)+len(h.global))
	for c := range subscribers {
		clients = append(clients, c)
		seen[c] = struct{}{}
	}
	for c := range h.global {
		if _, ok := seen[c]; ok {
			continue
		}
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	targetUser := msg.Target("userId")
	for _, c := range clients {
		if targetUser != "" && c.userID != targetUser {
			continue
		}
		if !c.enqueue(data) {
			go h.detachClient(c)
		}
	}
}

// AttachClient subscribes c to collections, or to everything when none are
// given.
func (h *Hub) AttachClient(c *Client, collections []string) {
	h.registerClient(c)
	attached := 0
	for _, collection := range collections {
		if trimmed := strings.TrimSpace(collection); trimmed != "" {
			h.subscribe(c, trimmed)
			attached++
		}
	}
	if attached == 0 {
		h.mu.Lock()
		h.global[c] = struct{}{}
		h.mu.Unlock()
	}
	slog.Info("live client attached", slog.String("userId", c.userID), slog.String("sessionId", c.sessionID), slog.Any("collections", collections))
}
