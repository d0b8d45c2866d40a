package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/soulchat/soulchat/internal/logging"
)

// Message is the envelope for everything sent over a websocket
type Message struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ProactiveMessage is the payload pushed when the scheduler speaks first
type ProactiveMessage struct {
	Content       string `json:"content"`
	Timestamp     string `json:"timestamp"`
	CharacterName string `json:"character_name"`
	SessionID     string `json:"session_id"`
}

// HubStats counts live connections
type HubStats struct {
	Total       int `json:"total"`
	WithUser    int `json:"withUser"`
	WithSession int `json:"withSession"`
}

// Hub is the connection registry and broadcaster. Connections register with
// an opaque ID and are later associated with a user and session by the
// client's register_session message.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Register adds a connection to the registry
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	total := len(h.clients)
	h.mu.Unlock()
	logging.Infof("[hub] connection added: %s (%d total)", c.ID, total)
}

// Deregister removes a connection. Safe to call more than once; a second
// call for the same ID is a no-op.
func (h *Hub) Deregister(connID string) {
	h.mu.Lock()
	c, ok := h.clients[connID]
	if ok {
		delete(h.clients, connID)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		c.Close()
		logging.Infof("[hub] connection removed: %s (%d total)", connID, total)
	}
}

// Associate ties a connection to a user and session
func (h *Hub) Associate(connID, userID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[connID]; ok {
		c.userID = userID
		c.sessionID = sessionID
	}
}

// NotifySession sends a payload to every connection associated with the
// session. Returns true when at least one connection received it.
func (h *Hub) NotifySession(sessionID string, payload any) bool {
	if sessionID == "" {
		return false
	}
	n := h.sendWhere("session_notification", payload, func(c *Client) bool {
		return c.sessionID == sessionID
	})
	return n > 0
}

// NotifyUser sends a payload to every connection associated with the user
func (h *Hub) NotifyUser(userID string, payload any) bool {
	if userID == "" {
		return false
	}
	n := h.sendWhere("notification", payload, func(c *Client) bool {
		return c.userID == userID
	})
	return n > 0
}

// BroadcastAll sends a payload to every connection, returning the number of
// connections it reached.
func (h *Hub) BroadcastAll(payload any) int {
	return h.sendWhere("global_notification", payload, func(*Client) bool { return true })
}

// BroadcastProactiveMessage delivers a proactive message to the session's
// connections. When the session has no live connection the message goes out
// as a global notification instead, since the user may be on another page.
func (h *Hub) BroadcastProactiveMessage(sessionID string, msg ProactiveMessage) bool {
	payload := map[string]any{
		"type":      "proactive_message",
		"sessionId": sessionID,
		"message": map[string]any{
			"content":        msg.Content,
			"timestamp":      msg.Timestamp,
			"character_name": msg.CharacterName,
		},
	}

	if h.NotifySession(sessionID, payload) {
		return true
	}
	n := h.BroadcastAll(payload)
	logging.Infof("[hub] proactive message for %s broadcast to %d connections", sessionID, n)
	return false
}

// Stats returns connection counts
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	stats := HubStats{Total: len(h.clients)}
	for _, c := range h.clients {
		if c.userID != "" {
			stats.WithUser++
		}
		if c.sessionID != "" {
			stats.WithSession++
		}
	}
	return stats
}

// sendWhere pushes an enveloped payload to matching clients. A client whose
// send fails (buffer full or closed) is dropped from the registry; the send
// never blocks and is never retried.
func (h *Hub) sendWhere(msgType string, payload any, match func(*Client) bool) int {
	data, err := json.Marshal(Message{
		Type:      msgType,
		Data:      payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		logging.Errorf("[hub] marshal failed: %v", err)
		return 0
	}

	h.mu.RLock()
	var targets []*Client
	for _, c := range h.clients {
		if match(c) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if err := c.enqueue(data); err != nil {
			logging.Warnf("[hub] send to %s failed (%v), dropping connection", c.ID, err)
			h.Deregister(c.ID)
			continue
		}
		sent++
	}
	return sent
}
