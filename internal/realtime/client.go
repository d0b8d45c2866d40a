package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soulchat/soulchat/internal/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

var (
	// Maximum message size allowed from peer.
	maxMessageSize int64 = 32768 // 32KB

	// Outbound buffer per connection
	sendBufferSize = 256
)

// Configure overrides the connection limits. Call before any client connects.
func Configure(readLimit int64, sendBuffer int) {
	if readLimit > 0 {
		maxMessageSize = readLimit
	}
	if sendBuffer > 0 {
		sendBufferSize = sendBuffer
	}
}

var (
	ErrClientSendBufferFull = errors.New("client send buffer full")
	ErrClientClosed         = errors.New("client connection closed")
)

// inboundMessage is what clients send us
type inboundMessage struct {
	Type      string `json:"type"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Client represents one websocket connection
type Client struct {
	ID string

	conn *websocket.Conn
	hub  *Hub
	send chan []byte

	// set via Hub.Associate, read under the hub's lock
	userID    string
	sessionID string

	closed   bool
	closedMu sync.RWMutex
}

// NewClient wraps an upgraded connection
func NewClient(conn *websocket.Conn, hub *Hub, id string) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		hub:  hub,
		send: make(chan []byte, sendBufferSize),
	}
}

// ServeWS registers the client and starts its pumps
func ServeWS(hub *Hub, conn *websocket.Conn, clientID string) {
	client := NewClient(conn, hub, clientID)
	hub.Register(client)

	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.Deregister(c.ID)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Errorf("[ws] read error: %v", err)
			}
			break
		}
		c.handleInbound(msg)
	}
}

// writePump pumps messages from the hub to the websocket connection
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

func (c *Client) handleInbound(raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logging.Errorf("[ws] bad message from %s: %v", c.ID, err)
		return
	}

	switch msg.Type {
	case "register_session":
		c.hub.Associate(c.ID, msg.UserID, msg.SessionID)
		c.reply("session_registered", map[string]any{
			"session_id": msg.SessionID,
		})
	case "ping", "heartbeat":
		c.reply("pong", nil)
	default:
		logging.Infof("[ws] unknown message type %q from %s", msg.Type, c.ID)
	}
}

func (c *Client) reply(msgType string, data any) {
	payload, err := json.Marshal(Message{Type: msgType, Data: data, Timestamp: time.Now()})
	if err != nil {
		return
	}
	if err := c.enqueue(payload); err != nil {
		c.hub.Deregister(c.ID)
	}
}

// enqueue puts raw bytes on the outbound buffer without blocking
func (c *Client) enqueue(data []byte) (err error) {
	// The channel can close between the flag check and the send
	defer func() {
		if r := recover(); r != nil {
			err = ErrClientClosed
		}
	}()

	c.closedMu.RLock()
	if c.closed {
		c.closedMu.RUnlock()
		return ErrClientClosed
	}
	c.closedMu.RUnlock()

	select {
	case c.send <- data:
		return nil
	default:
		return ErrClientSendBufferFull
	}
}

// SendMessage marshals and queues a message for the client
func (c *Client) SendMessage(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

// IsClosed reports whether the connection has been shut down
func (c *Client) IsClosed() bool {
	c.closedMu.RLock()
	defer c.closedMu.RUnlock()
	return c.closed
}

// Close shuts the connection down. Idempotent.
func (c *Client) Close() {
	c.closedMu.Lock()
	if c.closed {
		c.closedMu.Unlock()
		return
	}
	c.closed = true
	c.closedMu.Unlock()

	close(c.send)
	if c.conn != nil {
		c.conn.Close()
	}
}
