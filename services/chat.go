package services

import (
	"eco-community-server/models"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

// Close codes for rejected chat connections.
const (
	CloseUnauthenticated = 4003
	CloseUnauthorized    = 4004
)

const (
	chatWriteWait      = 10 * time.Second
	chatPongWait       = 60 * time.Second
	chatPingPeriod     = (chatPongWait * 9) / 10
	chatMaxMessageSize = 4096
	chatSendBuffer     = 32
)

// ChatEvent is anything the hub can fan out to a conversation's members.
// Rendering is per-recipient: presence events skip their own subject, and
// message events carry an is_sender flag computed for each recipient.
type ChatEvent interface {
	payloadFor(c *ChatClient) ([]byte, bool)
}

type MessageEvent struct {
	ID        uint
	Content   string
	SenderID  uint
	Timestamp time.Time
	IsRead    bool
}

func (e MessageEvent) payloadFor(c *ChatClient) ([]byte, bool) {
	payload, err := json.Marshal(map[string]interface{}{
		"id":        e.ID,
		"message":   e.Content,
		"sender_id": e.SenderID,
		"timestamp": e.Timestamp.UTC().Format(time.RFC3339),
		"is_read":   e.IsRead,
		"is_sender": e.SenderID == c.userID,
	})
	if err != nil {
		return nil, false
	}
	return payload, true
}

type PresenceEvent struct {
	Type      string // user_joined or user_left
	UserID    uint
	Username  string
	Timestamp time.Time
}

func (e PresenceEvent) payloadFor(c *ChatClient) ([]byte, bool) {
	if e.UserID == c.userID {
		return nil, false
	}
	payload, err := json.Marshal(map[string]interface{}{
		"type":      e.Type,
		"user_id":   e.UserID,
		"username":  e.Username,
		"timestamp": e.Timestamp.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, false
	}
	return payload, true
}

// ChatHub is the registry of broadcast groups, keyed by conversation id.
// Groups are created on first join and dropped when their last member
// leaves.
type ChatHub struct {
	db     *gorm.DB
	mu     sync.Mutex
	groups map[uint]map[*ChatClient]struct{}
}

func NewChatHub(db *gorm.DB) *ChatHub {
	return &ChatHub{
		db:     db,
		groups: make(map[uint]map[*ChatClient]struct{}),
	}
}

func (h *ChatHub) Join(c *ChatClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group, ok := h.groups[c.conversationID]
	if !ok {
		group = make(map[*ChatClient]struct{})
		h.groups[c.conversationID] = group
	}
	group[c] = struct{}{}
}

// Leave unregisters the client and closes its send channel. Safe to call
// more than once; only the first call has an effect.
func (h *ChatHub) Leave(c *ChatClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c)
}

// leaveLocked is the only place the send channel is closed. Closure and
// every send happen under h.mu, so a client disconnecting mid-broadcast
// can never race a delivery onto its closed channel.
func (h *ChatHub) leaveLocked(c *ChatClient) {
	group, ok := h.groups[c.conversationID]
	if !ok {
		return
	}
	if _, member := group[c]; !member {
		return
	}
	delete(group, c)
	if len(group) == 0 {
		delete(h.groups, c.conversationID)
	}
	close(c.send)
}

// Broadcast fans an event out to the conversation's current members.
// Best-effort and at-most-once: members whose send buffer is full are
// dropped from the group rather than allowed to stall everyone else.
// Sends are non-blocking, so holding the lock across the fan-out is cheap
// and keeps membership and delivery atomic.
func (h *ChatHub) Broadcast(conversationID uint, event ChatEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.groups[conversationID] {
		payload, ok := event.payloadFor(c)
		if !ok {
			continue
		}
		select {
		case c.send <- payload:
		default:
			h.leaveLocked(c)
		}
	}
}

// trySend queues a payload for one still-registered member. Unregistered
// clients are skipped, matching the Broadcast ownership rules.
func (h *ChatHub) trySend(c *ChatClient, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, member := h.groups[c.conversationID][c]; !member {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// GroupSize reports the current member count of a conversation's group.
func (h *ChatHub) GroupSize(conversationID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[conversationID])
}

// ChatClient is one live connection joined to a conversation's group.
type ChatClient struct {
	hub            *ChatHub
	conn           *websocket.Conn
	conversationID uint
	userID         uint
	username       string
	send           chan []byte
}

func NewChatClient(hub *ChatHub, conn *websocket.Conn, conversationID, userID uint, username string) *ChatClient {
	return &ChatClient{
		hub:            hub,
		conn:           conn,
		conversationID: conversationID,
		userID:         userID,
		username:       username,
		send:           make(chan []byte, chatSendBuffer),
	}
}

// Serve joins the group, announces the member, and blocks pumping frames
// until the connection drops. On exit the client is unregistered before
// the leave announcement goes out.
func (c *ChatClient) Serve() {
	c.hub.Join(c)
	c.hub.Broadcast(c.conversationID, PresenceEvent{
		Type:      "user_joined",
		UserID:    c.userID,
		Username:  c.username,
		Timestamp: time.Now(),
	})

	go c.writePump()
	c.readPump()
}

func (c *ChatClient) readPump() {
	defer func() {
		c.hub.Leave(c)
		c.hub.Broadcast(c.conversationID, PresenceEvent{
			Type:      "user_left",
			UserID:    c.userID,
			Username:  c.username,
			Timestamp: time.Now(),
		})
		c.conn.Close()
	}()

	c.conn.SetReadLimit(chatMaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(chatPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(chatPongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame struct {
			Message *string `json:"message"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			c.sendError("Invalid JSON format")
			continue
		}
		if frame.Message == nil {
			c.sendError("Message key is required")
			continue
		}

		// Persist before broadcasting so history reads after delivery
		// always include the message.
		message := models.Message{
			ConversationID: c.conversationID,
			SenderID:       c.userID,
			Content:        *frame.Message,
		}
		if err := c.hub.db.Create(&message).Error; err != nil {
			log.Printf("chat: saving message for conversation %d: %v", c.conversationID, err)
			c.sendError("An error occurred: message could not be saved")
			continue
		}

		c.hub.Broadcast(c.conversationID, MessageEvent{
			ID:        message.ID,
			Content:   message.Content,
			SenderID:  c.userID,
			Timestamp: message.CreatedAt,
			IsRead:    message.IsRead,
		})
	}
}

func (c *ChatClient) writePump() {
	ticker := time.NewTicker(chatPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendError reports a payload problem to the offending connection only.
// The session stays open.
func (c *ChatClient) sendError(message string) {
	payload, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return
	}
	c.hub.trySend(c, payload)
}

// CloseWithCode rejects an established connection with a close code. Used
// during authorization, before the client ever joins a group.
func CloseWithCode(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(chatWriteWait)
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	conn.Close()
}
