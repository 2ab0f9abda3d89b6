package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/task-reminder-bot/domain/task"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Frame is the JSON payload pushed to chat clients.
type Frame struct {
	Type           string    `json:"type"` // "message" or "edit"
	ConversationID string    `json:"conversation_id"`
	MessageID      string    `json:"message_id"`
	Text           string    `json:"text"`
	Keyboard       Keyboard  `json:"keyboard,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

type client struct {
	id             string
	conversationID string
	conn           Conn
	mu             sync.Mutex // websocket writes are not concurrency-safe
}

// write gives up when ctx ends even if the connection ignores its write
// deadline. The caller closes the connection to release the stuck writer.
func (c *client) write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		deadline, _ := ctx.Deadline() // zero clears a previous deadline
		if err := c.conn.SetWriteDeadline(deadline); err != nil {
			done <- err
			return
		}
		done <- c.conn.WriteMessage(websocket.TextMessage, data)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Hub tracks connected chat clients by conversation and implements Gateway.
type Hub struct {
	clients       map[string]*client            // clientID -> client
	conversations map[string]map[string]*client // conversationID -> clients
	mu            sync.RWMutex

	delivered atomic.Int64
	failed    atomic.Int64
}

var _ Gateway = (*Hub)(nil)

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:       make(map[string]*client),
		conversations: make(map[string]map[string]*client),
	}
}

// Register attaches a connection to a conversation and returns its client id.
func (h *Hub) Register(conversationID string, conn Conn) string {
	c := &client{id: uuid.New().String(), conversationID: conversationID, conn: conn}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.id] = c
	if h.conversations[conversationID] == nil {
		h.conversations[conversationID] = make(map[string]*client)
	}
	h.conversations[conversationID][c.id] = c
	log.Printf("[chat] Client %s joined conversation %s", c.id, conversationID)
	return c.id
}

// Unregister removes a client. Unknown ids are ignored.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(clientID)
}

func (h *Hub) removeLocked(clientID string) {
	c, ok := h.clients[clientID]
	if !ok {
		return
	}
	delete(h.clients, clientID)
	if members := h.conversations[c.conversationID]; members != nil {
		delete(members, clientID)
		if len(members) == 0 {
			delete(h.conversations, c.conversationID)
		}
	}
	log.Printf("[chat] Client %s left conversation %s", clientID, c.conversationID)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ConversationCount returns the number of conversations with a live client.
func (h *Hub) ConversationCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conversations)
}

// Stats returns delivered and failed frame counts.
func (h *Hub) Stats() (delivered, failed int64) {
	return h.delivered.Load(), h.failed.Load()
}

// SendMessage pushes a new message to every client of the conversation.
func (h *Hub) SendMessage(ctx context.Context, conversationID, text string, keyboard Keyboard) (MessageRef, error) {
	ref := MessageRef{ConversationID: conversationID, MessageID: uuid.New().String()}
	err := h.push(ctx, Frame{
		Type:           "message",
		ConversationID: conversationID,
		MessageID:      ref.MessageID,
		Text:           text,
		Keyboard:       keyboard,
		Timestamp:      time.Now().UTC(),
	})
	if err != nil {
		return MessageRef{}, err
	}
	return ref, nil
}

// EditMessage replaces the text and buttons of a message delivered earlier.
func (h *Hub) EditMessage(ctx context.Context, ref MessageRef, text string, keyboard Keyboard) error {
	if ref.MessageID == "" {
		return fmt.Errorf("%w: empty message reference", task.ErrDelivery)
	}
	return h.push(ctx, Frame{
		Type:           "edit",
		ConversationID: ref.ConversationID,
		MessageID:      ref.MessageID,
		Text:           text,
		Keyboard:       keyboard,
		Timestamp:      time.Now().UTC(),
	})
}

// push succeeds when at least one client of the conversation received the frame.
func (h *Hub) push(ctx context.Context, frame Frame) error {
	if err := ctx.Err(); err != nil {
		h.failed.Add(1)
		return fmt.Errorf("%w: %w", task.ErrDelivery, err)
	}

	data, err := json.Marshal(frame)
	if err != nil {
		h.failed.Add(1)
		return fmt.Errorf("%w: failed to marshal frame: %w", task.ErrDelivery, err)
	}

	h.mu.RLock()
	members := make([]*client, 0, len(h.conversations[frame.ConversationID]))
	for _, c := range h.conversations[frame.ConversationID] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	if len(members) == 0 {
		h.failed.Add(1)
		return fmt.Errorf("%w: no client connected to conversation %s", task.ErrDelivery, frame.ConversationID)
	}

	var sent int
	var stale []*client
	var lastErr error
	for _, c := range members {
		if err := c.write(ctx, data); err != nil {
			log.Printf("[chat] Failed to send to client %s: %v", c.id, err)
			stale = append(stale, c)
			lastErr = err
			continue
		}
		sent++
	}

	if len(stale) > 0 {
		h.mu.Lock()
		for _, c := range stale {
			h.removeLocked(c.id)
		}
		h.mu.Unlock()
		for _, c := range stale {
			_ = c.conn.Close()
		}
	}

	if sent == 0 {
		h.failed.Add(1)
		return fmt.Errorf("%w: all writes to conversation %s failed: %w", task.ErrDelivery, frame.ConversationID, lastErr)
	}
	h.delivered.Add(1)
	return nil
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.clients {
		_ = c.conn.Close()
	}
	h.clients = make(map[string]*client)
	h.conversations = make(map[string]map[string]*client)
}
