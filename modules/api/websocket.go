package api

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/example/task-reminder-bot/modules/chat"
	"github.com/example/task-reminder-bot/modules/task"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const frameTimeout = 30 * time.Second

// requireChatIdentity rejects websocket upgrades without an owner and
// conversation.
func requireChatIdentity(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if c.Query("owner_id") == "" || c.Query("conversation_id") == "" {
		return fiber.NewError(fiber.StatusBadRequest, "owner_id and conversation_id are required")
	}
	return c.Next()
}

// handleWebSocket attaches a chat client to its conversation and serves
// its inbound frames until it disconnects.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	ownerID := c.Query("owner_id")
	conversationID := c.Query("conversation_id")

	clientID := m.hub.Register(conversationID, c)
	defer func() {
		m.hub.Unregister(clientID)
		c.Close()
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[api] WebSocket error for client %s: %v", clientID, err)
			}
			return
		}

		var frame InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			m.reply(context.Background(), conversationID, say("Invalid message format"))
			continue
		}
		m.handleFrame(ownerID, conversationID, frame)
	}
}

func (m *APIModule) handleFrame(ownerID, conversationID string, frame InboundFrame) {
	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	switch frame.Type {
	case "text":
		out, err := m.router.Handle(ctx, ownerID, conversationID, frame.Text)
		if err != nil {
			log.Printf("[api] Command failed for owner %s: %v", ownerID, err)
			out = say("Sorry, something went wrong. Please try again.")
		}
		m.reply(ctx, conversationID, out)

	case "button":
		reply, err := m.taskAdapter.PressButton(ctx, ownerID, frame.Data)
		if err != nil {
			log.Printf("[api] Button press failed for owner %s: %v", ownerID, err)
			m.reply(ctx, conversationID, say("⚠️ Error."))
			return
		}
		ref := chat.MessageRef{ConversationID: conversationID, MessageID: frame.MessageID}
		if err := m.hub.EditMessage(ctx, ref, reply.Text, buttonKeyboard(reply)); err != nil {
			m.reply(ctx, conversationID, []Outgoing{{Text: reply.Text, Keyboard: buttonKeyboard(reply)}})
		}

	case "action":
		reply, err := m.taskAdapter.Dispatch(ctx, &task.ToolCallRequest{
			OwnerID:        ownerID,
			ConversationID: conversationID,
			Name:           frame.Name,
			Arguments:      frame.Arguments,
		})
		if err != nil {
			log.Printf("[api] Action %q failed for owner %s: %v", frame.Name, ownerID, err)
			m.reply(ctx, conversationID, say("Sorry, something went wrong. Please try again."))
			return
		}
		m.reply(ctx, conversationID, say(reply.Text))

	default:
		m.reply(ctx, conversationID, say("Unknown message type: "+frame.Type))
	}
}

// reply sends messages to a conversation in order, stopping at the first
// delivery failure.
func (m *APIModule) reply(ctx context.Context, conversationID string, out []Outgoing) {
	for _, msg := range out {
		if _, err := m.hub.SendMessage(ctx, conversationID, msg.Text, msg.Keyboard); err != nil {
			log.Printf("[api] Failed to deliver reply to conversation %s: %v", conversationID, err)
			return
		}
	}
}
