package chat

import (
	"context"
	"log"

	"github.com/go-monolith/mono"
)

// ChatModule owns the websocket hub used to deliver replies and reminders.
type ChatModule struct {
	hub *Hub
}

// Compile-time interface checks.
var _ mono.Module = (*ChatModule)(nil)
var _ mono.HealthCheckableModule = (*ChatModule)(nil)

// NewModule creates a new ChatModule.
func NewModule() *ChatModule {
	return &ChatModule{hub: NewHub()}
}

// Name returns the module name.
func (m *ChatModule) Name() string {
	return "chat"
}

// Hub returns the delivery hub for the API and sweeper modules.
func (m *ChatModule) Hub() *Hub {
	return m.hub
}

// Start starts the module.
func (m *ChatModule) Start(_ context.Context) error {
	log.Println("[chat] Module started - delivery hub ready")
	return nil
}

// Stop disconnects all clients.
func (m *ChatModule) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	m.hub.CloseAll()
	log.Printf("[chat] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *ChatModule) Health(_ context.Context) mono.HealthStatus {
	delivered, failed := m.hub.Stats()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients":    m.hub.ClientCount(),
			"active_conversations": m.hub.ConversationCount(),
			"messages_delivered":   delivered,
			"messages_failed":      failed,
		},
	}
}
