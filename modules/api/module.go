package api

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/example/task-reminder-bot/modules/chat"
	"github.com/example/task-reminder-bot/modules/notification"
	"github.com/example/task-reminder-bot/modules/sweeper"
	"github.com/example/task-reminder-bot/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Hub is the connection registry and delivery gate for chat clients.
type Hub interface {
	chat.Gateway
	Register(conversationID string, conn chat.Conn) string
	Unregister(clientID string)
	ClientCount() int
}

// Feed serves the notification audit log.
type Feed interface {
	GetNotifications(ownerID string) []notification.NotificationLog
}

// APIModule is the driving adapter for chat clients and HTTP callers.
// It calls into the task module via the TaskPort interface.
type APIModule struct {
	app          *fiber.App
	addr         string
	taskAdapter  task.TaskPort
	sweepAdapter sweeper.SweepPort
	router       *commandRouter
	hub          Hub
	feed         Feed
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule listening on addr.
func NewModule(addr string) *APIModule {
	return &APIModule{addr: addr}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"task", "sweeper"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "task":
		m.taskAdapter = task.NewTaskAdapter(container)
	case "sweeper":
		m.sweepAdapter = sweeper.NewSweepAdapter(container)
	}
}

// SetHub connects the websocket endpoint to the chat hub.
func (m *APIModule) SetHub(hub Hub) {
	m.hub = hub
}

// SetFeed connects the notifications endpoint to the audit feed.
func (m *APIModule) SetFeed(feed Feed) {
	m.feed = feed
}

// Start initializes the Fiber HTTP server.
// Returns an error if required dependencies are not set.
func (m *APIModule) Start(_ context.Context) error {
	if m.taskAdapter == nil {
		return fmt.Errorf("taskAdapter dependency not set")
	}
	m.buildApp()

	// Server availability is verified via Health() method.
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	log.Printf("[api] HTTP server started on %s", m.addr)
	return nil
}

func (m *APIModule) buildApp() {
	m.router = &commandRouter{tasks: m.taskAdapter}
	m.app = fiber.New(fiber.Config{
		AppName:               "Task Reminder Bot",
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[api] ${time} ${status} ${method} ${path} ${latency}\n",
	}))

	m.setupRoutes()
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	if err := m.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr": m.addr,
		},
	}
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
