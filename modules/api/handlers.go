package api

import (
	"github.com/example/task-reminder-bot/modules/task"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes() {
	// Health check endpoint
	m.app.Get("/health", m.healthHandler)

	// Chat clients
	if m.hub != nil {
		m.app.Use("/ws", requireChatIdentity)
		m.app.Get("/ws", websocket.New(m.handleWebSocket))
	}

	// API v1 routes
	api := m.app.Group("/api/v1")
	api.Post("/conversations/:conversation_id/commands", m.runCommand)
	api.Post("/buttons", m.pressButton)
	api.Post("/tool-calls", m.toolCall)
	api.Get("/notifications", m.listNotifications)
	api.Post("/sweeps", m.runSweep)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	details := map[string]any{
		"module": "api",
		"addr":   m.addr,
	}
	if m.hub != nil {
		details["connected_clients"] = m.hub.ClientCount()
	}
	return c.JSON(HealthResponse{
		Status:  "healthy",
		Details: details,
	})
}

// runCommand handles POST /api/v1/conversations/:conversation_id/commands.
func (m *APIModule) runCommand(c *fiber.Ctx) error {
	var req CommandRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if req.OwnerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Owner ID is required",
		})
	}

	out, err := m.router.Handle(c.Context(), req.OwnerID, c.Params("conversation_id"), req.Text)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "command_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(CommandResponse{Messages: out})
}

// pressButton handles POST /api/v1/buttons.
func (m *APIModule) pressButton(c *fiber.Ctx) error {
	var req ButtonPressRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	reply, err := m.taskAdapter.PressButton(c.Context(), req.OwnerID, req.Data)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "button_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(reply)
}

// toolCall handles POST /api/v1/tool-calls. The result text is returned
// for every outcome; only transport failures are HTTP errors.
func (m *APIModule) toolCall(c *fiber.Ctx) error {
	var req ToolCallRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	reply, err := m.taskAdapter.Dispatch(c.Context(), &task.ToolCallRequest{
		OwnerID:        req.OwnerID,
		ConversationID: req.ConversationID,
		Name:           req.Name,
		Arguments:      req.Arguments,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "tool_call_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(ToolCallResponse{
		Result:  reply.Text,
		Outcome: reply.Outcome,
		TaskID:  reply.TaskID,
	})
}

// listNotifications handles GET /api/v1/notifications.
func (m *APIModule) listNotifications(c *fiber.Ctx) error {
	if m.feed == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error:   "unavailable",
			Message: "Notification feed is not configured",
		})
	}

	items := m.feed.GetNotifications(c.Query("owner_id", ""))
	return c.JSON(NotificationsResponse{
		Notifications: items,
		Total:         len(items),
	})
}

// runSweep handles POST /api/v1/sweeps.
func (m *APIModule) runSweep(c *fiber.Ctx) error {
	if m.sweepAdapter == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error:   "unavailable",
			Message: "Sweeper is not configured",
		})
	}

	resp, err := m.sweepAdapter.RunSweep(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "sweep_failed",
			Message: err.Error(),
		})
	}
	if resp.Error != "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error:   "sweep_failed",
			Message: resp.Error,
		})
	}
	return c.JSON(SweepResponse{Report: resp.Report})
}
