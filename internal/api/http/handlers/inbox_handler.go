package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/service"
)

// InboxHandler serves role-scoped worklists.
type InboxHandler struct {
	inbox *service.InboxService
}

// NewInboxHandler constructs handler.
func NewInboxHandler(inbox *service.InboxService) *InboxHandler {
	return &InboxHandler{inbox: inbox}
}

// View GET /api/v1/inbox/:view.
func (h *InboxHandler) View(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	view := c.Params("view")
	complaints, err := h.inbox.View(c.UserContext(), actor, service.InboxView(view))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewInboxResponse(view, complaints)})
}
