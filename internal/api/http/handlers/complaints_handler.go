package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/workflow"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// ComplaintsHandler exposes create, read and action endpoints.
type ComplaintsHandler struct {
	service   *service.ComplaintService
	publisher events.Publisher
	logger    *zap.Logger
}

// NewComplaintsHandler constructs handler. A nil publisher disables events.
func NewComplaintsHandler(complaints *service.ComplaintService, publisher events.Publisher, logger *zap.Logger) *ComplaintsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintsHandler{service: complaints, publisher: publisher, logger: logger}
}

// CreateComplaint POST /api/v1/complaints.
func (h *ComplaintsHandler) CreateComplaint(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	input := service.ComplaintCreateInput{
		Category:    domain.ComplaintCategory(req.Category),
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Context != nil {
		input.TargetClassID = req.Context.TargetClassID
		input.TargetFacultyID = req.Context.TargetFacultyID
	}
	complaint, err := h.service.CreateComplaint(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	h.publish(c, events.ComplaintCreated(complaint, actor))
	c.Set(fiber.HeaderETag, etag(complaint.Version))
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint, actor.Role)})
}

// GetComplaint GET /api/v1/complaints/:id.
func (h *ComplaintsHandler) GetComplaint(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	complaint, err := h.service.GetComplaintForActor(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderETag, etag(complaint.Version))
	return c.JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint, actor.Role)})
}

// ApplyAction PATCH /api/v1/complaints/:id/action.
func (h *ComplaintsHandler) ApplyAction(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.ActionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	version, err := expectedVersion(req.Version, c.Get(fiber.HeaderIfMatch))
	if err != nil {
		return err
	}

	ticketID := c.Params("id")
	action, _ := workflow.ParseAction(req.Action)
	outcome, err := h.service.Apply(c.UserContext(), ticketID, actor, service.ActionInput{
		Action:          action,
		Comment:         req.Comment,
		ExpectedVersion: version,
	})
	if err != nil {
		return err
	}
	updated := outcome.After
	h.publish(c, events.ComplaintTransitioned(outcome.Before, updated, actor))
	c.Set(fiber.HeaderETag, etag(updated.Version))
	return c.JSON(fiber.Map{"data": dto.NewComplaintResponse(updated, actor.Role)})
}

func (h *ComplaintsHandler) publish(c *fiber.Ctx, event events.Event) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(c.UserContext(), event); err != nil {
		h.logger.Warn("publish complaint event",
			zap.String("ticket_id", event.TicketID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}

// expectedVersion prefers the body field and falls back to If-Match.
func expectedVersion(body *int64, ifMatch string) (int64, error) {
	if body != nil {
		return *body, nil
	}
	raw := strings.TrimSpace(ifMatch)
	raw = strings.TrimPrefix(raw, "W/")
	raw = strings.Trim(raw, `"`)
	if raw == "" {
		return 0, apperrors.NewValidationError("version required in body or If-Match header", map[string]any{"field": "version"})
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, apperrors.NewValidationError("If-Match must carry a positive version", map[string]any{"field": "version"})
	}
	return v, nil
}

func etag(version int64) string {
	return `"` + strconv.FormatInt(version, 10) + `"`
}
