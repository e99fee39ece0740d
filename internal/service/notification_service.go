package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
)

// NotificationService turns complaint events into notifications for the role
// that must act next. Delivery itself is out of process: events are logged and,
// when Redis is configured, fanned out on a pub/sub channel.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	redis      *redis.Client
}

// NewNotificationService creates the service. A nil Redis client disables fan-out.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, client *redis.Client) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		redis:      client,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventComplaintCreated, n.handleComplaintCreated)
	n.dispatcher.Subscribe(events.EventComplaintTransitioned, n.handleComplaintTransitioned)
}

func (n *NotificationService) handleComplaintCreated(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.ComplaintCreatedPayload)
	n.logger.Info("ComplaintCreated",
		zap.String("ticket_id", event.TicketID),
		zap.String("notify_role", string(payload.CurrentOwner)),
		zap.String("category", string(payload.Category)))
	n.sendWebhookNotificationStub(ctx, event)
	return n.fanOut(ctx, event)
}

func (n *NotificationService) handleComplaintTransitioned(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.ComplaintTransitionedPayload)
	n.logger.Info("ComplaintTransitioned",
		zap.String("ticket_id", event.TicketID),
		zap.String("action", string(payload.Action)),
		zap.String("notify_role", string(RecipientRole(payload))),
		zap.Int64("version", payload.Version))
	n.sendWebhookNotificationStub(ctx, event)
	return n.fanOut(ctx, event)
}

// RecipientRole picks whose inbox should hear about a transition. Outcomes go
// back to the reporter, except an admin resolution awaiting faculty
// acknowledgment, which goes to faculty. Everything else notifies the owner.
func RecipientRole(p events.ComplaintTransitionedPayload) domain.Role {
	switch p.Action {
	case domain.HistoryRejected, domain.HistoryAckAdminResolution:
		return p.RaisedByRole
	case domain.HistoryResolved:
		if p.FromOwner == domain.RoleAdmin && p.ToOwner == domain.RoleFaculty {
			return domain.RoleFaculty
		}
		return p.RaisedByRole
	default:
		return p.ToOwner
	}
}

func (n *NotificationService) fanOut(ctx context.Context, event events.Event) error {
	if n.redis == nil || n.cfg.RedisChannel == "" {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	if err := n.redis.Publish(ctx, n.cfg.RedisChannel, body).Err(); err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
