package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/workflow"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// ComplaintService applies workflow transitions to stored complaints. Each
// call performs at most one store write and has no other side effects.
type ComplaintService struct {
	complaints repository.ComplaintRepository
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
	newID      func() string
}

// ComplaintDependencies bundles collaborators for the complaint service.
type ComplaintDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	Logger        *zap.Logger
	Metrics       *observability.Metrics
	// Clock and IDGenerator default to time.Now and uuid.NewString.
	Clock       func() time.Time
	IDGenerator func() string
}

// ComplaintCreateInput describes complaint creation payload.
type ComplaintCreateInput struct {
	Category        domain.ComplaintCategory
	Title           string
	Description     string
	TargetClassID   *string
	TargetFacultyID *string
}

// ActionInput describes one requested transition.
type ActionInput struct {
	Action          workflow.Action
	Comment         string
	ExpectedVersion int64
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	s := &ComplaintService{
		complaints: deps.ComplaintRepo,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		now:        deps.Clock,
		newID:      deps.IDGenerator,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// CreateComplaint opens a complaint raised by the given actor.
func (s *ComplaintService) CreateComplaint(ctx context.Context, raiser *domain.Actor, input ComplaintCreateInput) (*domain.Complaint, error) {
	if raiser == nil {
		return nil, apperrors.NewUnauthorizedActor("actor required", nil)
	}
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)

	var missing []string
	if title == "" {
		missing = append(missing, "title")
	}
	if description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError(strings.Join(missing, ", ")+" required", map[string]any{"fields": missing})
	}
	if !input.Category.Valid() {
		return nil, apperrors.NewValidationError("invalid category", map[string]any{"category": input.Category})
	}

	initial, rej := workflow.Initial(raiser.Role)
	if rej != nil {
		return nil, apperrors.NewUnauthorizedActor(rej.Reason, nil)
	}

	now := s.now().UTC()
	complaint := &domain.Complaint{
		ID:              s.newID(),
		RaisedBy:        domain.Raiser{ActorID: raiser.ID, Name: raiser.Name, Role: raiser.Role},
		Category:        input.Category,
		Title:           title,
		Description:     description,
		Status:          initial.Status,
		CurrentOwner:    initial.Owner,
		TargetClassID:   trimmedOrNil(input.TargetClassID),
		TargetFacultyID: trimmedOrNil(input.TargetFacultyID),
		History: []domain.HistoryEntry{{
			Action:    domain.HistoryCreated,
			ActorID:   raiser.ID,
			ActorName: raiser.Name,
			ActorRole: raiser.Role,
			CreatedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}

	if err := s.complaints.Create(ctx, complaint); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.metrics.RecordTransition(string(domain.HistoryCreated), "accepted")
	s.logger.Info("complaint created",
		zap.String("ticket_id", complaint.ID),
		zap.String("actor_role", string(raiser.Role)),
		zap.String("status", string(complaint.Status)))
	return complaint, nil
}

// GetComplaint returns the complaint with its full history.
func (s *ComplaintService) GetComplaint(ctx context.Context, ticketID string) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, ticketID)
	if err != nil {
		return nil, s.mapStoreError(err, ticketID)
	}
	return complaint, nil
}

// GetComplaintForActor applies read visibility: students see only their own
// complaints, faculty and admin see all.
func (s *ComplaintService) GetComplaintForActor(ctx context.Context, actor *domain.Actor, ticketID string) (*domain.Complaint, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorizedActor("actor required", nil)
	}
	complaint, err := s.GetComplaint(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, complaint) {
		return nil, apperrors.NewUnauthorizedActor("access denied", nil)
	}
	return complaint, nil
}

func canRead(actor *domain.Actor, c *domain.Complaint) bool {
	return actor.Role != domain.RoleStudent || c.RaisedBy.ActorID == actor.ID
}

// ActionOutcome pairs the stored complaint an action was applied against with
// the complaint it produced.
type ActionOutcome struct {
	Before *domain.Complaint
	After  *domain.Complaint
}

// ApplyAction performs one transition guarded by the expected version.
func (s *ComplaintService) ApplyAction(ctx context.Context, ticketID string, actor *domain.Actor, input ActionInput) (*domain.Complaint, error) {
	outcome, err := s.Apply(ctx, ticketID, actor, input)
	if err != nil {
		return nil, err
	}
	return outcome.After, nil
}

// Apply is ApplyAction that also returns the version the write replaced.
func (s *ComplaintService) Apply(ctx context.Context, ticketID string, actor *domain.Actor, input ActionInput) (*ActionOutcome, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorizedActor("actor required", nil)
	}
	if input.ExpectedVersion <= 0 {
		return nil, apperrors.NewValidationError("version required", map[string]any{"field": "version"})
	}

	current, err := s.complaints.GetByID(ctx, ticketID)
	if err != nil {
		return nil, s.mapStoreError(err, ticketID)
	}
	if !canRead(actor, current) {
		s.metrics.RecordTransition(string(input.Action), string(workflow.RejectUnauthorizedActor))
		return nil, apperrors.NewUnauthorizedActor("access denied", nil)
	}
	if current.Version != input.ExpectedVersion {
		s.metrics.RecordTransition(string(input.Action), "version_conflict")
		return nil, versionConflict(current, input.ExpectedVersion)
	}

	transition, rej := workflow.Decide(workflow.StateOf(current), actor.Role, input.Action, input.Comment)
	if rej != nil {
		s.metrics.RecordTransition(string(input.Action), string(rej.Kind))
		s.logger.Debug("complaint action rejected",
			zap.String("ticket_id", ticketID),
			zap.String("action", string(input.Action)),
			zap.String("actor_role", string(actor.Role)),
			zap.String("reason", rej.Reason))
		return nil, rejectionError(rej)
	}

	next := current.Clone()
	at := s.timestamp(current)
	next.Status = transition.Status
	next.CurrentOwner = transition.Owner
	next.Version = current.Version + 1
	next.UpdatedAt = at
	next.History = append(next.History, domain.HistoryEntry{
		Action:    transition.Entry,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		ActorRole: actor.Role,
		Comment:   strings.TrimSpace(input.Comment),
		CreatedAt: at,
	})

	if err := s.complaints.Update(ctx, next, input.ExpectedVersion); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			s.metrics.RecordTransition(string(input.Action), "version_conflict")
			return nil, apperrors.NewVersionConflict("complaint was modified concurrently; re-read and retry",
				map[string]any{"expected_version": input.ExpectedVersion})
		}
		return nil, s.mapStoreError(err, ticketID)
	}

	s.metrics.RecordTransition(string(input.Action), "accepted")
	s.logger.Info("complaint transitioned",
		zap.String("ticket_id", next.ID),
		zap.String("action", string(input.Action)),
		zap.String("actor_role", string(actor.Role)),
		zap.String("status", string(next.Status)),
		zap.String("owner", string(next.CurrentOwner)),
		zap.Int64("version", next.Version))
	return &ActionOutcome{Before: current, After: next}, nil
}

// timestamp keeps history timestamps non-decreasing even if the clock steps back.
func (s *ComplaintService) timestamp(c *domain.Complaint) time.Time {
	at := s.now().UTC()
	if last, ok := c.LastEntry(); ok && last.CreatedAt.After(at) {
		at = last.CreatedAt
	}
	if c.UpdatedAt.After(at) {
		at = c.UpdatedAt
	}
	return at
}

func (s *ComplaintService) mapStoreError(err error, ticketID string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("complaint", map[string]any{"ticket_id": ticketID})
	}
	s.logger.Error("complaint store failure", zap.String("ticket_id", ticketID), zap.Error(err))
	return apperrors.NewInternalError(err)
}

func versionConflict(current *domain.Complaint, expected int64) error {
	return apperrors.NewVersionConflict("complaint has changed since it was read; re-read and retry", map[string]any{
		"expected_version": expected,
		"current_version":  current.Version,
		"status":           current.Status,
		"current_owner":    current.CurrentOwner,
	})
}

func rejectionError(rej *workflow.Rejection) error {
	switch rej.Kind {
	case workflow.RejectValidation:
		return apperrors.NewValidationError(rej.Reason, map[string]any{"field": "comment"})
	case workflow.RejectUnauthorizedActor:
		return apperrors.NewUnauthorizedActor(rej.Reason, nil)
	default:
		return apperrors.NewForbiddenTransition(rej.Reason, map[string]any{
			"status":          rej.State.Status,
			"current_owner":   rej.State.Owner,
			"allowed_actions": ActionNames(rej.Legal),
		})
	}
}

// ActionNames renders actions for transport.
func ActionNames(actions []workflow.Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = string(a)
	}
	return out
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
