package service

import (
	"context"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/workflow"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// InboxView names a role-specific worklist.
type InboxView string

const (
	ViewStudent            InboxView = "student"
	ViewFaculty            InboxView = "faculty"
	ViewFacultyEscalations InboxView = "faculty-escalations"
	ViewFacultyAck         InboxView = "faculty-ack"
	ViewAdmin              InboxView = "admin"
)

var viewRoles = map[InboxView]domain.Role{
	ViewStudent:            domain.RoleStudent,
	ViewFaculty:            domain.RoleFaculty,
	ViewFacultyEscalations: domain.RoleFaculty,
	ViewFacultyAck:         domain.RoleFaculty,
	ViewAdmin:              domain.RoleAdmin,
}

// InboxService projects the complaint collection into worklists. Views are
// recomputed on every call; nothing is cached.
type InboxService struct {
	complaints repository.ComplaintRepository
}

// NewInboxService constructs the projector.
func NewInboxService(complaints repository.ComplaintRepository) *InboxService {
	return &InboxService{complaints: complaints}
}

// View dispatches to the named worklist after checking the actor's role.
func (s *InboxService) View(ctx context.Context, actor *domain.Actor, view InboxView) ([]domain.Complaint, error) {
	role, ok := viewRoles[view]
	if !ok {
		return nil, apperrors.NewValidationError("unknown inbox view", map[string]any{
			"view":    view,
			"allowed": []InboxView{ViewStudent, ViewFaculty, ViewFacultyEscalations, ViewFacultyAck, ViewAdmin},
		})
	}
	if actor == nil || actor.Role != role {
		return nil, apperrors.NewUnauthorizedActor("inbox view not available for this role", map[string]any{"view": view})
	}

	switch view {
	case ViewStudent:
		return s.StudentInbox(ctx, actor.ID)
	case ViewFaculty:
		return s.FacultyInbox(ctx, actor)
	case ViewFacultyEscalations:
		return s.FacultyOwnEscalations(ctx, actor.ID)
	case ViewFacultyAck:
		return s.FacultyAckQueue(ctx, actor)
	default:
		return s.AdminInbox(ctx)
	}
}

// StudentInbox lists every complaint the student raised.
func (s *InboxService) StudentInbox(ctx context.Context, studentID string) ([]domain.Complaint, error) {
	return s.list(ctx, repository.ComplaintFilter{RaisedByID: &studentID}, nil)
}

// FacultyInbox lists student complaints awaiting first action within the
// faculty member's supervised population.
func (s *InboxService) FacultyInbox(ctx context.Context, faculty *domain.Actor) ([]domain.Complaint, error) {
	filter := repository.ComplaintFilter{
		Statuses: []domain.ComplaintStatus{domain.StatusPendingFaculty},
		Owners:   []domain.Role{domain.RoleFaculty},
	}
	return s.list(ctx, filter, func(c *domain.Complaint) bool {
		return Supervises(faculty, c)
	})
}

// FacultyOwnEscalations lists complaints the faculty member raised directly to admin.
func (s *InboxService) FacultyOwnEscalations(ctx context.Context, facultyID string) ([]domain.Complaint, error) {
	return s.list(ctx, repository.ComplaintFilter{RaisedByID: &facultyID}, nil)
}

// FacultyAckQueue lists admin-resolved escalations waiting for faculty to
// acknowledge them back to the student.
func (s *InboxService) FacultyAckQueue(ctx context.Context, faculty *domain.Actor) ([]domain.Complaint, error) {
	filter := repository.ComplaintFilter{
		Statuses: []domain.ComplaintStatus{domain.StatusResolved},
		Owners:   []domain.Role{domain.RoleFaculty},
	}
	return s.list(ctx, filter, func(c *domain.Complaint) bool {
		if !workflow.AwaitingAck(workflow.StateOf(c)) {
			return false
		}
		return c.EscalatedBy(faculty.ID) || Supervises(faculty, c)
	})
}

// AdminInbox lists complaints currently owned by admin.
func (s *InboxService) AdminInbox(ctx context.Context) ([]domain.Complaint, error) {
	return s.list(ctx, repository.ComplaintFilter{Owners: []domain.Role{domain.RoleAdmin}}, nil)
}

// Supervises reports whether a complaint falls in the faculty member's
// population: it targets them, targets one of their classes, or has no target.
func Supervises(faculty *domain.Actor, c *domain.Complaint) bool {
	if faculty == nil {
		return false
	}
	if c.TargetFacultyID == nil && c.TargetClassID == nil {
		return true
	}
	if c.TargetFacultyID != nil && *c.TargetFacultyID == faculty.ID {
		return true
	}
	if c.TargetClassID != nil {
		for _, class := range faculty.Classes {
			if class == *c.TargetClassID {
				return true
			}
		}
	}
	return false
}

func (s *InboxService) list(ctx context.Context, filter repository.ComplaintFilter, keep func(*domain.Complaint) bool) ([]domain.Complaint, error) {
	items, err := s.complaints.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	result := make([]domain.Complaint, 0, len(items))
	for i := range items {
		if keep == nil || keep(&items[i]) {
			result = append(result, items[i])
		}
	}
	repository.SortByRecent(result)
	return result, nil
}
