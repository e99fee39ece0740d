package repository

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

var baseTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newComplaint(id, raiserID string, updatedAt time.Time) *domain.Complaint {
	return &domain.Complaint{
		ID:           id,
		RaisedBy:     domain.Raiser{ActorID: raiserID, Name: "Asha", Role: domain.RoleStudent},
		Category:     domain.CategoryFacility,
		Title:        "AC broken",
		Description:  "Room 204 is too hot",
		Status:       domain.StatusPendingFaculty,
		CurrentOwner: domain.RoleFaculty,
		History: []domain.HistoryEntry{{
			Action:    domain.HistoryCreated,
			ActorID:   raiserID,
			ActorName: "Asha",
			ActorRole: domain.RoleStudent,
			CreatedAt: baseTime,
		}},
		CreatedAt: baseTime,
		UpdatedAt: updatedAt,
		Version:   1,
	}
}

func escalate(c *domain.Complaint, at time.Time) *domain.Complaint {
	next := c.Clone()
	next.Status = domain.StatusPendingAdmin
	next.CurrentOwner = domain.RoleAdmin
	next.Version = c.Version + 1
	next.UpdatedAt = at
	next.History = append(next.History, domain.HistoryEntry{
		Action:    domain.HistoryEscalated,
		ActorID:   "fac-1",
		ActorName: "Dr Rao",
		ActorRole: domain.RoleFaculty,
		Comment:   "needs admin budget approval",
		CreatedAt: at,
	})
	return next
}
