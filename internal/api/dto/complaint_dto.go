package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/workflow"
)

// CreateComplaintRequest payload.
type CreateComplaintRequest struct {
	Category    string            `json:"category" validate:"required,oneof=Academic Behaviour Facility Other"`
	Title       string            `json:"title" validate:"required,max=200"`
	Description string            `json:"description" validate:"required,max=5000"`
	Context     *ComplaintContext `json:"context" validate:"omitempty"`
}

// ComplaintContext carries optional references attached at creation.
type ComplaintContext struct {
	TargetClassID   *string `json:"target_class_id" validate:"omitempty,max=64"`
	TargetFacultyID *string `json:"target_faculty_id" validate:"omitempty,max=64"`
}

// ActionRequest payload. Version may instead arrive in the If-Match header.
type ActionRequest struct {
	Action  string `json:"action" validate:"required"`
	Comment string `json:"comment" validate:"max=2000"`
	Version *int64 `json:"version" validate:"omitempty,gt=0"`
}

// RaiserResponse describes who opened the complaint.
type RaiserResponse struct {
	ActorID string      `json:"actor_id"`
	Name    string      `json:"name"`
	Role    domain.Role `json:"role"`
}

// HistoryEntryResponse is one audit trail entry.
type HistoryEntryResponse struct {
	Action    domain.HistoryAction `json:"action"`
	ActorID   string               `json:"actor_id"`
	ActorName string               `json:"actor_name"`
	ActorRole domain.Role          `json:"actor_role"`
	Comment   string               `json:"comment,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// ComplaintResponse provides full complaint info.
type ComplaintResponse struct {
	ID              string                   `json:"id"`
	RaisedBy        RaiserResponse           `json:"raised_by"`
	Category        domain.ComplaintCategory `json:"category"`
	Title           string                   `json:"title"`
	Description     string                   `json:"description"`
	Status          domain.ComplaintStatus   `json:"status"`
	CurrentOwner    domain.Role              `json:"current_owner"`
	TargetClassID   *string                  `json:"target_class_id"`
	TargetFacultyID *string                  `json:"target_faculty_id"`
	History         []HistoryEntryResponse   `json:"history"`
	AllowedActions  []string                 `json:"allowed_actions"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
	Version         int64                    `json:"version"`
}

// ComplaintSummary is the inbox row shape.
type ComplaintSummary struct {
	ID           string                   `json:"id"`
	RaisedBy     RaiserResponse           `json:"raised_by"`
	Category     domain.ComplaintCategory `json:"category"`
	Title        string                   `json:"title"`
	Status       domain.ComplaintStatus   `json:"status"`
	CurrentOwner domain.Role              `json:"current_owner"`
	LastAction   domain.HistoryAction     `json:"last_action"`
	UpdatedAt    time.Time                `json:"updated_at"`
	Version      int64                    `json:"version"`
}

// InboxResponse wraps a projected worklist.
type InboxResponse struct {
	View  string             `json:"view"`
	Count int                `json:"count"`
	Items []ComplaintSummary `json:"items"`
}

// NewComplaintResponse renders a complaint for the given viewer role.
func NewComplaintResponse(c *domain.Complaint, viewer domain.Role) ComplaintResponse {
	history := make([]HistoryEntryResponse, 0, len(c.History))
	for _, h := range c.History {
		history = append(history, HistoryEntryResponse{
			Action:    h.Action,
			ActorID:   h.ActorID,
			ActorName: h.ActorName,
			ActorRole: h.ActorRole,
			Comment:   h.Comment,
			CreatedAt: h.CreatedAt,
		})
	}
	allowed := workflow.AllowedActions(workflow.StateOf(c), viewer)
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return ComplaintResponse{
		ID:              c.ID,
		RaisedBy:        raiserResponse(c.RaisedBy),
		Category:        c.Category,
		Title:           c.Title,
		Description:     c.Description,
		Status:          c.Status,
		CurrentOwner:    c.CurrentOwner,
		TargetClassID:   c.TargetClassID,
		TargetFacultyID: c.TargetFacultyID,
		History:         history,
		AllowedActions:  names,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
		Version:         c.Version,
	}
}

// NewInboxResponse renders a worklist.
func NewInboxResponse(view string, complaints []domain.Complaint) InboxResponse {
	items := make([]ComplaintSummary, 0, len(complaints))
	for i := range complaints {
		c := &complaints[i]
		summary := ComplaintSummary{
			ID:           c.ID,
			RaisedBy:     raiserResponse(c.RaisedBy),
			Category:     c.Category,
			Title:        c.Title,
			Status:       c.Status,
			CurrentOwner: c.CurrentOwner,
			UpdatedAt:    c.UpdatedAt,
			Version:      c.Version,
		}
		if last, ok := c.LastEntry(); ok {
			summary.LastAction = last.Action
		}
		items = append(items, summary)
	}
	return InboxResponse{View: view, Count: len(items), Items: items}
}

func raiserResponse(r domain.Raiser) RaiserResponse {
	return RaiserResponse{ActorID: r.ActorID, Name: r.Name, Role: r.Role}
}
