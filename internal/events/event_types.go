package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintCreated      EventType = "complaint_created"
	EventComplaintTransitioned EventType = "complaint_transitioned"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string      `json:"id"`
	Name string      `json:"name,omitempty"`
	Role domain.Role `json:"role"`
}

// Event represents a complaint event observed by the caller after a store write.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ComplaintCreatedPayload payload.
type ComplaintCreatedPayload struct {
	Category     domain.ComplaintCategory `json:"category"`
	Title        string                   `json:"title"`
	Status       domain.ComplaintStatus   `json:"status"`
	CurrentOwner domain.Role              `json:"current_owner"`
}

// ComplaintTransitionedPayload payload. Comment-only actions report identical
// from/to pairs.
type ComplaintTransitionedPayload struct {
	Action       domain.HistoryAction   `json:"action"`
	RaisedByRole domain.Role            `json:"raised_by_role"`
	FromStatus   domain.ComplaintStatus `json:"from_status"`
	FromOwner    domain.Role            `json:"from_owner"`
	ToStatus     domain.ComplaintStatus `json:"to_status"`
	ToOwner      domain.Role            `json:"to_owner"`
	Version      int64                  `json:"version"`
	Comment      string                 `json:"comment,omitempty"`
}

// ComplaintCreated builds the event for a freshly stored complaint.
func ComplaintCreated(c *domain.Complaint, actor *domain.Actor) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      EventComplaintCreated,
		TicketID:  c.ID,
		Actor:     actorOf(actor),
		Timestamp: c.CreatedAt,
		Payload: ComplaintCreatedPayload{
			Category:     c.Category,
			Title:        c.Title,
			Status:       c.Status,
			CurrentOwner: c.CurrentOwner,
		},
	}
}

// ComplaintTransitioned builds the event for an accepted action, comparing the
// state before and after the write.
func ComplaintTransitioned(before, after *domain.Complaint, actor *domain.Actor) Event {
	payload := ComplaintTransitionedPayload{
		RaisedByRole: after.RaisedBy.Role,
		FromStatus:   before.Status,
		FromOwner:    before.CurrentOwner,
		ToStatus:     after.Status,
		ToOwner:      after.CurrentOwner,
		Version:      after.Version,
	}
	if last, ok := after.LastEntry(); ok {
		payload.Action = last.Action
		payload.Comment = last.Comment
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      EventComplaintTransitioned,
		TicketID:  after.ID,
		Actor:     actorOf(actor),
		Timestamp: after.UpdatedAt,
		Payload:   payload,
	}
}

func actorOf(a *domain.Actor) Actor {
	if a == nil {
		return Actor{}
	}
	return Actor{ID: a.ID, Name: a.Name, Role: a.Role}
}
