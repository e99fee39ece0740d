package domain

import "time"

// Role identifies which tier an actor or owner belongs to.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

// ComplaintCategory classifies what a complaint is about.
type ComplaintCategory string

const (
	CategoryAcademic  ComplaintCategory = "Academic"
	CategoryBehaviour ComplaintCategory = "Behaviour"
	CategoryFacility  ComplaintCategory = "Facility"
	CategoryOther     ComplaintCategory = "Other"
)

// Valid reports whether c is a known category.
func (c ComplaintCategory) Valid() bool {
	switch c {
	case CategoryAcademic, CategoryBehaviour, CategoryFacility, CategoryOther:
		return true
	}
	return false
}

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	StatusPendingFaculty ComplaintStatus = "pending_faculty"
	StatusPendingAdmin   ComplaintStatus = "pending_admin"
	StatusResolved       ComplaintStatus = "resolved"
	StatusRejected       ComplaintStatus = "rejected"
)

// HistoryAction names an entry in the audit trail.
type HistoryAction string

const (
	HistoryCreated            HistoryAction = "created"
	HistoryResolved           HistoryAction = "resolved"
	HistoryRejected           HistoryAction = "rejected"
	HistoryEscalated          HistoryAction = "escalated"
	HistoryCommented          HistoryAction = "commented"
	HistoryAckAdminResolution HistoryAction = "ack-admin-resolution"
)

// Actor is a directory-resolved identity acting on complaints.
type Actor struct {
	ID   string
	Name string
	Role Role
	// ClassID is the class a student belongs to.
	ClassID string
	// Department and Classes describe a faculty member's supervised population.
	Department string
	Classes    []string
}

// Raiser is the immutable snapshot of who opened a complaint.
type Raiser struct {
	ActorID string
	Name    string
	Role    Role
}

// HistoryEntry is an immutable audit trail entry.
type HistoryEntry struct {
	Action    HistoryAction
	ActorID   string
	ActorName string
	ActorRole Role
	Comment   string
	CreatedAt time.Time
}

// Complaint is the aggregate routed between student, faculty and admin inboxes.
type Complaint struct {
	ID              string
	RaisedBy        Raiser
	Category        ComplaintCategory
	Title           string
	Description     string
	Status          ComplaintStatus
	CurrentOwner    Role
	TargetClassID   *string
	TargetFacultyID *string
	History         []HistoryEntry
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
}

// Escalated reports whether the complaint was ever handed to admin by faculty.
func (c *Complaint) Escalated() bool {
	for _, entry := range c.History {
		if entry.Action == HistoryEscalated {
			return true
		}
	}
	return false
}

// EscalatedBy reports whether actorID performed an escalation on the complaint.
func (c *Complaint) EscalatedBy(actorID string) bool {
	for _, entry := range c.History {
		if entry.Action == HistoryEscalated && entry.ActorID == actorID {
			return true
		}
	}
	return false
}

// LastEntry returns the most recent history entry, if any.
func (c *Complaint) LastEntry() (HistoryEntry, bool) {
	if len(c.History) == 0 {
		return HistoryEntry{}, false
	}
	return c.History[len(c.History)-1], true
}

// Clone returns a deep copy that shares no mutable state with c.
func (c *Complaint) Clone() *Complaint {
	if c == nil {
		return nil
	}
	out := *c
	out.History = append([]HistoryEntry(nil), c.History...)
	out.TargetClassID = cloneString(c.TargetClassID)
	out.TargetFacultyID = cloneString(c.TargetFacultyID)
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
