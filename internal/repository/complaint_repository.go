package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/spec-kit/complaint-service/internal/domain"
)

var (
	// ErrNotFound is returned when no complaint has the requested id.
	ErrNotFound = errors.New("complaint not found")
	// ErrVersionConflict is returned when a write presents a stale version.
	ErrVersionConflict = errors.New("complaint version conflict")
	// ErrInvalidWrite is returned when an update does not append exactly one history entry.
	ErrInvalidWrite = errors.New("update must append exactly one history entry")
)

// ComplaintFilter narrows List results. Empty fields match everything.
type ComplaintFilter struct {
	RaisedByID *string
	Statuses   []domain.ComplaintStatus
	Owners     []domain.Role
}

// ComplaintRepository is the durable ticket store.
//
// Update is a compare-and-swap: it succeeds only when the stored version equals
// expectedVersion, and it persists the new status, owner, version, updated_at
// and the single history entry appended to complaint.History in one atomic
// write.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	Update(ctx context.Context, complaint *domain.Complaint, expectedVersion int64) error
	List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
}

// Matches reports whether complaint passes the filter.
func (f ComplaintFilter) Matches(c *domain.Complaint) bool {
	if f.RaisedByID != nil && c.RaisedBy.ActorID != *f.RaisedByID {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, c.Status) {
		return false
	}
	if len(f.Owners) > 0 && !containsRole(f.Owners, c.CurrentOwner) {
		return false
	}
	return true
}

// SortByRecent orders complaints by updated_at descending, then id ascending.
func SortByRecent(items []domain.Complaint) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
			return items[i].UpdatedAt.After(items[j].UpdatedAt)
		}
		return items[i].ID < items[j].ID
	})
}

func containsStatus(list []domain.ComplaintStatus, v domain.ComplaintStatus) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsRole(list []domain.Role, v domain.Role) bool {
	for _, r := range list {
		if r == v {
			return true
		}
	}
	return false
}
