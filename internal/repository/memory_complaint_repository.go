package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/spec-kit/complaint-service/internal/domain"
)

type memoryComplaintRepository struct {
	mu    sync.RWMutex
	items map[string]*domain.Complaint
}

// NewMemoryComplaintRepository returns a process-local store, used when no
// Postgres DSN is configured and in tests.
func NewMemoryComplaintRepository() ComplaintRepository {
	return &memoryComplaintRepository{items: make(map[string]*domain.Complaint)}
}

func (r *memoryComplaintRepository) Create(_ context.Context, complaint *domain.Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[complaint.ID]; exists {
		return fmt.Errorf("complaint %s already exists", complaint.ID)
	}
	r.items[complaint.ID] = complaint.Clone()
	return nil
}

func (r *memoryComplaintRepository) GetByID(_ context.Context, id string) (*domain.Complaint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return stored.Clone(), nil
}

func (r *memoryComplaintRepository) Update(_ context.Context, complaint *domain.Complaint, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[complaint.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != expectedVersion {
		return ErrVersionConflict
	}
	if len(complaint.History) != len(stored.History)+1 {
		return ErrInvalidWrite
	}
	r.items[complaint.ID] = complaint.Clone()
	return nil
}

func (r *memoryComplaintRepository) List(_ context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	r.mu.RLock()
	result := make([]domain.Complaint, 0, len(r.items))
	for _, stored := range r.items {
		if filter.Matches(stored) {
			result = append(result, *stored.Clone())
		}
	}
	r.mu.RUnlock()
	SortByRecent(result)
	return result, nil
}
