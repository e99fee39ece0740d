package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
)

var (
	student      = &domain.Actor{ID: "stu-1", Name: "Asha Menon", Role: domain.RoleStudent, ClassID: "cse-3a"}
	otherStudent = &domain.Actor{ID: "stu-2", Name: "Rahul Iyer", Role: domain.RoleStudent, ClassID: "ece-2b"}
	faculty      = &domain.Actor{ID: "fac-1", Name: "Dr. Kavita Rao", Role: domain.RoleFaculty, Classes: []string{"cse-3a"}}
	otherFaculty = &domain.Actor{ID: "fac-2", Name: "Prof. Anil Das", Role: domain.RoleFaculty, Classes: []string{"ece-2b"}}
	admin        = &domain.Actor{ID: "adm-1", Name: "Campus Admin", Role: domain.RoleAdmin}
)

var baseTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// stepClock advances one second per call.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type sequence struct {
	mu sync.Mutex
	n  int
}

func (s *sequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("c-%03d", s.n)
}

type fixture struct {
	repo    repository.ComplaintRepository
	svc     *ComplaintService
	inbox   *InboxService
	metrics *observability.Metrics
	clock   *stepClock
}

func newFixture() *fixture {
	repo := repository.NewMemoryComplaintRepository()
	clock := &stepClock{t: baseTime}
	metrics := observability.NewMetrics()
	ids := &sequence{}
	return &fixture{
		repo:    repo,
		metrics: metrics,
		clock:   clock,
		svc: NewComplaintService(ComplaintDependencies{
			ComplaintRepo: repo,
			Metrics:       metrics,
			Clock:         clock.Now,
			IDGenerator:   ids.Next,
		}),
		inbox: NewInboxService(repo),
	}
}

func strPtr(s string) *string { return &s }
