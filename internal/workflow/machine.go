// Package workflow holds the ownership state machine that routes complaints
// between the student, faculty and admin tiers. Everything here is pure: no
// I/O, no clocks, no errors for business-rule violations. Callers get either
// a Transition or a typed Rejection.
package workflow

import (
	"fmt"
	"strings"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// Action is a request to move a complaint through the workflow.
type Action string

const (
	ActionResolve            Action = "resolve"
	ActionReject             Action = "reject"
	ActionEscalate           Action = "escalate"
	ActionComment            Action = "comment"
	ActionAckAdminResolution Action = "ack-admin-resolution"
)

// State is the slice of a complaint the machine decides on.
type State struct {
	Status    domain.ComplaintStatus
	Owner     domain.Role
	RaisedBy  domain.Role
	Escalated bool
}

// StateOf extracts the decision state from a complaint.
func StateOf(c *domain.Complaint) State {
	return State{
		Status:    c.Status,
		Owner:     c.CurrentOwner,
		RaisedBy:  c.RaisedBy.Role,
		Escalated: c.Escalated(),
	}
}

// Transition is an accepted move.
type Transition struct {
	Status          domain.ComplaintStatus
	Owner           domain.Role
	Entry           domain.HistoryAction
	RequiresComment bool
}

// RejectionKind classifies why a move was refused.
type RejectionKind string

const (
	RejectValidation          RejectionKind = "validation"
	RejectUnauthorizedActor   RejectionKind = "unauthorized_actor"
	RejectForbiddenTransition RejectionKind = "forbidden_transition"
)

// Rejection explains a refused move in terms the actor can act on.
type Rejection struct {
	Kind   RejectionKind
	Reason string
	State  State
	// Legal lists the actions the current state accepts from any role.
	Legal []Action
}

type rule struct {
	status  domain.ComplaintStatus
	owner   domain.Role
	action  Action
	entry   domain.HistoryAction
	comment bool
	next    func(State) (domain.ComplaintStatus, domain.Role)
}

func to(status domain.ComplaintStatus, owner domain.Role) func(State) (domain.ComplaintStatus, domain.Role) {
	return func(State) (domain.ComplaintStatus, domain.Role) { return status, owner }
}

// adminResolve routes an escalated student complaint back to faculty for
// acknowledgment; everything else resolved by admin closes at admin.
func adminResolve(s State) (domain.ComplaintStatus, domain.Role) {
	if s.RaisedBy == domain.RoleStudent && s.Escalated {
		return domain.StatusResolved, domain.RoleFaculty
	}
	return domain.StatusResolved, domain.RoleAdmin
}

var rules = []rule{
	{status: domain.StatusPendingFaculty, owner: domain.RoleFaculty, action: ActionResolve, entry: domain.HistoryResolved, next: to(domain.StatusResolved, domain.RoleFaculty)},
	{status: domain.StatusPendingFaculty, owner: domain.RoleFaculty, action: ActionReject, entry: domain.HistoryRejected, comment: true, next: to(domain.StatusRejected, domain.RoleFaculty)},
	{status: domain.StatusPendingFaculty, owner: domain.RoleFaculty, action: ActionEscalate, entry: domain.HistoryEscalated, comment: true, next: to(domain.StatusPendingAdmin, domain.RoleAdmin)},
	{status: domain.StatusPendingAdmin, owner: domain.RoleAdmin, action: ActionResolve, entry: domain.HistoryResolved, next: adminResolve},
	{status: domain.StatusPendingAdmin, owner: domain.RoleAdmin, action: ActionReject, entry: domain.HistoryRejected, comment: true, next: to(domain.StatusRejected, domain.RoleAdmin)},
	{status: domain.StatusResolved, owner: domain.RoleFaculty, action: ActionAckAdminResolution, entry: domain.HistoryAckAdminResolution, comment: true, next: to(domain.StatusResolved, domain.RoleStudent)},
}

var knownActions = map[Action]struct{}{
	ActionResolve:            {},
	ActionReject:             {},
	ActionEscalate:           {},
	ActionComment:            {},
	ActionAckAdminResolution: {},
}

// ParseAction validates a wire action name.
func ParseAction(s string) (Action, bool) {
	a := Action(strings.TrimSpace(s))
	_, ok := knownActions[a]
	return a, ok
}

// Initial decides the opening state for a complaint raised by raiser.
// Students start in the faculty inbox; faculty go straight to admin.
func Initial(raiser domain.Role) (Transition, *Rejection) {
	switch raiser {
	case domain.RoleStudent:
		return Transition{Status: domain.StatusPendingFaculty, Owner: domain.RoleFaculty, Entry: domain.HistoryCreated}, nil
	case domain.RoleFaculty:
		return Transition{Status: domain.StatusPendingAdmin, Owner: domain.RoleAdmin, Entry: domain.HistoryCreated}, nil
	}
	return Transition{}, &Rejection{
		Kind:   RejectUnauthorizedActor,
		Reason: fmt.Sprintf("role %q cannot raise complaints", raiser),
	}
}

// LegalPair reports whether (status, owner) can be reached at all.
func LegalPair(status domain.ComplaintStatus, owner domain.Role) bool {
	switch status {
	case domain.StatusPendingFaculty:
		return owner == domain.RoleFaculty
	case domain.StatusPendingAdmin:
		return owner == domain.RoleAdmin
	case domain.StatusResolved:
		return owner == domain.RoleFaculty || owner == domain.RoleAdmin || owner == domain.RoleStudent
	case domain.StatusRejected:
		return owner == domain.RoleFaculty || owner == domain.RoleAdmin
	}
	return false
}

// AwaitingAck reports whether admin resolved an escalation that faculty has
// not yet acknowledged.
func AwaitingAck(s State) bool {
	return s.Status == domain.StatusResolved && s.Owner == domain.RoleFaculty && s.Escalated
}

// IsTerminal reports whether the state accepts nothing but comments.
func IsTerminal(s State) bool {
	switch s.Status {
	case domain.StatusRejected:
		return true
	case domain.StatusResolved:
		return !AwaitingAck(s)
	}
	return false
}

func canComment(role domain.Role) bool {
	return role == domain.RoleFaculty || role == domain.RoleAdmin
}

// Legal returns every action the state accepts, regardless of who asks.
func Legal(s State) []Action {
	if !LegalPair(s.Status, s.Owner) {
		return nil
	}
	var out []Action
	if !IsTerminal(s) {
		for _, r := range rules {
			if r.status == s.Status && r.owner == s.Owner {
				out = append(out, r.action)
			}
		}
	}
	return append(out, ActionComment)
}

// AllowedActions returns the actions role may perform in state s.
func AllowedActions(s State, role domain.Role) []Action {
	out := []Action{}
	if !LegalPair(s.Status, s.Owner) {
		return out
	}
	if !IsTerminal(s) && role == s.Owner {
		for _, r := range rules {
			if r.status == s.Status && r.owner == s.Owner {
				out = append(out, r.action)
			}
		}
	}
	if canComment(role) {
		out = append(out, ActionComment)
	}
	return out
}

// Decide maps (state, role, action, comment) to the next state or a rejection.
func Decide(s State, role domain.Role, action Action, comment string) (Transition, *Rejection) {
	comment = strings.TrimSpace(comment)
	reject := func(kind RejectionKind, format string, args ...any) (Transition, *Rejection) {
		return Transition{}, &Rejection{Kind: kind, Reason: fmt.Sprintf(format, args...), State: s, Legal: Legal(s)}
	}

	if _, ok := knownActions[action]; !ok {
		return reject(RejectForbiddenTransition, "unknown action %q", action)
	}
	if !LegalPair(s.Status, s.Owner) {
		return reject(RejectForbiddenTransition, "complaint is in an invalid state %s/%s", s.Status, s.Owner)
	}

	if action == ActionComment {
		if !canComment(role) {
			return reject(RejectUnauthorizedActor, "role %s may not comment", role)
		}
		if comment == "" {
			return reject(RejectValidation, "comment is required for %s", action)
		}
		return Transition{Status: s.Status, Owner: s.Owner, Entry: domain.HistoryCommented, RequiresComment: true}, nil
	}

	if IsTerminal(s) {
		return reject(RejectForbiddenTransition, "complaint is closed (%s, owner %s); only comment is allowed", s.Status, s.Owner)
	}

	var match *rule
	for i := range rules {
		r := &rules[i]
		if r.status == s.Status && r.owner == s.Owner && r.action == action {
			match = r
			break
		}
	}
	if match == nil {
		return reject(RejectForbiddenTransition, "action %s is not allowed while complaint is %s (owner %s); allowed: %s",
			action, s.Status, s.Owner, joinActions(Legal(s)))
	}
	if role != match.owner {
		return reject(RejectUnauthorizedActor, "%s cannot %s this complaint", role, action)
	}
	if match.comment && comment == "" {
		return reject(RejectValidation, "comment is required for %s", action)
	}

	status, owner := match.next(s)
	return Transition{Status: status, Owner: owner, Entry: match.entry, RequiresComment: match.comment}, nil
}

func joinActions(actions []Action) string {
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = string(a)
	}
	return strings.Join(parts, ", ")
}
