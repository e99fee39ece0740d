package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
)

func studentState(status domain.ComplaintStatus, owner domain.Role, escalated bool) State {
	return State{Status: status, Owner: owner, RaisedBy: domain.RoleStudent, Escalated: escalated}
}

func TestInitial(t *testing.T) {
	tr, rej := Initial(domain.RoleStudent)
	require.Nil(t, rej)
	assert.Equal(t, domain.StatusPendingFaculty, tr.Status)
	assert.Equal(t, domain.RoleFaculty, tr.Owner)
	assert.Equal(t, domain.HistoryCreated, tr.Entry)

	tr, rej = Initial(domain.RoleFaculty)
	require.Nil(t, rej)
	assert.Equal(t, domain.StatusPendingAdmin, tr.Status)
	assert.Equal(t, domain.RoleAdmin, tr.Owner)

	_, rej = Initial(domain.RoleAdmin)
	require.NotNil(t, rej)
	assert.Equal(t, RejectUnauthorizedActor, rej.Kind)
}

func TestDecide_Table(t *testing.T) {
	tests := []struct {
		name      string
		state     State
		role      domain.Role
		action    Action
		comment   string
		wantState domain.ComplaintStatus
		wantOwner domain.Role
		wantEntry domain.HistoryAction
	}{
		{"faculty resolves", studentState(domain.StatusPendingFaculty, domain.RoleFaculty, false), domain.RoleFaculty, ActionResolve, "", domain.StatusResolved, domain.RoleFaculty, domain.HistoryResolved},
		{"faculty rejects", studentState(domain.StatusPendingFaculty, domain.RoleFaculty, false), domain.RoleFaculty, ActionReject, "duplicate", domain.StatusRejected, domain.RoleFaculty, domain.HistoryRejected},
		{"faculty escalates", studentState(domain.StatusPendingFaculty, domain.RoleFaculty, false), domain.RoleFaculty, ActionEscalate, "budget", domain.StatusPendingAdmin, domain.RoleAdmin, domain.HistoryEscalated},
		{"admin resolves escalation", studentState(domain.StatusPendingAdmin, domain.RoleAdmin, true), domain.RoleAdmin, ActionResolve, "", domain.StatusResolved, domain.RoleFaculty, domain.HistoryResolved},
		{"admin rejects", studentState(domain.StatusPendingAdmin, domain.RoleAdmin, true), domain.RoleAdmin, ActionReject, "no budget", domain.StatusRejected, domain.RoleAdmin, domain.HistoryRejected},
		{"faculty acks", studentState(domain.StatusResolved, domain.RoleFaculty, true), domain.RoleFaculty, ActionAckAdminResolution, "told them", domain.StatusResolved, domain.RoleStudent, domain.HistoryAckAdminResolution},
		{"admin comments on pending", studentState(domain.StatusPendingFaculty, domain.RoleFaculty, false), domain.RoleAdmin, ActionComment, "watching", domain.StatusPendingFaculty, domain.RoleFaculty, domain.HistoryCommented},
		{"faculty comments on closed", studentState(domain.StatusResolved, domain.RoleStudent, true), domain.RoleFaculty, ActionComment, "follow up", domain.StatusResolved, domain.RoleStudent, domain.HistoryCommented},
		{
			"admin resolves faculty ticket",
			State{Status: domain.StatusPendingAdmin, Owner: domain.RoleAdmin, RaisedBy: domain.RoleFaculty},
			domain.RoleAdmin, ActionResolve, "", domain.StatusResolved, domain.RoleAdmin, domain.HistoryResolved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, rej := Decide(tt.state, tt.role, tt.action, tt.comment)
			require.Nil(t, rej)
			assert.Equal(t, tt.wantState, tr.Status)
			assert.Equal(t, tt.wantOwner, tr.Owner)
			assert.Equal(t, tt.wantEntry, tr.Entry)
			assert.True(t, LegalPair(tr.Status, tr.Owner))
		})
	}
}

func TestDecide_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		role    domain.Role
		action  Action
		comment string
		want    RejectionKind
	}{
		{"admin acts on faculty inbox", studentState(domain.StatusPendingFaculty, domain.RoleFaculty, false), domain.RoleAdmin, ActionResolve, "", RejectUnauthorizedActor},
		{"student resolves", studentState(domain.StatusPendingFaculty, domain.RoleFaculty, false), domain.RoleStudent, ActionResolve, "", RejectUnauthorizedActor},
		{"student comments", studentState(domain.StatusPendingFaculty, domain.RoleFaculty, false), domain.RoleStudent, ActionComment, "hi", RejectUnauthorizedActor},
		{"escalate from admin", studentState(domain.StatusPendingAdmin, domain.RoleAdmin, true), domain.RoleAdmin, ActionEscalate, "again", RejectForbiddenTransition},
		{"ack without escalation", studentState(domain.StatusPendingFaculty, domain.RoleFaculty, false), domain.RoleFaculty, ActionAckAdminResolution, "x", RejectForbiddenTransition},
		{"reject without comment", studentState(domain.StatusPendingFaculty, domain.RoleFaculty, false), domain.RoleFaculty, ActionReject, "  ", RejectValidation},
		{"escalate without comment", studentState(domain.StatusPendingFaculty, domain.RoleFaculty, false), domain.RoleFaculty, ActionEscalate, "", RejectValidation},
		{"ack without comment", studentState(domain.StatusResolved, domain.RoleFaculty, true), domain.RoleFaculty, ActionAckAdminResolution, "", RejectValidation},
		{"comment without text", studentState(domain.StatusPendingAdmin, domain.RoleAdmin, true), domain.RoleAdmin, ActionComment, "", RejectValidation},
		{"resolve rejected", studentState(domain.StatusRejected, domain.RoleFaculty, false), domain.RoleFaculty, ActionResolve, "", RejectForbiddenTransition},
		{"resolve closed", studentState(domain.StatusResolved, domain.RoleStudent, true), domain.RoleFaculty, ActionResolve, "", RejectForbiddenTransition},
		{"ack faculty-resolved", studentState(domain.StatusResolved, domain.RoleFaculty, false), domain.RoleFaculty, ActionAckAdminResolution, "x", RejectForbiddenTransition},
		{"unknown action", studentState(domain.StatusPendingFaculty, domain.RoleFaculty, false), domain.RoleFaculty, Action("reopen"), "", RejectForbiddenTransition},
		{"invalid pair", studentState(domain.StatusPendingFaculty, domain.RoleAdmin, false), domain.RoleAdmin, ActionResolve, "", RejectForbiddenTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rej := Decide(tt.state, tt.role, tt.action, tt.comment)
			require.NotNil(t, rej)
			assert.Equal(t, tt.want, rej.Kind)
			assert.NotEmpty(t, rej.Reason)
		})
	}
}

func TestDecide_ForbiddenNamesLegalActions(t *testing.T) {
	_, rej := Decide(studentState(domain.StatusPendingAdmin, domain.RoleAdmin, true), domain.RoleAdmin, ActionEscalate, "x")
	require.NotNil(t, rej)
	assert.ElementsMatch(t, []Action{ActionResolve, ActionReject, ActionComment}, rej.Legal)
	assert.Contains(t, rej.Reason, "resolve")
}

func TestDecide_UnauthorizedReasonOmitsOwner(t *testing.T) {
	_, rej := Decide(studentState(domain.StatusPendingAdmin, domain.RoleAdmin, true), domain.RoleFaculty, ActionResolve, "")
	require.NotNil(t, rej)
	assert.Equal(t, RejectUnauthorizedActor, rej.Kind)
	assert.NotContains(t, rej.Reason, string(domain.RoleAdmin))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(studentState(domain.StatusPendingFaculty, domain.RoleFaculty, false)))
	assert.False(t, IsTerminal(studentState(domain.StatusResolved, domain.RoleFaculty, true)))
	assert.True(t, IsTerminal(studentState(domain.StatusResolved, domain.RoleFaculty, false)))
	assert.True(t, IsTerminal(studentState(domain.StatusResolved, domain.RoleStudent, true)))
	assert.True(t, IsTerminal(studentState(domain.StatusRejected, domain.RoleAdmin, true)))
}

func TestAllowedActions(t *testing.T) {
	pending := studentState(domain.StatusPendingFaculty, domain.RoleFaculty, false)
	assert.Equal(t, []Action{ActionResolve, ActionReject, ActionEscalate, ActionComment}, AllowedActions(pending, domain.RoleFaculty))
	assert.Equal(t, []Action{ActionComment}, AllowedActions(pending, domain.RoleAdmin))
	assert.Empty(t, AllowedActions(pending, domain.RoleStudent))

	ack := studentState(domain.StatusResolved, domain.RoleFaculty, true)
	assert.Equal(t, []Action{ActionAckAdminResolution, ActionComment}, AllowedActions(ack, domain.RoleFaculty))
}

func TestLegalPair(t *testing.T) {
	assert.True(t, LegalPair(domain.StatusPendingFaculty, domain.RoleFaculty))
	assert.False(t, LegalPair(domain.StatusPendingFaculty, domain.RoleStudent))
	assert.False(t, LegalPair(domain.StatusPendingAdmin, domain.RoleFaculty))
	assert.True(t, LegalPair(domain.StatusResolved, domain.RoleStudent))
	assert.False(t, LegalPair(domain.StatusRejected, domain.RoleStudent))
	assert.False(t, LegalPair(domain.ComplaintStatus("open"), domain.RoleAdmin))
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction(" escalate ")
	assert.True(t, ok)
	assert.Equal(t, ActionEscalate, a)

	_, ok = ParseAction("delete")
	assert.False(t, ok)
}
