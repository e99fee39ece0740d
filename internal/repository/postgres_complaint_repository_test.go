package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
)

var complaintRowColumns = []string{
	"id", "raised_by_id", "raised_by_name", "raised_by_role", "category", "title", "description",
	"status", "current_owner", "target_class_id", "target_faculty_id", "version", "created_at", "updated_at",
}

var historyRowColumns = []string{"complaint_id", "action", "actor_id", "actor_name", "actor_role", "comment", "created_at"}

func TestPostgresRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	c := newComplaint("c-1", "stu-1", baseTime)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO complaints").
		WithArgs("c-1", "stu-1", "Asha", "student", "Facility", "AC broken", "Room 204 is too hot",
			"pending_faculty", "faculty", pgxmock.AnyArg(), pgxmock.AnyArg(), int64(1), baseTime, baseTime).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO complaint_history").
		WithArgs("c-1", 0, "created", "stu-1", "Asha", "student", "", baseTime).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	repo := NewPostgresComplaintRepository(mock)
	require.NoError(t, repo.Create(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_CreateRollsBackOnHistoryFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO complaints").
		WithArgs(anyArgs(14)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO complaint_history").
		WithArgs(anyArgs(8)...).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	repo := NewPostgresComplaintRepository(mock)
	err = repo.Create(context.Background(), newComplaint("c-1", "stu-1", baseTime))
	assert.ErrorContains(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UpdateAppendsHistoryInSameTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := baseTime.Add(time.Minute)
	next := escalate(newComplaint("c-1", "stu-1", baseTime), at)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE complaints SET").
		WithArgs("pending_admin", "admin", int64(2), at, "c-1", int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO complaint_history").
		WithArgs("c-1", 1, "escalated", "fac-1", "Dr Rao", "faculty", "needs admin budget approval", at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	repo := NewPostgresComplaintRepository(mock)
	require.NoError(t, repo.Update(context.Background(), next, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UpdateStaleVersion(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	next := escalate(newComplaint("c-1", "stu-1", baseTime), baseTime.Add(time.Minute))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE complaints SET").
		WithArgs("pending_admin", "admin", int64(2), pgxmock.AnyArg(), "c-1", int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT version FROM complaints").
		WithArgs("c-1").
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow(int64(2)))
	mock.ExpectRollback()

	repo := NewPostgresComplaintRepository(mock)
	err = repo.Update(context.Background(), next, 1)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UpdateMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	next := escalate(newComplaint("c-1", "stu-1", baseTime), baseTime.Add(time.Minute))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE complaints SET").
		WithArgs("pending_admin", "admin", int64(2), pgxmock.AnyArg(), "c-1", int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT version FROM complaints").
		WithArgs("c-1").
		WillReturnRows(pgxmock.NewRows([]string{"version"}))
	mock.ExpectRollback()

	repo := NewPostgresComplaintRepository(mock)
	err = repo.Update(context.Background(), next, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	classID := "cse-3a"
	later := baseTime.Add(time.Minute)
	mock.ExpectBeginTx(readTxOptions)
	mock.ExpectQuery("FROM complaints WHERE id").
		WithArgs("c-1").
		WillReturnRows(pgxmock.NewRows(complaintRowColumns).
			AddRow("c-1", "stu-1", "Asha", "student", "Facility", "AC broken", "Room 204 is too hot",
				"pending_admin", "admin", &classID, (*string)(nil), int64(2), baseTime, later))
	mock.ExpectQuery("FROM complaint_history").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(historyRowColumns).
			AddRow("c-1", "created", "stu-1", "Asha", "student", "", baseTime).
			AddRow("c-1", "escalated", "fac-1", "Dr Rao", "faculty", "needs admin budget approval", later))
	mock.ExpectCommit()

	repo := NewPostgresComplaintRepository(mock)
	got, err := repo.GetByID(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingAdmin, got.Status)
	assert.Equal(t, domain.RoleAdmin, got.CurrentOwner)
	assert.Equal(t, domain.RoleStudent, got.RaisedBy.Role)
	require.NotNil(t, got.TargetClassID)
	assert.Equal(t, "cse-3a", *got.TargetClassID)
	assert.Nil(t, got.TargetFacultyID)
	require.Len(t, got.History, 2)
	assert.Equal(t, domain.HistoryEscalated, got.History[1].Action)
	assert.True(t, got.Escalated())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetByIDMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBeginTx(readTxOptions)
	mock.ExpectQuery("FROM complaints WHERE id").
		WithArgs("nope").
		WillReturnRows(pgxmock.NewRows(complaintRowColumns))
	mock.ExpectRollback()

	repo := NewPostgresComplaintRepository(mock)
	_, err = repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListWithFilter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBeginTx(readTxOptions)
	mock.ExpectQuery("status IN").
		WithArgs("pending_faculty", "faculty").
		WillReturnRows(pgxmock.NewRows(complaintRowColumns).
			AddRow("c-2", "stu-2", "Ravi", "student", "Academic", "Marks missing", "Mid-term marks",
				"pending_faculty", "faculty", (*string)(nil), (*string)(nil), int64(1), baseTime, baseTime.Add(time.Hour)).
			AddRow("c-1", "stu-1", "Asha", "student", "Facility", "AC broken", "Room 204 is too hot",
				"pending_faculty", "faculty", (*string)(nil), (*string)(nil), int64(1), baseTime, baseTime))
	mock.ExpectQuery("FROM complaint_history").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(historyRowColumns).
			AddRow("c-1", "created", "stu-1", "Asha", "student", "", baseTime).
			AddRow("c-2", "created", "stu-2", "Ravi", "student", "", baseTime))
	mock.ExpectCommit()

	repo := NewPostgresComplaintRepository(mock)
	got, err := repo.List(context.Background(), ComplaintFilter{
		Statuses: []domain.ComplaintStatus{domain.StatusPendingFaculty},
		Owners:   []domain.Role{domain.RoleFaculty},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c-2", got[0].ID)
	assert.Len(t, got[0].History, 1)
	assert.Equal(t, "stu-2", got[0].History[0].ActorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetByIDReadsHistoryInSnapshot(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	mock.ExpectQuery("FROM complaints WHERE id").
		WithArgs("c-1").
		WillReturnRows(pgxmock.NewRows(complaintRowColumns).
			AddRow("c-1", "stu-1", "Asha", "student", "Facility", "AC broken", "Room 204 is too hot",
				"pending_faculty", "faculty", (*string)(nil), (*string)(nil), int64(1), baseTime, baseTime))
	mock.ExpectQuery("FROM complaint_history").
		WithArgs([]string{"c-1"}).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	repo := NewPostgresComplaintRepository(mock)
	_, err = repo.GetByID(context.Background(), "c-1")
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListEmptyCommits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	raiser := "stu-9"
	mock.ExpectBeginTx(readTxOptions)
	mock.ExpectQuery("raised_by_id").
		WithArgs("stu-9").
		WillReturnRows(pgxmock.NewRows(complaintRowColumns))
	mock.ExpectCommit()

	repo := NewPostgresComplaintRepository(mock)
	got, err := repo.List(context.Background(), ComplaintFilter{RaisedByID: &raiser})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}
