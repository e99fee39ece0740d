package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// DB is the subset of pgxpool.Pool used by the Postgres repository.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

const complaintColumns = `id, raised_by_id, raised_by_name, raised_by_role, category, title, description,
               status, current_owner, target_class_id, target_faculty_id, version, created_at, updated_at`

type postgresComplaintRepository struct {
	db DB
}

// NewPostgresComplaintRepository instantiates the pgx-backed repository.
func NewPostgresComplaintRepository(db DB) ComplaintRepository {
	return &postgresComplaintRepository{db: db}
}

func (r *postgresComplaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (id, raised_by_id, raised_by_name, raised_by_role, category, title, description,
            status, current_owner, target_class_id, target_faculty_id, version, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query,
			complaint.ID,
			complaint.RaisedBy.ActorID,
			complaint.RaisedBy.Name,
			string(complaint.RaisedBy.Role),
			string(complaint.Category),
			complaint.Title,
			complaint.Description,
			string(complaint.Status),
			string(complaint.CurrentOwner),
			complaint.TargetClassID,
			complaint.TargetFacultyID,
			complaint.Version,
			complaint.CreatedAt,
			complaint.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert complaint: %w", err)
		}
		for seq, entry := range complaint.History {
			if err := insertHistory(ctx, tx, complaint.ID, seq, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *postgresComplaintRepository) Update(ctx context.Context, complaint *domain.Complaint, expectedVersion int64) error {
	const query = `
        UPDATE complaints SET status=$1, current_owner=$2, version=$3, updated_at=$4
        WHERE id=$5 AND version=$6`
	entry, ok := complaint.LastEntry()
	if !ok {
		return ErrInvalidWrite
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, query,
			string(complaint.Status),
			string(complaint.CurrentOwner),
			complaint.Version,
			complaint.UpdatedAt,
			complaint.ID,
			expectedVersion,
		)
		if err != nil {
			return fmt.Errorf("update complaint: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return r.missOrConflict(ctx, tx, complaint.ID)
		}
		return insertHistory(ctx, tx, complaint.ID, len(complaint.History)-1, entry)
	})
}

func (r *postgresComplaintRepository) missOrConflict(ctx context.Context, tx pgx.Tx, id string) error {
	var version int64
	if err := tx.QueryRow(ctx, `SELECT version FROM complaints WHERE id=$1`, id).Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("check complaint version: %w", err)
	}
	return ErrVersionConflict
}

// readTxOptions gives the row and history reads one snapshot.
var readTxOptions = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

func (r *postgresComplaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id=$1`
	var complaint *domain.Complaint
	err := r.inTxOpts(ctx, readTxOptions, func(tx pgx.Tx) error {
		c, err := scanComplaint(tx.QueryRow(ctx, query, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("get complaint: %w", err)
		}
		history, err := historyFor(ctx, tx, []string{c.ID})
		if err != nil {
			return err
		}
		c.History = history[c.ID]
		complaint = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return complaint, nil
}

func (r *postgresComplaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RaisedByID != nil {
		args = append(args, *filter.RaisedByID)
		clauses = append(clauses, fmt.Sprintf("raised_by_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, string(status))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Owners) > 0 {
		placeholders := make([]string, len(filter.Owners))
		for i, owner := range filter.Owners {
			args = append(args, string(owner))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("current_owner IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE %s ORDER BY updated_at DESC, id ASC`,
		complaintColumns, strings.Join(clauses, " AND "))

	var result []domain.Complaint
	err := r.inTxOpts(ctx, readTxOptions, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("list complaints: %w", err)
		}
		for rows.Next() {
			complaint, err := scanComplaint(rows)
			if err != nil {
				rows.Close()
				return fmt.Errorf("scan complaint: %w", err)
			}
			result = append(result, *complaint)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("list complaints: %w", err)
		}
		if len(result) == 0 {
			return nil
		}

		ids := make([]string, len(result))
		for i := range result {
			ids[i] = result[i].ID
		}
		history, err := historyFor(ctx, tx, ids)
		if err != nil {
			return err
		}
		for i := range result {
			result[i].History = history[result[i].ID]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func historyFor(ctx context.Context, tx pgx.Tx, ids []string) (map[string][]domain.HistoryEntry, error) {
	const query = `
        SELECT complaint_id, action, actor_id, actor_name, actor_role, comment, created_at
        FROM complaint_history WHERE complaint_id = ANY($1) ORDER BY complaint_id, seq ASC`
	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]domain.HistoryEntry, len(ids))
	for rows.Next() {
		var complaintID, action, actorID, actorName, actorRole, comment string
		var createdAt time.Time
		if err := rows.Scan(&complaintID, &action, &actorID, &actorName, &actorRole, &comment, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		result[complaintID] = append(result[complaintID], domain.HistoryEntry{
			Action:    domain.HistoryAction(action),
			ActorID:   actorID,
			ActorName: actorName,
			ActorRole: domain.Role(actorRole),
			Comment:   comment,
			CreatedAt: createdAt,
		})
	}
	return result, rows.Err()
}

func (r *postgresComplaintRepository) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	return finishTx(ctx, tx, fn)
}

func (r *postgresComplaintRepository) inTxOpts(ctx context.Context, opts pgx.TxOptions, fn func(pgx.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	return finishTx(ctx, tx, fn)
}

func finishTx(ctx context.Context, tx pgx.Tx, fn func(pgx.Tx) error) error {
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertHistory(ctx context.Context, tx execer, complaintID string, seq int, entry domain.HistoryEntry) error {
	const query = `
        INSERT INTO complaint_history (complaint_id, seq, action, actor_id, actor_name, actor_role, comment, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	if _, err := tx.Exec(ctx, query,
		complaintID,
		seq,
		string(entry.Action),
		entry.ActorID,
		entry.ActorName,
		string(entry.ActorRole),
		entry.Comment,
		entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func scanComplaint(row pgx.Row) (*domain.Complaint, error) {
	var c domain.Complaint
	var raisedByRole, category, status, owner string
	if err := row.Scan(
		&c.ID,
		&c.RaisedBy.ActorID,
		&c.RaisedBy.Name,
		&raisedByRole,
		&category,
		&c.Title,
		&c.Description,
		&status,
		&owner,
		&c.TargetClassID,
		&c.TargetFacultyID,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.RaisedBy.Role = domain.Role(raisedByRole)
	c.Category = domain.ComplaintCategory(category)
	c.Status = domain.ComplaintStatus(status)
	c.CurrentOwner = domain.Role(owner)
	return &c, nil
}
