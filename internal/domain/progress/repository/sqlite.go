package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/IT-Nick/mathquiz/internal/domain/model"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// SQLiteRepository хранит прогресс в SQLite
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository создает новый экземпляр SQLiteRepository
func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, userID, moduleID int64) (*model.Progress, error) {
	const op = "repository.SQLiteRepository.Get"

	var p model.Progress
	err := r.db.GetContext(ctx, &p,
		"SELECT "+progressColumns+" FROM user_module_progress WHERE user_id = ? AND module_id = ?",
		userID, moduleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, p *model.Progress) (*model.Progress, error) {
	const op = "repository.SQLiteRepository.Insert"

	result, err := r.db.NamedExecContext(ctx, `
                INSERT INTO user_module_progress
                        (user_id, module_id, status, remaining_seconds, right_answer, wrong_answer,
                         started_at, completed_at, updated_at, version)
                VALUES (:user_id, :module_id, :status, :remaining_seconds, :right_answer, :wrong_answer,
                        :started_at, :completed_at, :updated_at, :version)`, p)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get insert id: %w", op, err)
	}

	stored := *p
	stored.ID = id
	return &stored, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, p *model.Progress, expectedVersion int) (*model.Progress, error) {
	const op = "repository.SQLiteRepository.Update"

	result, err := r.db.ExecContext(ctx, `
                UPDATE user_module_progress
                SET status = ?, remaining_seconds = ?, right_answer = ?, wrong_answer = ?,
                        started_at = ?, completed_at = ?, updated_at = ?, version = ?
                WHERE user_id = ? AND module_id = ? AND version = ?`,
		string(p.Status), p.RemainingSeconds, p.RightAnswer, p.WrongAnswer,
		p.StartedAt, p.CompletedAt, p.UpdatedAt, p.Version,
		p.UserID, p.ModuleID, expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if affected == 0 {
		return nil, ErrStale
	}

	return r.Get(ctx, p.UserID, p.ModuleID)
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID, moduleID int64) (bool, error) {
	const op = "repository.SQLiteRepository.Delete"

	result, err := r.db.ExecContext(ctx, "DELETE FROM user_module_progress WHERE user_id = ? AND module_id = ?", userID, moduleID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	return affected > 0, nil
}

func (r *SQLiteRepository) CountByStatus(ctx context.Context) (map[model.Status]int, error) {
	const op = "repository.SQLiteRepository.CountByStatus"

	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, "SELECT status, COUNT(*) AS count FROM user_module_progress GROUP BY status"); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	counts := make(map[model.Status]int, len(rows))
	for _, row := range rows {
		counts[model.Status(row.Status)] = row.Count
	}
	return counts, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
