package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/IT-Nick/mathquiz/internal/domain/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const progressColumns = `id, user_id, module_id, status, remaining_seconds, right_answer, wrong_answer,
        started_at, completed_at, updated_at, version`

// ProgressRepository хранит прогресс в Postgres
type ProgressRepository struct {
	db *pgxpool.Pool
}

// NewProgressRepository создает новый экземпляр ProgressRepository
func NewProgressRepository(db *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func scanProgress(row pgx.Row) (*model.Progress, error) {
	var (
		p      model.Progress
		status string
	)
	err := row.Scan(&p.ID, &p.UserID, &p.ModuleID, &status, &p.RemainingSeconds, &p.RightAnswer, &p.WrongAnswer,
		&p.StartedAt, &p.CompletedAt, &p.UpdatedAt, &p.Version)
	if err != nil {
		return nil, err
	}
	p.Status = model.Status(status)
	return &p, nil
}

// Get получает запись прогресса пользователя по модулю
func (r *ProgressRepository) Get(ctx context.Context, userID, moduleID int64) (*model.Progress, error) {
	const op = "repository.ProgressRepository.Get"

	p, err := scanProgress(r.db.QueryRow(ctx,
		"SELECT "+progressColumns+" FROM user_module_progress WHERE user_id = $1 AND module_id = $2",
		userID, moduleID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// Insert создает запись прогресса
func (r *ProgressRepository) Insert(ctx context.Context, p *model.Progress) (*model.Progress, error) {
	const op = "repository.ProgressRepository.Insert"

	stored, err := scanProgress(r.db.QueryRow(ctx, `
                INSERT INTO user_module_progress
                        (user_id, module_id, status, remaining_seconds, right_answer, wrong_answer,
                         started_at, completed_at, updated_at, version)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
                RETURNING `+progressColumns,
		p.UserID, p.ModuleID, string(p.Status), p.RemainingSeconds, p.RightAnswer, p.WrongAnswer,
		p.StartedAt, p.CompletedAt, p.UpdatedAt, p.Version))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stored, nil
}

// Update перезаписывает запись, если ее версия не изменилась
func (r *ProgressRepository) Update(ctx context.Context, p *model.Progress, expectedVersion int) (*model.Progress, error) {
	const op = "repository.ProgressRepository.Update"

	stored, err := scanProgress(r.db.QueryRow(ctx, `
                UPDATE user_module_progress
                SET status = $3,
                        remaining_seconds = $4,
                        right_answer = $5,
                        wrong_answer = $6,
                        started_at = $7,
                        completed_at = $8,
                        updated_at = $9,
                        version = $10
                WHERE user_id = $1 AND module_id = $2 AND version = $11
                RETURNING `+progressColumns,
		p.UserID, p.ModuleID, string(p.Status), p.RemainingSeconds, p.RightAnswer, p.WrongAnswer,
		p.StartedAt, p.CompletedAt, p.UpdatedAt, p.Version, expectedVersion))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStale
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stored, nil
}

// Delete удаляет запись прогресса. Возвращает false, если записи не было.
func (r *ProgressRepository) Delete(ctx context.Context, userID, moduleID int64) (bool, error) {
	const op = "repository.ProgressRepository.Delete"

	result, err := r.db.Exec(ctx, "DELETE FROM user_module_progress WHERE user_id = $1 AND module_id = $2", userID, moduleID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return result.RowsAffected() > 0, nil
}

// CountByStatus возвращает количество записей по статусам
func (r *ProgressRepository) CountByStatus(ctx context.Context) (map[model.Status]int, error) {
	const op = "repository.ProgressRepository.CountByStatus"

	rows, err := r.db.Query(ctx, "SELECT status, COUNT(*) FROM user_module_progress GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	counts := make(map[model.Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("%s: failed to scan row: %w", op, err)
		}
		counts[model.Status(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: failed to iterate over rows: %w", op, err)
	}
	return counts, nil
}

// Ping проверяет соединение с базой
func (r *ProgressRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
