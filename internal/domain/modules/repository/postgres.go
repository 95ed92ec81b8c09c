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

const foreignKeyViolation = "23503"

const moduleColumns = "id, title, description, total_questions, duration_minutes, difficulty, created_at"

// ModuleRepository хранит модули и вопросы в Postgres
type ModuleRepository struct {
	db *pgxpool.Pool
}

// NewModuleRepository создает новый экземпляр ModuleRepository
func NewModuleRepository(db *pgxpool.Pool) *ModuleRepository {
	return &ModuleRepository{db: db}
}

func scanModule(row pgx.Row) (*model.Module, error) {
	var m model.Module
	if err := row.Scan(&m.ID, &m.Title, &m.Description, &m.TotalQuestions, &m.DurationMinutes, &m.Difficulty, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// List получает все модули по возрастанию id
func (r *ModuleRepository) List(ctx context.Context) ([]model.Module, error) {
	const op = "repository.ModuleRepository.List"

	rows, err := r.db.Query(ctx, "SELECT "+moduleColumns+" FROM modules ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	modules := []model.Module{}
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to scan module: %w", op, err)
		}
		modules = append(modules, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: failed to iterate over rows: %w", op, err)
	}
	return modules, nil
}

// Get получает модуль по id
func (r *ModuleRepository) Get(ctx context.Context, id int64) (*model.Module, error) {
	return r.getOne(ctx, "repository.ModuleRepository.Get",
		"SELECT "+moduleColumns+" FROM modules WHERE id = $1", id)
}

// GetByTitle получает модуль по названию
func (r *ModuleRepository) GetByTitle(ctx context.Context, title string) (*model.Module, error) {
	return r.getOne(ctx, "repository.ModuleRepository.GetByTitle",
		"SELECT "+moduleColumns+" FROM modules WHERE title = $1 ORDER BY id LIMIT 1", title)
}

func (r *ModuleRepository) getOne(ctx context.Context, op, query string, arg interface{}) (*model.Module, error) {
	m, err := scanModule(r.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return m, nil
}

// Create создает модуль
func (r *ModuleRepository) Create(ctx context.Context, m *model.Module) (*model.Module, error) {
	const op = "repository.ModuleRepository.Create"

	stored, err := scanModule(r.db.QueryRow(ctx, `
                INSERT INTO modules (title, description, total_questions, duration_minutes, difficulty)
                VALUES ($1, $2, $3, $4, $5)
                RETURNING `+moduleColumns,
		m.Title, m.Description, m.TotalQuestions, m.DurationMinutes, m.Difficulty))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stored, nil
}

// Questions получает вопросы модуля по возрастанию id
func (r *ModuleRepository) Questions(ctx context.Context, moduleID int64) ([]model.Question, error) {
	const op = "repository.ModuleRepository.Questions"

	rows, err := r.db.Query(ctx, `
                SELECT id, module_id, title, formula, instruction, options, correct_answer
                FROM questions
                WHERE module_id = $1
                ORDER BY id`, moduleID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var (
			q       model.Question
			options string
		)
		if err := rows.Scan(&q.ID, &q.ModuleID, &q.Title, &q.Formula, &q.Instruction, &options, &q.CorrectAnswer); err != nil {
			return nil, fmt.Errorf("%s: failed to scan question: %w", op, err)
		}
		q.Options = decodeOptions(options)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: failed to iterate over rows: %w", op, err)
	}
	return questions, nil
}

// CreateQuestion создает вопрос модуля
func (r *ModuleRepository) CreateQuestion(ctx context.Context, q *model.Question) (*model.Question, error) {
	const op = "repository.ModuleRepository.CreateQuestion"

	options, err := encodeOptions(q.Options)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stored := *q
	err = r.db.QueryRow(ctx, `
                INSERT INTO questions (module_id, title, formula, instruction, options, correct_answer)
                VALUES ($1, $2, $3, $4, $5, $6)
                RETURNING id`,
		q.ModuleID, q.Title, q.Formula, q.Instruction, options, q.CorrectAnswer).Scan(&stored.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return nil, ErrModuleMissing
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &stored, nil
}
