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

// SQLiteRepository хранит модули и вопросы в SQLite
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository создает новый экземпляр SQLiteRepository
func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

type questionRow struct {
	ID            int64  `db:"id"`
	ModuleID      int64  `db:"module_id"`
	Title         string `db:"title"`
	Formula       string `db:"formula"`
	Instruction   string `db:"instruction"`
	Options       string `db:"options"`
	CorrectAnswer string `db:"correct_answer"`
}

func (r *SQLiteRepository) List(ctx context.Context) ([]model.Module, error) {
	const op = "repository.SQLiteRepository.List"

	modules := []model.Module{}
	if err := r.db.SelectContext(ctx, &modules, "SELECT "+moduleColumns+" FROM modules ORDER BY id"); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return modules, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*model.Module, error) {
	return r.getOne(ctx, "repository.SQLiteRepository.Get",
		"SELECT "+moduleColumns+" FROM modules WHERE id = ?", id)
}

func (r *SQLiteRepository) GetByTitle(ctx context.Context, title string) (*model.Module, error) {
	return r.getOne(ctx, "repository.SQLiteRepository.GetByTitle",
		"SELECT "+moduleColumns+" FROM modules WHERE title = ? ORDER BY id LIMIT 1", title)
}

func (r *SQLiteRepository) getOne(ctx context.Context, op, query string, arg interface{}) (*model.Module, error) {
	var m model.Module
	err := r.db.GetContext(ctx, &m, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &m, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, m *model.Module) (*model.Module, error) {
	const op = "repository.SQLiteRepository.Create"

	result, err := r.db.NamedExecContext(ctx, `
                INSERT INTO modules (title, description, total_questions, duration_minutes, difficulty)
                VALUES (:title, :description, :total_questions, :duration_minutes, :difficulty)`, m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get insert id: %w", op, err)
	}
	return r.Get(ctx, id)
}

func (r *SQLiteRepository) Questions(ctx context.Context, moduleID int64) ([]model.Question, error) {
	const op = "repository.SQLiteRepository.Questions"

	var rows []questionRow
	err := r.db.SelectContext(ctx, &rows, `
                SELECT id, module_id, title, formula, instruction, options, correct_answer
                FROM questions
                WHERE module_id = ?
                ORDER BY id`, moduleID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	questions := make([]model.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, model.Question{
			ID:            row.ID,
			ModuleID:      row.ModuleID,
			Title:         row.Title,
			Formula:       row.Formula,
			Instruction:   row.Instruction,
			Options:       decodeOptions(row.Options),
			CorrectAnswer: row.CorrectAnswer,
		})
	}
	return questions, nil
}

func (r *SQLiteRepository) CreateQuestion(ctx context.Context, q *model.Question) (*model.Question, error) {
	const op = "repository.SQLiteRepository.CreateQuestion"

	options, err := encodeOptions(q.Options)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result, err := r.db.NamedExecContext(ctx, `
                INSERT INTO questions (module_id, title, formula, instruction, options, correct_answer)
                VALUES (:module_id, :title, :formula, :instruction, :options, :correct_answer)`,
		questionRow{
			ModuleID:      q.ModuleID,
			Title:         q.Title,
			Formula:       q.Formula,
			Instruction:   q.Instruction,
			Options:       options,
			CorrectAnswer: q.CorrectAnswer,
		})
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return nil, ErrModuleMissing
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get insert id: %w", op, err)
	}

	stored := *q
	stored.ID = id
	return &stored, nil
}
