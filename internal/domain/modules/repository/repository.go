package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IT-Nick/mathquiz/internal/domain/model"
)

// Repository хранилище справочных данных: модулей и их вопросов.
// Get и GetByTitle возвращают nil без ошибки, если модуль не найден.
type Repository interface {
	List(ctx context.Context) ([]model.Module, error)
	Get(ctx context.Context, id int64) (*model.Module, error)
	GetByTitle(ctx context.Context, title string) (*model.Module, error)
	Create(ctx context.Context, m *model.Module) (*model.Module, error)
	Questions(ctx context.Context, moduleID int64) ([]model.Question, error)
	CreateQuestion(ctx context.Context, q *model.Question) (*model.Question, error)
}

func encodeOptions(options []string) (string, error) {
	if options == nil {
		options = []string{}
	}
	raw, err := json.Marshal(options)
	if err != nil {
		return "", fmt.Errorf("failed to encode options: %w", err)
	}
	return string(raw), nil
}

func decodeOptions(raw string) []string {
	if raw == "" {
		return nil
	}
	var options []string
	if err := json.Unmarshal([]byte(raw), &options); err != nil || len(options) == 0 {
		return nil
	}
	return options
}

// ErrModuleMissing вопрос ссылается на несуществующий модуль
var ErrModuleMissing = errors.New("question references unknown module")
