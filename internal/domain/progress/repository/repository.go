package repository

import (
	"context"
	"errors"

	"github.com/IT-Nick/mathquiz/internal/domain/model"
)

var (
	// ErrDuplicate запись для пары (user_id, module_id) уже существует
	ErrDuplicate = errors.New("progress record already exists")
	// ErrStale запись изменилась с момента чтения (версия не совпала или запись удалена)
	ErrStale = errors.New("progress record was modified concurrently")
)

// Repository хранилище записей прогресса.
// Get возвращает nil без ошибки, если запись отсутствует.
// Update пишет запись только если сохраненная версия равна expectedVersion.
type Repository interface {
	Get(ctx context.Context, userID, moduleID int64) (*model.Progress, error)
	Insert(ctx context.Context, p *model.Progress) (*model.Progress, error)
	Update(ctx context.Context, p *model.Progress, expectedVersion int) (*model.Progress, error)
	Delete(ctx context.Context, userID, moduleID int64) (bool, error)
	CountByStatus(ctx context.Context) (map[model.Status]int, error)
	Ping(ctx context.Context) error
}
