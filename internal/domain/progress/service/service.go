package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/IT-Nick/mathquiz/internal/domain/model"
	modulesService "github.com/IT-Nick/mathquiz/internal/domain/modules/service"
	"github.com/IT-Nick/mathquiz/internal/domain/progress/repository"
)

var (
	ErrUserRequired    = errors.New("user_id is required")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrModuleCompleted = errors.New("module already completed")
	ErrVersionConflict = errors.New("progress version conflict")
)

// saveAttempts одна попытка плюс повтор после гонки вставки или обновления
const saveAttempts = 2

// SaveRequest данные для сохранения прогресса. Пустой статус означает in_progress.
type SaveRequest struct {
	UserID           int64        `json:"user_id"`
	ModuleID         int64        `json:"-"`
	Status           model.Status `json:"status"`
	RemainingSeconds int          `json:"remaining_seconds"`
	RightAnswer      *int         `json:"right_answer,omitempty"`
	WrongAnswer      *int         `json:"wrong_answer,omitempty"`
	Version          *int         `json:"version,omitempty"`
}

// CompletionNotifier получает уведомление о завершении модуля пользователем
type CompletionNotifier interface {
	NotifyCompletion(ctx context.Context, progress model.Progress, module model.Module) error
}

// ProgressService для работы с прогрессом прохождения модулей
type ProgressService struct {
	repo     repository.Repository
	modules  *modulesService.ModuleService
	notifier CompletionNotifier
	now      func() time.Time
	dispatch func(func())
}

// NewProgressService создает новый экземпляр ProgressService. notifier может быть nil.
func NewProgressService(repo repository.Repository, modules *modulesService.ModuleService, notifier CompletionNotifier) *ProgressService {
	return &ProgressService{
		repo:     repo,
		modules:  modules,
		notifier: notifier,
		now:      time.Now,
		dispatch: func(f func()) { go f() },
	}
}

// Get получает прогресс пользователя по модулю, nil если модуль не начат
func (s *ProgressService) Get(ctx context.Context, userID, moduleID int64) (*model.Progress, error) {
	if userID <= 0 {
		return nil, ErrUserRequired
	}
	p, err := s.repo.Get(ctx, userID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return p, nil
}

// Save создает или обновляет запись прогресса.
// started_at выставляется при первой записи in_progress, completed_at и результат при завершении.
// Завершенную запись можно только удалить; повторное завершение возвращает сохраненную запись.
func (s *ProgressService) Save(ctx context.Context, req SaveRequest) (*model.Progress, error) {
	if req.UserID <= 0 {
		return nil, ErrUserRequired
	}
	if req.Status == "" {
		req.Status = model.StatusInProgress
	}
	if !req.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}
	if req.RemainingSeconds < 0 {
		req.RemainingSeconds = 0
	}

	module, err := s.modules.Get(ctx, req.ModuleID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < saveAttempts; attempt++ {
		current, err := s.repo.Get(ctx, req.UserID, req.ModuleID)
		if err != nil {
			return nil, fmt.Errorf("failed to get progress: %w", err)
		}

		if req.Version != nil && *req.Version != versionOf(current) {
			return nil, fmt.Errorf("%w: expected %d, stored %d", ErrVersionConflict, *req.Version, versionOf(current))
		}

		if current.Completed() {
			if req.Status == model.StatusCompleted {
				return current, nil
			}
			return nil, ErrModuleCompleted
		}

		next := s.build(current, req)

		var saved *model.Progress
		if current == nil {
			saved, err = s.repo.Insert(ctx, next)
			if errors.Is(err, repository.ErrDuplicate) {
				log.Printf("Progress insert raced for user %d module %d, retrying as update", req.UserID, req.ModuleID)
				continue
			}
		} else {
			saved, err = s.repo.Update(ctx, next, current.Version)
			if errors.Is(err, repository.ErrStale) {
				if req.Version != nil {
					return nil, fmt.Errorf("%w: record changed concurrently", ErrVersionConflict)
				}
				continue
			}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to save progress: %w", err)
		}

		if saved.Completed() {
			s.notify(*saved, *module)
		}
		return saved, nil
	}

	return nil, fmt.Errorf("%w: record changed concurrently", ErrVersionConflict)
}

func (s *ProgressService) build(current *model.Progress, req SaveRequest) *model.Progress {
	now := s.now().UTC()

	next := &model.Progress{
		UserID:           req.UserID,
		ModuleID:         req.ModuleID,
		Version:          1,
		RemainingSeconds: req.RemainingSeconds,
		Status:           req.Status,
		UpdatedAt:        now,
	}
	if current != nil {
		next.ID = current.ID
		next.StartedAt = current.StartedAt
		next.RightAnswer = current.RightAnswer
		next.WrongAnswer = current.WrongAnswer
		next.Version = current.Version + 1
	}

	if next.StartedAt == nil && req.Status == model.StatusInProgress {
		next.StartedAt = &now
	}
	if req.Status == model.StatusCompleted {
		next.CompletedAt = &now
		next.RightAnswer = req.RightAnswer
		next.WrongAnswer = req.WrongAnswer
	}
	return next
}

func versionOf(p *model.Progress) int {
	if p == nil {
		return 0
	}
	return p.Version
}

func (s *ProgressService) notify(p model.Progress, m model.Module) {
	if s.notifier == nil {
		return
	}
	s.dispatch(func() {
		if err := s.notifier.NotifyCompletion(context.Background(), p, m); err != nil {
			log.Printf("Failed to notify completion for user %d module %d: %v", p.UserID, p.ModuleID, err)
		}
	})
}

// Delete удаляет прогресс пользователя по модулю (перезапуск модуля)
func (s *ProgressService) Delete(ctx context.Context, userID, moduleID int64) (bool, error) {
	if userID <= 0 {
		return false, ErrUserRequired
	}
	deleted, err := s.repo.Delete(ctx, userID, moduleID)
	if err != nil {
		return false, fmt.Errorf("failed to delete progress: %w", err)
	}
	return deleted, nil
}

// Stats возвращает количество записей прогресса по статусам
func (s *ProgressService) Stats(ctx context.Context) (map[model.Status]int, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count progress: %w", err)
	}
	return counts, nil
}

// Ping проверяет доступность хранилища
func (s *ProgressService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
