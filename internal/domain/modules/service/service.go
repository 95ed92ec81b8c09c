package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/IT-Nick/mathquiz/internal/domain/model"
	"github.com/IT-Nick/mathquiz/internal/domain/modules/repository"
)

var (
	ErrModuleNotFound = errors.New("module not found")
	ErrInvalidModule  = errors.New("invalid module")
)

// CreateModuleRequest данные для создания модуля
type CreateModuleRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	TotalQuestions  int    `json:"total_questions"`
	DurationMinutes int    `json:"duration_minutes"`
	Difficulty      string `json:"difficulty"`
}

// ModuleService для работы с модулями и вопросами
type ModuleService struct {
	repo repository.Repository
}

// NewModuleService создает новый экземпляр ModuleService
func NewModuleService(repo repository.Repository) *ModuleService {
	return &ModuleService{repo: repo}
}

// List получает все модули
func (s *ModuleService) List(ctx context.Context) ([]model.Module, error) {
	modules, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	return modules, nil
}

// Get получает модуль по id
func (s *ModuleService) Get(ctx context.Context, id int64) (*model.Module, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %d", ErrModuleNotFound, id)
	}
	return m, nil
}

// FindByTitle ищет модуль по названию, nil если не найден
func (s *ModuleService) FindByTitle(ctx context.Context, title string) (*model.Module, error) {
	m, err := s.repo.GetByTitle(ctx, strings.TrimSpace(title))
	if err != nil {
		return nil, fmt.Errorf("failed to find module: %w", err)
	}
	return m, nil
}

// Create проверяет данные и создает модуль
func (s *ModuleService) Create(ctx context.Context, req CreateModuleRequest) (*model.Module, error) {
	m := model.Module{
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		TotalQuestions:  req.TotalQuestions,
		DurationMinutes: req.DurationMinutes,
		Difficulty:      strings.ToLower(strings.TrimSpace(req.Difficulty)),
	}
	if m.Difficulty == "" {
		m.Difficulty = model.DefaultDifficulty
	}

	switch {
	case m.Title == "":
		return nil, fmt.Errorf("%w: title is required", ErrInvalidModule)
	case m.TotalQuestions <= 0:
		return nil, fmt.Errorf("%w: total_questions must be positive", ErrInvalidModule)
	case m.DurationMinutes <= 0:
		return nil, fmt.Errorf("%w: duration_minutes must be positive", ErrInvalidModule)
	}

	created, err := s.repo.Create(ctx, &m)
	if err != nil {
		return nil, fmt.Errorf("failed to create module: %w", err)
	}
	return created, nil
}

// Questions получает вопросы модуля в порядке id
func (s *ModuleService) Questions(ctx context.Context, moduleID int64) ([]model.Question, error) {
	questions, err := s.repo.Questions(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	return questions, nil
}

// CreateQuestion добавляет вопрос к модулю
func (s *ModuleService) CreateQuestion(ctx context.Context, q model.Question) (*model.Question, error) {
	created, err := s.repo.CreateQuestion(ctx, &q)
	if errors.Is(err, repository.ErrModuleMissing) {
		return nil, fmt.Errorf("%w: %d", ErrModuleNotFound, q.ModuleID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return created, nil
}
