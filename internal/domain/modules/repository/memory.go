package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/IT-Nick/mathquiz/internal/domain/model"
)

// MemoryRepository хранит модули и вопросы в памяти процесса
type MemoryRepository struct {
	mu             sync.RWMutex
	nextModuleID   int64
	nextQuestionID int64
	modules        map[int64]model.Module
	questions      map[int64][]model.Question
	now            func() time.Time
}

// NewMemoryRepository создает новый экземпляр MemoryRepository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		modules:   make(map[int64]model.Module),
		questions: make(map[int64][]model.Question),
		now:       time.Now,
	}
}

func (r *MemoryRepository) List(_ context.Context) ([]model.Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	modules := make([]model.Module, 0, len(r.modules))
	for _, m := range r.modules {
		modules = append(modules, m)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].ID < modules[j].ID })
	return modules, nil
}

func (r *MemoryRepository) Get(_ context.Context, id int64) (*model.Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.modules[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *MemoryRepository) GetByTitle(_ context.Context, title string) (*model.Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *model.Module
	for _, m := range r.modules {
		if m.Title == title && (found == nil || m.ID < found.ID) {
			m := m
			found = &m
		}
	}
	return found, nil
}

func (r *MemoryRepository) Create(_ context.Context, m *model.Module) (*model.Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextModuleID++
	stored := *m
	stored.ID = r.nextModuleID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.now().UTC()
	}
	r.modules[stored.ID] = stored
	return &stored, nil
}

func (r *MemoryRepository) Questions(_ context.Context, moduleID int64) ([]model.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]model.Question{}, r.questions[moduleID]...), nil
}

func (r *MemoryRepository) CreateQuestion(_ context.Context, q *model.Question) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.modules[q.ModuleID]; !ok {
		return nil, ErrModuleMissing
	}

	r.nextQuestionID++
	stored := *q
	stored.ID = r.nextQuestionID
	stored.Options = append([]string(nil), q.Options...)
	r.questions[q.ModuleID] = append(r.questions[q.ModuleID], stored)
	return &stored, nil
}
