package repository

import (
	"context"
	"sync"

	"github.com/IT-Nick/mathquiz/internal/domain/model"
)

type key struct {
	userID   int64
	moduleID int64
}

// MemoryRepository хранит прогресс в памяти процесса
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[key]model.Progress
}

// NewMemoryRepository создает новый экземпляр MemoryRepository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[key]model.Progress)}
}

func (r *MemoryRepository) Get(_ context.Context, userID, moduleID int64) (*model.Progress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[key{userID, moduleID}]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *MemoryRepository) Insert(_ context.Context, p *model.Progress) (*model.Progress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{p.UserID, p.ModuleID}
	if _, ok := r.items[k]; ok {
		return nil, ErrDuplicate
	}

	r.nextID++
	stored := *p
	stored.ID = r.nextID
	r.items[k] = stored
	return &stored, nil
}

func (r *MemoryRepository) Update(_ context.Context, p *model.Progress, expectedVersion int) (*model.Progress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{p.UserID, p.ModuleID}
	current, ok := r.items[k]
	if !ok || current.Version != expectedVersion {
		return nil, ErrStale
	}

	stored := *p
	stored.ID = current.ID
	r.items[k] = stored
	return &stored, nil
}

func (r *MemoryRepository) Delete(_ context.Context, userID, moduleID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{userID, moduleID}
	if _, ok := r.items[k]; !ok {
		return false, nil
	}
	delete(r.items, k)
	return true, nil
}

func (r *MemoryRepository) CountByStatus(_ context.Context) (map[model.Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[model.Status]int)
	for _, p := range r.items {
		counts[p.Status]++
	}
	return counts, nil
}

func (r *MemoryRepository) Ping(context.Context) error {
	return nil
}
