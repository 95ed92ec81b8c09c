// Package chatstore хранит состояние чатов бота между перезапусками.
package chatstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ChatState данные, связанные с чатом Telegram
type ChatState struct {
	UserID         int64  `json:"user_id"`          // Пользователь системы прогресса, 0 если не вошел
	Username       string `json:"username"`         // Ник в Telegram
	ActiveModuleID int64  `json:"active_module_id"` // Модуль, чей таймер показан в сообщении
	TimerMessageID int    `json:"timer_message_id"` // Сообщение с таймером
}

// Store определяет интерфейс для работы с состоянием чатов
type Store interface {
	Get(chatID int64) (ChatState, bool)
	Set(chatID int64, state ChatState) error
	Delete(chatID int64) error
	All() (map[int64]ChatState, error)
}

// MemoryStore хранит состояние в памяти процесса
type MemoryStore struct {
	data map[int64]ChatState
	mu   sync.RWMutex
}

// NewMemoryStore создает новый MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[int64]ChatState)}
}

func (m *MemoryStore) Get(chatID int64) (ChatState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.data[chatID]
	return state, ok
}

func (m *MemoryStore) Set(chatID int64, state ChatState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[chatID] = state
	return nil
}

func (m *MemoryStore) Delete(chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, chatID)
	return nil
}

func (m *MemoryStore) All() (map[int64]ChatState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make(map[int64]ChatState, len(m.data))
	for k, v := range m.data {
		all[k] = v
	}
	return all, nil
}

// JSONStore сохраняет состояние в JSON-файл. Содержимое файла кешируется в памяти,
// файл перезаписывается при каждом изменении.
type JSONStore struct {
	filename string
	mu       sync.RWMutex
	data     map[int64]ChatState
}

// NewJSONStore открывает или создает файл состояния
func NewJSONStore(filename string) (*JSONStore, error) {
	const op = "chatstore.NewJSONStore"

	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	j := &JSONStore{filename: filename, data: make(map[int64]ChatState)}
	raw, err := os.ReadFile(filename)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := j.save(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return j, nil
	case err != nil:
		return nil, fmt.Errorf("%s: failed to read %s: %w", op, filename, err)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &j.data); err != nil {
			return nil, fmt.Errorf("%s: failed to parse %s: %w", op, filename, err)
		}
	}
	return j, nil
}

// save записывает состояние во временный файл и переименовывает его. Вызывается под блокировкой.
func (j *JSONStore) save() error {
	data, err := json.MarshalIndent(j.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode chat states: %w", err)
	}
	tmp := j.filename + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, j.filename); err != nil {
		return fmt.Errorf("failed to replace %s: %w", j.filename, err)
	}
	return nil
}

func (j *JSONStore) Get(chatID int64) (ChatState, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	state, ok := j.data[chatID]
	return state, ok
}

func (j *JSONStore) Set(chatID int64, state ChatState) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	prev, had := j.data[chatID]
	j.data[chatID] = state
	if err := j.save(); err != nil {
		if had {
			j.data[chatID] = prev
		} else {
			delete(j.data, chatID)
		}
		return err
	}
	return nil
}

func (j *JSONStore) Delete(chatID int64) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	prev, had := j.data[chatID]
	if !had {
		return nil
	}
	delete(j.data, chatID)
	if err := j.save(); err != nil {
		j.data[chatID] = prev
		return err
	}
	return nil
}

func (j *JSONStore) All() (map[int64]ChatState, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	all := make(map[int64]ChatState, len(j.data))
	for k, v := range j.data {
		all[k] = v
	}
	return all, nil
}

// NewStore возвращает JSONStore, если задан файл, иначе MemoryStore
func NewStore(filename string) (Store, error) {
	if filename == "" {
		return NewMemoryStore(), nil
	}
	return NewJSONStore(filename)
}
