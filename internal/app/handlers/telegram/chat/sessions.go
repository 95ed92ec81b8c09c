// Package chat связывает чаты Telegram с менеджерами прохождения модулей
// и отвечает за отображение модулей и таймеров.
package chat

import (
	"context"
	"fmt"
	"log"

	"github.com/IT-Nick/mathquiz/internal/infra/chatstore"
	"github.com/IT-Nick/mathquiz/internal/session"
)

// Sessions выдает менеджер чата, восстанавливая вход пользователя из хранилища
type Sessions struct {
	registry *session.Registry
	store    chatstore.Store
}

// NewSessions создает Sessions
func NewSessions(registry *session.Registry, store chatstore.Store) *Sessions {
	return &Sessions{registry: registry, store: store}
}

// Store возвращает хранилище состояния чатов
func (s *Sessions) Store() chatstore.Store {
	return s.store
}

// Manager возвращает менеджер чата. Без входа менеджер анонимный.
func (s *Sessions) Manager(ctx context.Context, chatID int64) *session.Manager {
	if m, ok := s.registry.Get(chatID); ok {
		return m
	}
	st, _ := s.store.Get(chatID)
	return s.registry.Open(ctx, chatID, session.Identity{UserID: st.UserID, Username: st.Username})
}

// Loaded возвращает менеджер чата, загружая модули, если они еще не загружены
func (s *Sessions) Loaded(ctx context.Context, chatID int64) (*session.Manager, error) {
	m := s.Manager(ctx, chatID)
	if m.Loaded() {
		return m, nil
	}
	return m, m.Load(ctx)
}

// Login запоминает пользователя чата и загружает его модули
func (s *Sessions) Login(ctx context.Context, chatID int64, identity session.Identity) (*session.Manager, error) {
	if err := s.store.Set(chatID, chatstore.ChatState{UserID: identity.UserID, Username: identity.Username}); err != nil {
		return nil, fmt.Errorf("failed to save chat %d: %w", chatID, err)
	}
	m := s.registry.Open(ctx, chatID, identity)
	return m, m.Load(ctx)
}

// Logout ставит модули на паузу и забывает пользователя чата
func (s *Sessions) Logout(ctx context.Context, chatID int64) error {
	s.registry.Forget(ctx, chatID)
	if err := s.store.Delete(chatID); err != nil {
		return fmt.Errorf("failed to forget chat %d: %w", chatID, err)
	}
	return nil
}

// Restore открывает сохраненные чаты после перезапуска, чтобы модули in_progress
// возобновились. Возвращает количество восстановленных чатов.
func (s *Sessions) Restore(ctx context.Context) int {
	all, err := s.store.All()
	if err != nil {
		log.Printf("Failed to read chat states: %v", err)
		return 0
	}

	restored := 0
	for chatID, st := range all {
		if st.UserID <= 0 {
			continue
		}
		m := s.registry.Open(ctx, chatID, session.Identity{UserID: st.UserID, Username: st.Username})
		if err := m.Load(ctx); err != nil {
			log.Printf("Failed to restore chat %d: %v", chatID, err)
			continue
		}
		restored++
	}
	return restored
}

// Close ставит на паузу и закрывает все менеджеры
func (s *Sessions) Close(ctx context.Context) error {
	return s.registry.Close(ctx)
}
