package chatstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	if _, ok := s.Get(1); ok {
		t.Fatal("Пустое хранилище не должно содержать чатов")
	}
	if err := s.Set(1, ChatState{UserID: 7, Username: "ivan"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := s.Get(1)
	if !ok || got.UserID != 7 {
		t.Fatalf("Ожидался пользователь 7, получено %+v", got)
	}
	if err := s.Delete(1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if all, _ := s.All(); len(all) != 0 {
		t.Fatalf("После удаления хранилище пусто, получено %v", all)
	}
}

func TestJSONStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "chats.json")

	s, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Файл состояния должен быть создан: %v", err)
	}
	state := ChatState{UserID: 7, Username: "ivan", ActiveModuleID: 3, TimerMessageID: 55}
	if err := s.Set(100, state); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(200, ChatState{UserID: 8}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Delete(200); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	reopened, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	got, ok := reopened.Get(100)
	if !ok || got != state {
		t.Fatalf("Ожидалось %+v, получено %+v", state, got)
	}
	if _, ok := reopened.Get(200); ok {
		t.Fatal("Удаленный чат не должен восстанавливаться")
	}
}

func TestJSONStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chats.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewJSONStore(path); err == nil {
		t.Fatal("Ожидалась ошибка разбора файла")
	}
}

func TestNewStore(t *testing.T) {
	s, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Fatalf("Без файла ожидался MemoryStore, получено %T", s)
	}
}
