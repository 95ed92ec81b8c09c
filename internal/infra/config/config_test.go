package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("Не удалось записать конфигурацию: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CONFIG_PATH", "PORT", "STORAGE_TYPE", "SQLITE_PATH", "DATABASE_URL",
		"JWT_SECRET", "TELEGRAM_BOT_TOKEN", "ADMIN_CHAT_ID", "API_BASE_URL", "BOT_MODE", "WEBHOOK_URL"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: "9090"
storage:
  type: sqlite
  sqlite_path: /tmp/q.db
timer:
  tick_interval: 2s
  autosave_interval: 30s
  settle_delay: 250ms
telegram_bot:
  admin_chat_id: 42
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}

	if cfg.Addr() != "127.0.0.1:9090" {
		t.Errorf("Неожиданный адрес: %s", cfg.Addr())
	}
	if cfg.Storage.Type != StorageSQLite || cfg.Storage.SQLitePath != "/tmp/q.db" {
		t.Errorf("Неожиданное хранилище: %+v", cfg.Storage)
	}
	if cfg.Timer.TickInterval.Duration != 2*time.Second || cfg.Timer.AutosaveInterval.Duration != 30*time.Second {
		t.Errorf("Неожиданные интервалы: %+v", cfg.Timer)
	}
	if cfg.Timer.SettleDelay.Duration != 250*time.Millisecond {
		t.Errorf("Неожиданная задержка: %v", cfg.Timer.SettleDelay)
	}
	if cfg.TelegramBot.AdminChatID != 42 {
		t.Errorf("Неожиданный admin_chat_id: %d", cfg.TelegramBot.AdminChatID)
	}
	if cfg.Scheduler.StatsInterval.Duration != time.Hour {
		t.Errorf("Незаданные ключи должны сохранять значения по умолчанию, получено %v", cfg.Scheduler.StatsInterval)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "server:\n  port: \"9090\"\n")
	t.Setenv("PORT", "7070")
	t.Setenv("STORAGE_TYPE", "POSTGRES")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/quiz")
	t.Setenv("ADMIN_CHAT_ID", "100500")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("PORT должен переопределять файл, получено %s", cfg.Server.Port)
	}
	if cfg.Storage.Type != StoragePostgres {
		t.Errorf("Тип хранилища должен нормализоваться, получено %s", cfg.Storage.Type)
	}
	if cfg.Database.DSN() != "postgres://u:p@db:5432/quiz" {
		t.Errorf("DATABASE_URL должен иметь приоритет, получено %s", cfg.Database.DSN())
	}
	if cfg.TelegramBot.AdminChatID != 100500 || cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("Неожиданные значения: %+v %+v", cfg.TelegramBot, cfg.Auth)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Отсутствующий файл не должен быть ошибкой: %v", err)
	}
	if cfg.Storage.Type != StorageMemory || cfg.Timer.AutosaveInterval.Duration != 10*time.Second {
		t.Errorf("Ожидались значения по умолчанию, получено %+v", cfg)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, "storage:\n  type: mongo\n")
	if _, err := LoadConfig(path); !errors.Is(err, ErrUnknownStorage) {
		t.Errorf("Ожидалась ErrUnknownStorage, получено %v", err)
	}

	path = writeConfig(t, "timer:\n  tick_interval: 0s\n")
	if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidTimer) {
		t.Errorf("Ожидалась ErrInvalidTimer, получено %v", err)
	}

	path = writeConfig(t, "timer:\n  tick_interval: soon\n")
	if _, err := LoadConfig(path); err == nil {
		t.Error("Ожидалась ошибка разбора длительности")
	}
}

func TestDatabaseDSN(t *testing.T) {
	db := Database{Host: "h", Port: "5432", User: "u", Password: "p", Name: "quiz", SSLMode: "disable"}
	if got := db.DSN(); got != "postgres://u:p@h:5432/quiz?sslmode=disable" {
		t.Errorf("Неожиданный DSN: %s", got)
	}
}
