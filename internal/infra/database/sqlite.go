package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// MemoryDSN открывает базу SQLite в памяти, используется в тестах
const MemoryDSN = ":memory:"

// NewSQLite открывает файл SQLite (создавая каталог при необходимости) и создает схему
func NewSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	const op = "database.NewSQLite"

	if path != MemoryDSN {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("%s: failed to create data directory: %w", op, err)
			}
		}
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	// SQLite допускает одного писателя; для :memory: одно соединение еще и хранит всю базу.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: failed to enable foreign keys: %w", op, err)
	}

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: failed to initialize schema: %w", op, err)
		}
	}

	log.Printf("SQLite database %s ready", path)
	return db, nil
}
