package app

import (
	"context"
	"fmt"
	"log"

	modulesRepo "github.com/IT-Nick/mathquiz/internal/domain/modules/repository"
	progressRepo "github.com/IT-Nick/mathquiz/internal/domain/progress/repository"
	"github.com/IT-Nick/mathquiz/internal/infra/config"
	"github.com/IT-Nick/mathquiz/internal/infra/database"
)

// Storage репозитории выбранного хранилища
type Storage struct {
	Modules  modulesRepo.Repository
	Progress progressRepo.Repository
	close    func()
}

// Close закрывает соединение с базой
func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// InitStorage подключает хранилище, указанное в конфигурации
func InitStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	const op = "app.InitStorage"

	switch cfg.Storage.Type {
	case config.StoragePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &Storage{
			Modules:  modulesRepo.NewModuleRepository(db),
			Progress: progressRepo.NewProgressRepository(db),
			close:    db.Close,
		}, nil

	case config.StorageSQLite:
		db, err := database.NewSQLite(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &Storage{
			Modules:  modulesRepo.NewSQLiteRepository(db),
			Progress: progressRepo.NewSQLiteRepository(db),
			close: func() {
				if err := db.Close(); err != nil {
					log.Printf("Failed to close SQLite database: %v", err)
				}
			},
		}, nil

	case config.StorageMemory:
		log.Println("Using in-memory storage, data is lost on restart")
		return &Storage{
			Modules:  modulesRepo.NewMemoryRepository(),
			Progress: progressRepo.NewMemoryRepository(),
		}, nil
	}

	return nil, fmt.Errorf("%s: %w: %q", op, config.ErrUnknownStorage, cfg.Storage.Type)
}
