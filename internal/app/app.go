package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/IT-Nick/mathquiz/internal/app/handlers/http/create_module_handler"
	"github.com/IT-Nick/mathquiz/internal/app/handlers/http/delete_progress_handler"
	"github.com/IT-Nick/mathquiz/internal/app/handlers/http/get_module_handler"
	"github.com/IT-Nick/mathquiz/internal/app/handlers/http/get_progress_handler"
	"github.com/IT-Nick/mathquiz/internal/app/handlers/http/health_handler"
	"github.com/IT-Nick/mathquiz/internal/app/handlers/http/list_modules_handler"
	"github.com/IT-Nick/mathquiz/internal/app/handlers/http/list_questions_handler"
	"github.com/IT-Nick/mathquiz/internal/app/handlers/http/save_progress_handler"
	modulesService "github.com/IT-Nick/mathquiz/internal/domain/modules/service"
	progressService "github.com/IT-Nick/mathquiz/internal/domain/progress/service"
	"github.com/IT-Nick/mathquiz/internal/infra/config"
	"github.com/IT-Nick/mathquiz/internal/infra/notifier"
	"github.com/IT-Nick/mathquiz/internal/infra/scheduler"
	"github.com/IT-Nick/mathquiz/middleware"
	"github.com/rs/cors"
)

type Services struct {
	moduleService   *modulesService.ModuleService
	progressService *progressService.ProgressService
}

// App HTTP сервер прогресса и справочных данных
type App struct {
	config    *config.Config
	storage   *Storage
	server    *http.Server
	scheduler *scheduler.Scheduler

	Services
}

// NewApp загружает конфигурацию, подключает хранилище и создает сервисы
func NewApp(configPath string) (*App, error) {
	configImpl, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("config.LoadConfig: %w", err)
	}

	storage, err := InitStorage(context.Background(), configImpl)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	app := &App{
		config:  configImpl,
		storage: storage,
	}

	if err := app.initServices(); err != nil {
		storage.Close()
		return nil, err
	}

	return app, nil
}

// newAppWithStorage собирает приложение поверх готового хранилища
func newAppWithStorage(cfg *config.Config, storage *Storage) *App {
	app := &App{config: cfg, storage: storage}
	app.moduleService = modulesService.NewModuleService(storage.Modules)
	app.progressService = progressService.NewProgressService(storage.Progress, app.moduleService, nil)
	return app
}

// initServices инициализирует сервисы и необязательные уведомления о завершении
func (app *App) initServices() error {
	var completion progressService.CompletionNotifier
	bot := app.config.TelegramBot
	if bot.Token != "" && bot.AdminChatID != 0 {
		n, err := notifier.NewTelegramNotifier(bot.Token, "", bot.AdminChatID)
		if err != nil {
			return fmt.Errorf("failed to initialize notifier: %w", err)
		}
		completion = n
	}

	app.moduleService = modulesService.NewModuleService(app.storage.Modules)
	app.progressService = progressService.NewProgressService(app.storage.Progress, app.moduleService, completion)
	app.scheduler = scheduler.New(app.progressService, app.config.Scheduler.StatsInterval.Duration, nil)
	return nil
}

// Handler возвращает маршрутизатор со всеми middleware
func (app *App) Handler() http.Handler {
	mx := http.NewServeMux()

	mx.Handle("GET /health", health_handler.NewHealthHandler(app.progressService))

	mx.Handle("GET /api/modules", list_modules_handler.NewListModulesHandler(app.moduleService))
	mx.Handle("POST /api/modules", create_module_handler.NewCreateModuleHandler(app.moduleService))
	mx.Handle("GET /api/modules/{id}", get_module_handler.NewGetModuleHandler(app.moduleService))
	mx.Handle("GET /api/questions", list_questions_handler.NewListQuestionsHandler(app.moduleService))

	mx.Handle("GET /api/modules/{id}/progress", get_progress_handler.NewGetProgressHandler(app.progressService))
	mx.Handle("POST /api/modules/{id}/progress", save_progress_handler.NewSaveProgressHandler(app.progressService))
	mx.Handle("DELETE /api/modules/{id}/progress", delete_progress_handler.NewDeleteProgressHandler(app.progressService))

	var handler http.Handler = mx
	handler = middleware.Identity(app.config.Auth.JWTSecret)(handler)
	handler = middleware.RecoverHTTP(handler)
	handler = middleware.RequestLogger()(handler)

	return cors.New(cors.Options{
		AllowedOrigins:   app.config.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(handler)
}

// ListenAndServeHTTP запускает HTTP сервер и фоновые задачи
func (app *App) ListenAndServeHTTP() error {
	if err := app.scheduler.Start(); err != nil {
		return err
	}

	app.server = &http.Server{
		Addr:              app.config.Addr(),
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	log.Printf("HTTP server listening on %s (storage=%s)", app.server.Addr, app.config.Storage.Type)
	if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown останавливает сервер, задачи и закрывает хранилище
func (app *App) Shutdown(ctx context.Context) error {
	var err error
	if app.server != nil {
		err = app.server.Shutdown(ctx)
	}
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	app.storage.Close()
	return err
}
