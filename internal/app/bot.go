package app

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/IT-Nick/mathquiz/internal/app/handlers/telegram/answer_handler"
	"github.com/IT-Nick/mathquiz/internal/app/handlers/telegram/chat"
	"github.com/IT-Nick/mathquiz/internal/app/handlers/telegram/login_handler"
	"github.com/IT-Nick/mathquiz/internal/app/handlers/telegram/logout_handler"
	"github.com/IT-Nick/mathquiz/internal/app/handlers/telegram/module_action_handler"
	"github.com/IT-Nick/mathquiz/internal/app/handlers/telegram/modules_handler"
	"github.com/IT-Nick/mathquiz/internal/app/handlers/telegram/start_handler"
	"github.com/IT-Nick/mathquiz/internal/client"
	"github.com/IT-Nick/mathquiz/internal/domain/grading"
	"github.com/IT-Nick/mathquiz/internal/domain/model"
	"github.com/IT-Nick/mathquiz/internal/infra/chatstore"
	"github.com/IT-Nick/mathquiz/internal/infra/config"
	"github.com/IT-Nick/mathquiz/internal/infra/timer"
	"github.com/IT-Nick/mathquiz/internal/session"
	"github.com/IT-Nick/mathquiz/middleware"
	"github.com/IT-Nick/mathquiz/poller"
	"gopkg.in/telebot.v4"
	telebotMiddleware "gopkg.in/telebot.v4/middleware"
)

// moduleActions кнопки, которые обрабатывает module_action_handler
var moduleActions = []string{
	model.StartModuleKey,
	model.PauseModuleKey,
	model.ResumeModuleKey,
	model.SubmitModuleKey,
	model.RestartModuleKey,
	model.ConfirmRestartKey,
}

// BotApp Telegram-бот для прохождения модулей
type BotApp struct {
	config   *config.Config
	bot      *telebot.Bot
	sessions *chat.Sessions
	display  *chat.Display
	logger   *log.Logger
}

// NewBotApp загружает конфигурацию и создает бота, работающего с сервером через HTTP API
func NewBotApp(configPath string) (*BotApp, error) {
	configImpl, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("config.LoadConfig: %w", err)
	}
	if configImpl.TelegramBot.Token == "" {
		return nil, fmt.Errorf("telegram_bot.token is required")
	}

	p, err := poller.NewPoller(configImpl.TelegramBot)
	if err != nil {
		return nil, fmt.Errorf("poller.NewPoller: %w", err)
	}

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags)
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  configImpl.TelegramBot.Token,
		Poller: p,
		OnError: func(err error, c telebot.Context) {
			logger.Printf("Handler error: %v", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("telebot.NewBot: %w", err)
	}

	store, err := chatstore.NewStore(configImpl.TelegramBot.StateFile)
	if err != nil {
		return nil, fmt.Errorf("chatstore.NewStore: %w", err)
	}

	backend := client.New(configImpl.TelegramBot.APIBaseURL, client.WithJWTSecret(configImpl.Auth.JWTSecret))
	return newBotApp(configImpl, bot, store, backend, logger), nil
}

// newBotApp собирает бота поверх готовых зависимостей
func newBotApp(cfg *config.Config, bot *telebot.Bot, store chatstore.Store, backend session.Backend, logger *log.Logger) *BotApp {
	a := &BotApp{config: cfg, bot: bot, logger: logger}
	a.display = chat.NewDisplay(bot, store)
	a.sessions = chat.NewSessions(session.NewRegistry(a.managerFactory(backend)), store)
	a.registerHandlers(store)
	return a
}

// managerFactory создает менеджер чата, таймеры которого обновляют сообщение-таймер
func (a *BotApp) managerFactory(backend session.Backend) session.Factory {
	timerCfg := a.config.Timer
	return func(chatID int64, identity session.Identity) *session.Manager {
		var m *session.Manager
		m = session.NewManager(backend, identity,
			session.WithLogger(a.logger),
			session.WithSettleDelay(timerCfg.SettleDelay.Duration),
			session.WithTimerOptions(
				timer.WithTickInterval(timerCfg.TickInterval.Duration),
				timer.WithAutosaveInterval(timerCfg.AutosaveInterval.Duration),
			),
			session.OnTick(func(moduleID int64, _ string, _ bool) {
				a.display.Tick(chatID, m, moduleID)
			}),
			session.OnComplete(func(moduleID int64, result grading.Result) {
				a.display.Completed(chatID, m, moduleID, result)
			}),
		)
		return m
	}
}

func (a *BotApp) registerHandlers(store chatstore.Store) {
	a.bot.Use(
		middleware.Logger(a.logger),
		telebotMiddleware.AutoRespond(),
		middleware.Recover(),
	)
	if a.config.TelegramBot.Debug {
		a.bot.Use(middleware.DebugUserActions(store))
	}

	modules := modules_handler.NewModulesHandler(a.sessions)

	a.bot.Handle("/start", start_handler.NewStartHandler(a.sessions).GetHandlerFunc())
	a.bot.Handle("/login", login_handler.NewLoginHandler(a.sessions).GetHandlerFunc())
	a.bot.Handle("/logout", logout_handler.NewLogoutHandler(a.sessions).GetHandlerFunc())
	a.bot.Handle("/modules", modules.GetHandlerFunc())
	a.bot.Handle("/answer", answer_handler.NewAnswerHandler(a.sessions, a.display).GetHandlerFunc())
	a.bot.Handle(&telebot.Btn{Unique: model.RetryLoadKey}, modules.GetHandlerFunc())

	for _, action := range moduleActions {
		h := module_action_handler.NewModuleActionHandler(a.sessions, a.display, action)
		a.bot.Handle(&telebot.Btn{Unique: action}, h.GetHandlerFunc())
	}
}

// Start восстанавливает сохраненные чаты и запускает получение обновлений. Блокирует до Stop.
func (a *BotApp) Start(ctx context.Context) {
	restored := a.sessions.Restore(ctx)
	a.logger.Printf("Restored %d chats, starting bot in %s mode", restored, a.config.TelegramBot.Mode)
	a.bot.Start()
}

// Stop останавливает бота и ставит на паузу все работающие модули
func (a *BotApp) Stop(ctx context.Context) {
	a.bot.Stop()
	if err := a.sessions.Close(ctx); err != nil {
		a.logger.Printf("Failed to flush progress on shutdown: %v", err)
	}
}
