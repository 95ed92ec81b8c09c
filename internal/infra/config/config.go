package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Типы хранилища
const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageMemory   = "memory"
)

// Режимы получения обновлений ботом
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

var (
	ErrUnknownStorage = errors.New("unknown storage type")
	ErrUnknownBotMode = errors.New("unknown bot mode")
	ErrInvalidTimer   = errors.New("timer intervals must be positive")
)

// Duration позволяет задавать интервалы в YAML строками вида "10s"
type Duration struct {
	time.Duration
}

// UnmarshalYAML разбирает строку длительности
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML записывает длительность строкой
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

type Server struct {
	Host        string   `yaml:"host"`
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type Storage struct {
	Type       string `yaml:"type"`
	SQLitePath string `yaml:"sqlite_path"`
}

type Database struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN возвращает строку подключения к Postgres
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s", d.User, d.Password, d.Host, d.Port, d.Name)
	if d.SSLMode != "" {
		dsn += "?sslmode=" + d.SSLMode
	}
	return dsn
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type TelegramBot struct {
	Token        string   `yaml:"token"`
	Mode         string   `yaml:"mode"`
	WebhookURL   string   `yaml:"webhook_url"`
	ListenAddr   string   `yaml:"listen_addr"`
	PollInterval Duration `yaml:"poll_interval"`
	AdminChatID  int64    `yaml:"admin_chat_id"`
	APIBaseURL   string   `yaml:"api_base_url"`
	StateFile    string   `yaml:"state_file"`
	Debug        bool     `yaml:"debug"`
}

type Timer struct {
	TickInterval     Duration `yaml:"tick_interval"`
	AutosaveInterval Duration `yaml:"autosave_interval"`
	SettleDelay      Duration `yaml:"settle_delay"`
}

type Scheduler struct {
	StatsInterval Duration `yaml:"stats_interval"`
}

type Config struct {
	Server      Server      `yaml:"server"`
	Storage     Storage     `yaml:"storage"`
	Database    Database    `yaml:"database"`
	Auth        Auth        `yaml:"auth"`
	TelegramBot TelegramBot `yaml:"telegram_bot"`
	Timer       Timer       `yaml:"timer"`
	Scheduler   Scheduler   `yaml:"scheduler"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		Server: Server{
			Host:        "0.0.0.0",
			Port:        "8080",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Storage: Storage{
			Type:       StorageMemory,
			SQLitePath: "data/quiz.db",
		},
		Database: Database{
			Host:    "localhost",
			Port:    "5432",
			SSLMode: "disable",
		},
		TelegramBot: TelegramBot{
			Mode:         ModePolling,
			ListenAddr:   ":8443",
			PollInterval: Duration{10 * time.Second},
			APIBaseURL:   "http://localhost:8080",
		},
		Timer: Timer{
			TickInterval:     Duration{time.Second},
			AutosaveInterval: Duration{10 * time.Second},
			SettleDelay:      Duration{500 * time.Millisecond},
		},
		Scheduler: Scheduler{
			StatsInterval: Duration{time.Hour},
		},
	}
}

// LoadConfig читает .env (если есть), YAML-файл (если задан и существует) и переменные окружения.
// Переменные окружения имеют приоритет над файлом.
func LoadConfig(filename string) (*Config, error) {
	const op = "config.LoadConfig"

	_ = godotenv.Load()

	if env := os.Getenv("CONFIG_PATH"); env != "" {
		filename = env
	}

	cfg := Default()
	if filename != "" {
		if err := cfg.loadFile(filename); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cfg, nil
}

func (c *Config) loadFile(filename string) error {
	f, err := os.Open(filename)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("Config file %s not found, using defaults and environment", filename)
		return nil
	}
	if err != nil {
		return err
	}

	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			log.Printf("f.Close() failed: %v", err)
		}
	}(f)

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("decode %s: %w", filename, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Port, "PORT")
	setString(&c.Storage.Type, "STORAGE_TYPE")
	setString(&c.Storage.SQLitePath, "SQLITE_PATH")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.TelegramBot.Token, "TELEGRAM_BOT_TOKEN")
	setString(&c.TelegramBot.APIBaseURL, "API_BASE_URL")
	setString(&c.TelegramBot.Mode, "BOT_MODE")
	setString(&c.TelegramBot.WebhookURL, "WEBHOOK_URL")

	if raw := os.Getenv("ADMIN_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			log.Printf("Ignoring invalid ADMIN_CHAT_ID %q: %v", raw, err)
		} else {
			c.TelegramBot.AdminChatID = id
		}
	}
	if raw := os.Getenv("BOT_DEBUG"); raw != "" {
		debug, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			log.Printf("Ignoring invalid BOT_DEBUG %q: %v", raw, err)
		} else {
			c.TelegramBot.Debug = debug
		}
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	c.Storage.Type = strings.ToLower(c.Storage.Type)
	switch c.Storage.Type {
	case StoragePostgres, StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorage, c.Storage.Type)
	}

	switch c.TelegramBot.Mode {
	case ModePolling, ModeWebhook:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBotMode, c.TelegramBot.Mode)
	}

	if c.Timer.TickInterval.Duration <= 0 || c.Timer.AutosaveInterval.Duration <= 0 || c.Timer.SettleDelay.Duration < 0 {
		return ErrInvalidTimer
	}

	return nil
}

// Addr возвращает адрес HTTP сервера
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
