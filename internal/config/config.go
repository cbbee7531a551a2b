// Package config loads bot configuration from environment variables.
// envconfig maps the variables onto the Config struct.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// Config holds every setting of the application.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// Comma-separated Telegram user IDs allowed into the admin panel.
	AdminIDsRaw string  `envconfig:"ADMIN_IDS" required:"true"`
	AdminIDs    []int64 `envconfig:"-"`
	// Bot username without @, used to build t.me referral links.
	BotUsername string `envconfig:"BOT_USERNAME" required:"true"`

	// --- Database ---
	// Inside Docker "localhost" is almost always wrong; default to the
	// docker-compose service name, override DB_HOST=localhost locally.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"referral_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Africa/Addis_Ababa"`

	// --- Bot runtime ---
	// How many updates are processed in parallel. Unbounded "go per update"
	// leaks memory under flood.
	BotMaxInflight          int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- Withdrawals ---
	// Minimum balance required to start the withdraw dialog, and the step
	// every requested amount must be a multiple of. Both in birr.
	WithdrawMinAmount  int64         `envconfig:"WITHDRAW_MIN_AMOUNT" default:"100"`
	WithdrawAmountStep int64         `envconfig:"WITHDRAW_AMOUNT_STEP" default:"100"`
	WithdrawSessionTTL time.Duration `envconfig:"WITHDRAW_SESSION_TTL" default:"10m"`

	// --- Backups ---
	BackupDir  string `envconfig:"BACKUP_DIR" default:"backups"`
	BackupCron string `envconfig:"BACKUP_CRON" default:"0 2 * * *"`

	// --- Rate limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// DatabaseDSN returns the PostgreSQL connection string.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	if len(c.AdminIDs) == 0 {
		return fmt.Errorf("ADMIN_IDS is empty")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT must be > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS must be > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("bad DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.WithdrawMinAmount <= 0 || c.WithdrawAmountStep <= 0 {
		return fmt.Errorf("WITHDRAW_MIN_AMOUNT and WITHDRAW_AMOUNT_STEP must be > 0")
	}
	if c.WithdrawMinAmount%c.WithdrawAmountStep != 0 {
		return fmt.Errorf("WITHDRAW_MIN_AMOUNT must be a multiple of WITHDRAW_AMOUNT_STEP")
	}
	if c.WithdrawSessionTTL <= 0 {
		return fmt.Errorf("WITHDRAW_SESSION_TTL must be > 0")
	}
	// A malformed schedule would otherwise silently disable the backup job.
	if _, err := cron.ParseStandard(c.BackupCron); err != nil {
		return fmt.Errorf("bad BACKUP_CRON %q: %w", c.BackupCron, err)
	}
	return nil
}

// Load reads the environment and fills the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsAdmin reports whether userID is in the ADMIN_IDS list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
