// Package app assembles the application: database pool, migrations,
// Telegram API, repositories, services, handlers and the scheduler.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"gebeyahub.et/referral-bot/internal/bot"
	"gebeyahub.et/referral-bot/internal/config"
	"gebeyahub.et/referral-bot/internal/db/postgres"
	"gebeyahub.et/referral-bot/internal/features/admin"
	"gebeyahub.et/referral-bot/internal/features/sales"
	"gebeyahub.et/referral-bot/internal/features/users"
	"gebeyahub.et/referral-bot/internal/features/withdraw"
	"gebeyahub.et/referral-bot/internal/jobs"
)

// App holds every long-lived component.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI
}

// New builds the application. Initialization order matters: components
// depend on each other.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Database ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("authorized as @%s", botAPI.Self.UserName)

	// === 3. Repositories ===
	userRepo := users.NewRepository(pool)
	salesRepo := sales.NewRepository(pool)
	withdrawRepo := withdraw.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 4. Services ===
	userService := users.NewService(userRepo)
	salesService := sales.NewService(salesRepo)
	withdrawService := withdraw.NewService(withdrawRepo, cfg.WithdrawMinAmount, cfg.WithdrawAmountStep)
	adminService := admin.NewService(adminRepo, cfg)

	// === 5. Session store + handlers ===
	sessionStore := withdraw.NewSessionStore(cfg.WithdrawSessionTTL)

	userHandler := users.NewHandler(userService, botAPI, cfg)
	salesHandler := sales.NewHandler(botAPI)
	withdrawHandler := withdraw.NewHandler(withdrawService, userService, sessionStore, botAPI, cfg)
	adminHandler := admin.NewHandler(adminService, userService, salesService, withdrawService, botAPI)

	// === 6. Bot ===
	b := bot.New(botAPI, cfg, userHandler, salesHandler, withdrawHandler, adminHandler)

	// === 7. Scheduler ===
	scheduler := jobs.NewScheduler(pool, sessionStore, adminService, cfg, b.SendMessageToUser)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// runMigrations applies all SQL migrations in order.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.InitMigrations(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Users},
		{2, migration002PendingPurchases},
		{3, migration003Withdrawals},
		{4, migration004Admin},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("migration %d: %w", m.version, err)
		}
		log.Infof("migration %d applied", m.version)
	}

	return nil
}

// SQL migrations are embedded so deployment is a single binary.

var migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255) NOT NULL DEFAULT '',
    first_name VARCHAR(255) NOT NULL DEFAULT '',
    last_name VARCHAR(255) NOT NULL DEFAULT '',
    referral_code VARCHAR(16) UNIQUE NOT NULL,
    referred_by VARCHAR(16),
    balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
    package VARCHAR(16),
    package_confirmed_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_user_id ON users(user_id);
CREATE INDEX IF NOT EXISTS idx_users_referred_by ON users(referred_by);
`

var migration002PendingPurchases = `
CREATE TABLE IF NOT EXISTS pending_purchases (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(user_id),
    package VARCHAR(16) NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_pending_purchases_user ON pending_purchases(user_id, package);
`

var migration003Withdrawals = `
CREATE TABLE IF NOT EXISTS withdrawals (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(user_id),
    amount BIGINT NOT NULL CHECK (amount > 0),
    payment_method VARCHAR(16),
    status VARCHAR(16) NOT NULL DEFAULT 'pending',
    note TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_withdrawals_user ON withdrawals(user_id);
CREATE INDEX IF NOT EXISTS idx_withdrawals_status ON withdrawals(status);
`

var migration004Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    session_token VARCHAR(255) UNIQUE,
    authenticated_at TIMESTAMP NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMP,
    last_activity TIMESTAMP NOT NULL DEFAULT NOW(),
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user_id ON admin_sessions(user_id);
CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT,
    attempt_time TIMESTAMP NOT NULL DEFAULT NOW(),
    success BOOLEAN NOT NULL DEFAULT FALSE
);
`
