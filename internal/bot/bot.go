// Package bot is the transport layer: it polls Telegram for updates and
// routes each message. Routing order for a DM: command → withdraw dialog
// step → ignored. Admin commands are only routed for IDs in ADMIN_IDS.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"gebeyahub.et/referral-bot/internal/bot/filters"
	"gebeyahub.et/referral-bot/internal/bot/middleware"
	"gebeyahub.et/referral-bot/internal/config"
	"gebeyahub.et/referral-bot/internal/features/admin"
	"gebeyahub.et/referral-bot/internal/features/sales"
	"gebeyahub.et/referral-bot/internal/features/users"
	"gebeyahub.et/referral-bot/internal/features/withdraw"
)

const helpText = `I track referrals and commissions for package sales.

/start — register and get your invite link
/packages — package prices
/referral — your invite link and balance
/myreferrals — who you invited
/balance — your commission balance
/withdraw — request a payout
/withdraw_all — request your whole balance at once
/cancel — abort an in-progress withdrawal`

// Bot ties the transport to the feature handlers.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	filter      *filters.PrivateFilter
	rateLimiter *middleware.RateLimiter

	userHandler     *users.Handler
	salesHandler    *sales.Handler
	withdrawHandler *withdraw.Handler
	adminHandler    *admin.Handler

	parser *CommandParser

	// caps how many updates are handled in parallel
	inflight chan struct{}
}

// New builds the bot with all its dependencies.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	userHandler *users.Handler,
	salesHandler *sales.Handler,
	withdrawHandler *withdraw.Handler,
	adminHandler *admin.Handler,
) *Bot {
	maxInflight := cfg.BotMaxInflight
	if maxInflight <= 0 {
		maxInflight = 64
	}

	return &Bot{
		api:             api,
		cfg:             cfg,
		filter:          filters.NewPrivateFilter(),
		rateLimiter:     middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		userHandler:     userHandler,
		salesHandler:    salesHandler,
		withdrawHandler: withdrawHandler,
		adminHandler:    adminHandler,
		parser:          NewCommandParser(cfg.BotUsername),
		inflight:        make(chan struct{}, maxInflight),
	}
}

// Start polls Telegram until the context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("bot started, waiting for messages")

	for {
		select {
		case <-ctx.Done():
			log.Info("bot stopping (ctx done)")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("updates channel closed, bot stopped")
				return
			}

			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate processes one Telegram update.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	if update.Message == nil || update.Message.Text == "" {
		return
	}
	message := update.Message

	middleware.LogMessage(message)

	if !b.filter.Allow(message) {
		return
	}

	userID := message.From.ID
	chatID := message.Chat.ID

	if !b.rateLimiter.Allow(userID) {
		log.WithField("user_id", userID).Debug("rate limited")
		return
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if isCommand {
		b.routeCommand(ctx, chatID, message.From, cmd, args)
		return
	}

	// Free text only means something inside an active withdraw dialog.
	if b.withdrawHandler.HandleSessionMessage(ctx, chatID, userID, message.Text) {
		return
	}

	b.sendMessage(chatID, "🤔 I did not get that. Try /help")
}

// routeCommand dispatches a parsed command.
func (b *Bot) routeCommand(ctx context.Context, chatID int64, from *tgbotapi.User, cmd string, args []string) {
	log.WithFields(log.Fields{
		"cmd":     cmd,
		"args":    args,
		"user_id": from.ID,
	}).Debug("routing command")

	userID := from.ID

	switch cmd {
	case "start":
		b.userHandler.HandleStart(ctx, chatID, from, args)
	case "help":
		b.sendMessage(chatID, helpText)
	case "packages":
		b.salesHandler.HandlePackages(chatID)
	case "referral":
		b.userHandler.HandleReferral(ctx, chatID, userID)
	case "myreferrals":
		b.userHandler.HandleMyReferrals(ctx, chatID, userID)
	case "balance":
		b.userHandler.HandleBalance(ctx, chatID, userID)
	case "withdraw":
		b.withdrawHandler.HandleWithdraw(ctx, chatID, userID)
	case "withdraw_all":
		b.withdrawHandler.HandleWithdrawAll(ctx, chatID, userID)
	case "cancel":
		if !b.withdrawHandler.HandleSessionMessage(ctx, chatID, userID, "cancel") {
			b.sendMessage(chatID, "Nothing to cancel")
		}

	case "login":
		b.adminHandler.HandleLogin(ctx, chatID, userID, args)
	case "paid", "confirm", "purchases", "withdrawals", "approve", "reject", "broadcast", "stats", "sales":
		if !b.cfg.IsAdmin(userID) {
			// non-admins see unknown admin commands as any other typo
			b.sendMessage(chatID, "🤔 Unknown command. Try /help")
			return
		}
		b.routeAdminCommand(ctx, chatID, userID, cmd, args)

	default:
		b.sendMessage(chatID, "🤔 Unknown command. Try /help")
	}
}

func (b *Bot) routeAdminCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	switch cmd {
	case "paid":
		b.adminHandler.HandlePaid(ctx, chatID, userID, args)
	case "confirm":
		b.adminHandler.HandleConfirm(ctx, chatID, userID, args)
	case "purchases":
		b.adminHandler.HandlePurchases(ctx, chatID, userID)
	case "withdrawals":
		b.adminHandler.HandleWithdrawals(ctx, chatID, userID)
	case "approve":
		b.adminHandler.HandleApprove(ctx, chatID, userID, args)
	case "reject":
		b.adminHandler.HandleReject(ctx, chatID, userID, args)
	case "broadcast":
		b.adminHandler.HandleBroadcast(ctx, chatID, userID, args)
	case "stats":
		b.adminHandler.HandleStats(ctx, chatID, userID)
	case "sales":
		b.adminHandler.HandleSales(ctx, chatID, userID)
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send message")
	}
}

// SendMessageToUser delivers a message to a user, best effort.
// Used by the scheduled jobs.
func (b *Bot) SendMessageToUser(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("failed to deliver message")
	}
}

// CommandParser splits "/cmd arg arg" into a command and its arguments.
type CommandParser struct {
	botUsername string
}

func NewCommandParser(botUsername string) *CommandParser {
	return &CommandParser{botUsername: botUsername}
}

// ParseCommand returns the lowercase command name, its arguments and
// whether the text was a command at all. A "@botname" suffix on the
// command ("/start@mybot") is stripped.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}

	parts := strings.Fields(strings.TrimPrefix(text, "/"))
	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	if at := strings.Index(command, "@"); at >= 0 {
		if !strings.EqualFold(command[at+1:], p.botUsername) {
			return "", nil, false
		}
		command = command[:at]
	}

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	return command, args, true
}
