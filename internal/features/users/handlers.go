// Package users — handlers.go answers the user-facing commands:
// /start (registration), /referral, /myreferrals, /balance.
package users

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"gebeyahub.et/referral-bot/internal/common"
	"gebeyahub.et/referral-bot/internal/config"
)

// Handler serves the user commands.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
	cfg     *config.Config
}

func NewHandler(service *Service, bot *tgbotapi.BotAPI, cfg *config.Config) *Handler {
	return &Handler{service: service, bot: bot, cfg: cfg}
}

// HandleStart registers the user (idempotently) and greets them.
// args may carry a referral code from a t.me deep link. When a new user
// arrives through a link, the referrer gets a best-effort notification.
func (h *Handler) HandleStart(ctx context.Context, chatID int64, from *tgbotapi.User, args []string) {
	referralCode := ""
	if len(args) > 0 {
		referralCode = strings.TrimSpace(args[0])
	}

	user, referrer, created, err := h.service.Register(ctx,
		from.ID, from.UserName, from.FirstName, from.LastName, referralCode)
	if err != nil {
		log.WithError(err).WithField("user_id", from.ID).Error("registration failed")
		h.sendMessage(chatID, "❌ Registration failed, please try again later")
		return
	}

	link := common.ReferralLink(h.cfg.BotUsername, user.ReferralCode)
	if created {
		h.sendMessage(chatID, fmt.Sprintf(
			"👋 Welcome, %s!\n\nYour referral code: %s\nYour invite link: %s\n\nShare the link — you earn a commission every time someone you invited buys a package. See /packages and /help.",
			from.FirstName, user.ReferralCode, link))
	} else {
		h.sendMessage(chatID, fmt.Sprintf(
			"👋 Welcome back, %s!\nYour invite link: %s",
			from.FirstName, link))
	}

	// Best effort: a failed notification must not affect the registration.
	if created && referrer != nil {
		h.sendMessage(referrer.UserID, fmt.Sprintf(
			"🎉 %s just joined with your invite link!", user.DisplayName()))
	}
}

// HandleReferral shows the user's own code, link and referral count.
func (h *Handler) HandleReferral(ctx context.Context, chatID int64, userID int64) {
	user, err := h.service.GetByUserID(ctx, userID)
	if err != nil {
		h.sendMessage(chatID, "❌ You are not registered yet. Send /start first.")
		return
	}

	referrals, err := h.service.ListReferrals(ctx, user)
	if err != nil {
		log.WithError(err).Error("failed to list referrals")
		h.sendMessage(chatID, "❌ Failed to load your referrals")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"🔗 Your referral code: %s\nInvite link: %s\nPeople invited: %d\nBalance: %s",
		user.ReferralCode,
		common.ReferralLink(h.cfg.BotUsername, user.ReferralCode),
		len(referrals),
		common.FormatBirr(user.Balance)))
}

// HandleMyReferrals lists everyone the user has invited, with the package
// each of them currently holds.
func (h *Handler) HandleMyReferrals(ctx context.Context, chatID int64, userID int64) {
	user, err := h.service.GetByUserID(ctx, userID)
	if err != nil {
		h.sendMessage(chatID, "❌ You are not registered yet. Send /start first.")
		return
	}

	referrals, err := h.service.ListReferrals(ctx, user)
	if err != nil {
		log.WithError(err).Error("failed to list referrals")
		h.sendMessage(chatID, "❌ Failed to load your referrals")
		return
	}
	if len(referrals) == 0 {
		h.sendMessage(chatID, "📋 Nobody has joined with your link yet. Share it: "+
			common.ReferralLink(h.cfg.BotUsername, user.ReferralCode))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Your referrals (%d):\n\n", len(referrals)))
	for i, ref := range referrals {
		pkg := "no package yet"
		if ref.Package != nil {
			pkg = *ref.Package
		}
		sb.WriteString(fmt.Sprintf("%d. %s — %s\n", i+1, ref.DisplayName(), pkg))
	}
	h.sendMessage(chatID, sb.String())
}

// HandleBalance shows the current commission balance.
func (h *Handler) HandleBalance(ctx context.Context, chatID int64, userID int64) {
	balance, err := h.service.GetBalance(ctx, userID)
	if err != nil {
		h.sendMessage(chatID, "❌ You are not registered yet. Send /start first.")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf(
		"💰 Balance: %s\nUse /withdraw to request a payout (minimum %s).",
		common.FormatBirr(balance), common.FormatBirr(h.cfg.WithdrawMinAmount)))
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send message")
	}
}
