// Package withdraw — handlers.go drives the withdraw dialog:
// /withdraw starts it, then two free-text steps collect amount and payment
// method, then one Create call moves the money. "cancel" works at every
// step and validation failures never advance the state.
package withdraw

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"gebeyahub.et/referral-bot/internal/common"
	"gebeyahub.et/referral-bot/internal/config"
)

// sender is the slice of the Telegram API the dialog needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// balanceReader is the slice of the users service the dialog needs.
type balanceReader interface {
	GetBalance(ctx context.Context, userID int64) (int64, error)
}

// Handler runs the withdraw dialog and the legacy full-balance command.
type Handler struct {
	service  *Service
	balances balanceReader
	store    *SessionStore
	bot      sender
	cfg      *config.Config
}

func NewHandler(service *Service, balances balanceReader, store *SessionStore, bot sender, cfg *config.Config) *Handler {
	return &Handler{
		service:  service,
		balances: balances,
		store:    store,
		bot:      bot,
		cfg:      cfg,
	}
}

// HandleWithdraw starts the dialog. It refuses immediately when the
// balance is below the minimum, so no session is created for users with
// nothing to withdraw.
func (h *Handler) HandleWithdraw(ctx context.Context, chatID int64, userID int64) {
	balance, err := h.balances.GetBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			h.sendMessage(chatID, "❌ You are not registered yet. Send /start first.")
			return
		}
		log.WithError(err).WithField("user_id", userID).Error("failed to read balance")
		h.sendMessage(chatID, "❌ Something went wrong, please try again later")
		return
	}

	if balance < h.service.MinAmount() {
		h.sendMessage(chatID, fmt.Sprintf(
			"❌ You need at least %s to withdraw. Your balance: %s",
			common.FormatBirr(h.service.MinAmount()), common.FormatBirr(balance)))
		return
	}

	h.store.put(userID, &session{state: stateAwaitingAmount})
	h.sendMessage(chatID, fmt.Sprintf(
		"💸 Your balance: %s\nHow much would you like to withdraw? Send an amount (multiple of 100), or \"cancel\".",
		common.FormatBirr(balance)))
}

// HandleWithdrawAll is the legacy entry point: the whole balance at once,
// no payment method, no dialog.
func (h *Handler) HandleWithdrawAll(ctx context.Context, chatID int64, userID int64) {
	req, err := h.service.CreateFullBalance(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUserNotFound):
			h.sendMessage(chatID, "❌ You are not registered yet. Send /start first.")
		case errors.Is(err, common.ErrInsufficientBalance):
			h.sendMessage(chatID, "❌ Your balance is empty, nothing to withdraw")
		default:
			log.WithError(err).WithField("user_id", userID).Error("full-balance withdrawal failed")
			h.sendMessage(chatID, "❌ Failed to create the withdrawal, please try again later")
		}
		return
	}

	h.notifyAdmins(fmt.Sprintf(
		"💸 Withdrawal request #%d\nUser: %d\nAmount: %s (full balance)\n/approve %d or /reject %d <reason>",
		req.ID, req.UserID, common.FormatBirr(req.Amount), req.ID, req.ID))
	h.sendMessage(chatID, fmt.Sprintf(
		"✅ Request #%d filed for %s. You will be notified once it is processed.",
		req.ID, common.FormatBirr(req.Amount)))
}

// HandleSessionMessage consumes a free-text message when the user has an
// active withdraw dialog. Returns false when there is no session, so the
// message falls through to ordinary command handling.
func (h *Handler) HandleSessionMessage(ctx context.Context, chatID int64, userID int64, text string) bool {
	sess := h.store.get(userID)
	if sess == nil {
		return false
	}

	switch sess.state {
	case stateAwaitingAmount:
		h.handleAmountInput(ctx, chatID, userID, sess, text)
	case stateAwaitingMethod:
		h.handleMethodInput(ctx, chatID, userID, sess, text)
	}
	return true
}

func isCancel(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	return text == "cancel" || text == "/cancel"
}

// handleAmountInput — step one. Any validation failure keeps the session
// in the amount state and replies with a corrective message.
func (h *Handler) handleAmountInput(ctx context.Context, chatID int64, userID int64, sess *session, text string) {
	if isCancel(text) {
		h.store.delete(userID)
		h.sendMessage(chatID, "❎ Withdrawal cancelled.")
		return
	}

	amount, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ Send a number, e.g. 200 — or \"cancel\".")
		return
	}

	balance, err := h.balances.GetBalance(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("failed to read balance")
		h.sendMessage(chatID, "❌ Something went wrong, please try again")
		return
	}

	if err := h.service.CheckAmount(amount, balance); err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidAmount):
			h.sendMessage(chatID, "❌ The amount must be a positive multiple of 100. Try again or send \"cancel\".")
		case errors.Is(err, common.ErrInsufficientBalance):
			h.sendMessage(chatID, fmt.Sprintf(
				"❌ You only have %s. Send a smaller amount or \"cancel\".", common.FormatBirr(balance)))
		}
		return
	}

	sess.amount = amount
	sess.state = stateAwaitingMethod
	h.store.put(userID, sess)
	h.sendMessage(chatID, fmt.Sprintf(
		"💳 Withdrawing %s. Choose a payment method:\n1. Telebirr\n2. CBE\n3. Transfer\nSend the number or the name, or \"cancel\".",
		common.FormatBirr(amount)))
}

// handleMethodInput — step two. A recognized method commits the
// withdrawal; anything else keeps the session where it is.
func (h *Handler) handleMethodInput(ctx context.Context, chatID int64, userID int64, sess *session, text string) {
	if isCancel(text) {
		h.store.delete(userID)
		h.sendMessage(chatID, "❎ Withdrawal cancelled.")
		return
	}

	method, ok := ParseMethod(text)
	if !ok {
		h.sendMessage(chatID, "❌ Please pick a payment method: 1 — Telebirr, 2 — CBE, 3 — Transfer. Or send \"cancel\".")
		return
	}

	req, err := h.service.Create(ctx, userID, sess.amount, method)
	if err != nil {
		// Session stays in the method state; the user may retry or cancel.
		switch {
		case errors.Is(err, common.ErrInsufficientBalance):
			h.sendMessage(chatID, "❌ Your balance changed and no longer covers the amount. Send \"cancel\" and start over.")
		case errors.Is(err, common.ErrInvalidAmount):
			h.sendMessage(chatID, "❌ The amount is no longer valid. Send \"cancel\" and start over.")
		default:
			log.WithError(err).WithField("user_id", userID).Error("withdrawal creation failed")
			h.sendMessage(chatID, "❌ Failed to create the withdrawal, please try again")
		}
		return
	}

	h.store.delete(userID)

	h.notifyAdmins(fmt.Sprintf(
		"💸 Withdrawal request #%d\nUser: %d\nAmount: %s\nMethod: %s\n/approve %d or /reject %d <reason>",
		req.ID, req.UserID, common.FormatBirr(req.Amount), method, req.ID, req.ID))

	newBalance, balErr := h.balances.GetBalance(ctx, userID)
	confirmation := fmt.Sprintf(
		"✅ Request #%d filed: %s via %s. You will be notified once it is processed.",
		req.ID, common.FormatBirr(req.Amount), method)
	if balErr == nil {
		confirmation += fmt.Sprintf("\nRemaining balance: %s", common.FormatBirr(newBalance))
	}
	h.sendMessage(chatID, confirmation)
}

// notifyAdmins delivers to every configured admin independently; one
// failure does not stop the rest.
func (h *Handler) notifyAdmins(text string) {
	for _, adminID := range h.cfg.AdminIDs {
		h.sendMessage(adminID, text)
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send message")
	}
}
