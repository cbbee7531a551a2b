// Package admin — handlers.go serves the admin commands:
// /login, /paid, /confirm, /purchases, /withdrawals, /approve, /reject,
// /broadcast, /stats, /sales. The bot routes these here only for user IDs
// in ADMIN_IDS; every command except /login additionally requires a live
// password session.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"gebeyahub.et/referral-bot/internal/common"
	"gebeyahub.et/referral-bot/internal/features/sales"
	"gebeyahub.et/referral-bot/internal/features/users"
	"gebeyahub.et/referral-bot/internal/features/withdraw"
)

// Handler wires the admin commands to the ledger services.
type Handler struct {
	service         *Service
	userService     *users.Service
	salesService    *sales.Service
	withdrawService *withdraw.Service
	bot             *tgbotapi.BotAPI
}

func NewHandler(service *Service, userService *users.Service, salesService *sales.Service, withdrawService *withdraw.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service:         service,
		userService:     userService,
		salesService:    salesService,
		withdrawService: withdrawService,
		bot:             bot,
	}
}

// HandleLogin — /login <password>.
func (h *Handler) HandleLogin(ctx context.Context, chatID int64, userID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(chatID, "Usage: /login <password>")
		return
	}

	err := h.service.Login(ctx, userID, strings.Join(args, " "))
	switch {
	case err == nil:
		h.sendMessage(chatID, "✅ Logged in for 24 hours.\n\nCommands:\n"+
			"/paid <user_id> <package> [note] — record a seen payment\n"+
			"/confirm <user_id> <package> — confirm a purchase\n"+
			"/purchases — pending purchases\n"+
			"/withdrawals — pending withdrawal requests\n"+
			"/approve <id> [note] — approve a withdrawal\n"+
			"/reject <id> <reason> — reject a withdrawal\n"+
			"/broadcast <text> — message every user\n"+
			"/stats, /sales — reports")
	case errors.Is(err, common.ErrNotAdmin):
		// silently ignore strangers probing the panel
	case errors.Is(err, common.ErrTooManyAttempts):
		h.sendMessage(chatID, "❌ Too many attempts, try again in an hour")
	case errors.Is(err, common.ErrWrongPassword):
		h.sendMessage(chatID, "❌ Wrong password")
	default:
		log.WithError(err).Error("login failed")
		h.sendMessage(chatID, "❌ Login failed, try again later")
	}
}

// requireAuth sends the login prompt and returns false when the admin has
// no live session.
func (h *Handler) requireAuth(ctx context.Context, chatID int64, userID int64) bool {
	if h.service.IsAuthenticated(ctx, userID) {
		return true
	}
	h.sendMessage(chatID, "🔐 Send /login <password> first")
	return false
}

// HandlePaid — /paid <user_id> <package> [note...].
func (h *Handler) HandlePaid(ctx context.Context, chatID int64, adminID int64, args []string) {
	if !h.requireAuth(ctx, chatID, adminID) {
		return
	}
	if len(args) < 2 {
		h.sendMessage(chatID, "Usage: /paid <user_id> <package> [note]")
		return
	}
	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ user_id must be a number")
		return
	}
	note := strings.Join(args[2:], " ")

	pending, err := h.salesService.AddPending(ctx, targetID, args[1], note)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUserNotFound):
			h.sendMessage(chatID, "❌ No registered user with that ID")
		case errors.Is(err, common.ErrInvalidPackage):
			h.sendMessage(chatID, "❌ Unknown package. Choose Basic, Premium or VIP")
		default:
			log.WithError(err).Error("failed to record pending purchase")
			h.sendMessage(chatID, "❌ Failed to record the payment")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Payment recorded: #%d, user %d, %s", pending.ID, pending.UserID, pending.Package))
	// best-effort heads-up to the buyer
	h.sendMessage(targetID, fmt.Sprintf(
		"🧾 We received your payment for the %s package. You will be notified once it is confirmed.", pending.Package))
}

// HandleConfirm — /confirm <user_id> <package>. Sets the buyer's package
// and credits the referrer's commission when it applies.
func (h *Handler) HandleConfirm(ctx context.Context, chatID int64, adminID int64, args []string) {
	if !h.requireAuth(ctx, chatID, adminID) {
		return
	}
	if len(args) < 2 {
		h.sendMessage(chatID, "Usage: /confirm <user_id> <package>")
		return
	}
	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ user_id must be a number")
		return
	}

	result, err := h.salesService.ConfirmPurchase(ctx, targetID, args[1])
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUserNotFound):
			h.sendMessage(chatID, "❌ No registered user with that ID")
		case errors.Is(err, common.ErrInvalidPackage):
			h.sendMessage(chatID, "❌ Unknown package. Choose Basic, Premium or VIP")
		default:
			log.WithError(err).Error("failed to confirm purchase")
			h.sendMessage(chatID, "❌ Failed to confirm the purchase")
		}
		return
	}

	summary := fmt.Sprintf("✅ Confirmed: user %d now holds %s", result.UserID, result.Package)
	if result.ReferrerID != nil {
		summary += fmt.Sprintf("; referrer %d credited %s", *result.ReferrerID, common.FormatBirr(result.Commission))
	}
	h.sendMessage(chatID, summary)

	// best-effort notifications; the confirmation is already committed
	h.sendMessage(result.UserID, fmt.Sprintf("🎉 Your %s package is confirmed. Thank you!", result.Package))
	if result.ReferrerID != nil {
		h.sendMessage(*result.ReferrerID, fmt.Sprintf(
			"💰 You earned %s commission — someone you referred bought the %s package.\nYour balance: %s",
			common.FormatBirr(result.Commission), result.Package, common.FormatBirr(result.ReferrerBalance)))
	}
}

// HandlePurchases — /purchases lists the pending purchases.
func (h *Handler) HandlePurchases(ctx context.Context, chatID int64, adminID int64) {
	if !h.requireAuth(ctx, chatID, adminID) {
		return
	}
	pending, err := h.salesService.ListPending(ctx)
	if err != nil {
		log.WithError(err).Error("failed to list pending purchases")
		h.sendMessage(chatID, "❌ Failed to load pending purchases")
		return
	}
	if len(pending) == 0 {
		h.sendMessage(chatID, "📋 No pending purchases")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Pending purchases (%d):\n\n", len(pending)))
	for _, p := range pending {
		sb.WriteString(fmt.Sprintf("#%d | user %d | %s | %s",
			p.ID, p.UserID, p.Package, common.FormatDateTime(p.CreatedAt)))
		if p.Note != "" {
			sb.WriteString(" | " + p.Note)
		}
		sb.WriteString("\n")
	}
	h.sendMessage(chatID, sb.String())
}

// HandleWithdrawals — /withdrawals lists the pending requests.
func (h *Handler) HandleWithdrawals(ctx context.Context, chatID int64, adminID int64) {
	if !h.requireAuth(ctx, chatID, adminID) {
		return
	}
	pending, err := h.withdrawService.ListPending(ctx)
	if err != nil {
		log.WithError(err).Error("failed to list pending withdrawals")
		h.sendMessage(chatID, "❌ Failed to load pending withdrawals")
		return
	}
	if len(pending) == 0 {
		h.sendMessage(chatID, "📋 No pending withdrawal requests")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Pending withdrawals (%d):\n\n", len(pending)))
	for _, req := range pending {
		sb.WriteString(fmt.Sprintf("#%d | user %d | %s | %s | %s\n",
			req.ID, req.UserID, common.FormatBirr(req.Amount), req.MethodName(),
			common.FormatDateTime(req.CreatedAt)))
	}
	sb.WriteString("\n/approve <id> or /reject <id> <reason>")
	h.sendMessage(chatID, sb.String())
}

// HandleApprove — /approve <id> [note...]. The reserved money was already
// taken at request time, so nothing moves here.
func (h *Handler) HandleApprove(ctx context.Context, chatID int64, adminID int64, args []string) {
	if !h.requireAuth(ctx, chatID, adminID) {
		return
	}
	if len(args) < 1 {
		h.sendMessage(chatID, "Usage: /approve <id> [note]")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ Request id must be a number")
		return
	}

	req, err := h.withdrawService.Approve(ctx, id, strings.Join(args[1:], " "))
	if err != nil {
		h.sendResolveError(chatID, err)
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Request #%d approved (%s to user %d)",
		req.ID, common.FormatBirr(req.Amount), req.UserID))
	h.sendMessage(req.UserID, fmt.Sprintf(
		"✅ Your withdrawal #%d for %s was approved and is on its way via %s.",
		req.ID, common.FormatBirr(req.Amount), req.MethodName()))
}

// HandleReject — /reject <id> <reason...>. Returns the reserved amount to
// the user's balance.
func (h *Handler) HandleReject(ctx context.Context, chatID int64, adminID int64, args []string) {
	if !h.requireAuth(ctx, chatID, adminID) {
		return
	}
	if len(args) < 2 {
		h.sendMessage(chatID, "Usage: /reject <id> <reason>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ Request id must be a number")
		return
	}
	reason := strings.Join(args[1:], " ")

	req, err := h.withdrawService.Reject(ctx, id, reason)
	if err != nil {
		h.sendResolveError(chatID, err)
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Request #%d rejected, %s returned to user %d",
		req.ID, common.FormatBirr(req.Amount), req.UserID))
	h.sendMessage(req.UserID, fmt.Sprintf(
		"❌ Your withdrawal #%d was rejected: %s\n%s has been returned to your balance.",
		req.ID, reason, common.FormatBirr(req.Amount)))
}

func (h *Handler) sendResolveError(chatID int64, err error) {
	switch {
	case errors.Is(err, common.ErrRequestNotFound):
		h.sendMessage(chatID, "❌ No withdrawal request with that id")
	case errors.Is(err, common.ErrRequestNotPending):
		h.sendMessage(chatID, "❌ That request was already resolved")
	default:
		log.WithError(err).Error("failed to resolve withdrawal")
		h.sendMessage(chatID, "❌ Failed to update the request")
	}
}

// HandleBroadcast — /broadcast <text>. Sends to every user independently;
// the reported number counts attempts, not confirmed deliveries.
func (h *Handler) HandleBroadcast(ctx context.Context, chatID int64, adminID int64, args []string) {
	if !h.requireAuth(ctx, chatID, adminID) {
		return
	}
	if len(args) < 1 {
		h.sendMessage(chatID, "Usage: /broadcast <text>")
		return
	}
	text := strings.Join(args, " ")

	ids, err := h.userService.AllUserIDs(ctx)
	if err != nil {
		log.WithError(err).Error("failed to list users for broadcast")
		h.sendMessage(chatID, "❌ Failed to load the user list")
		return
	}

	attempted := 0
	for _, id := range ids {
		msg := tgbotapi.NewMessage(id, "📢 "+text)
		if _, err := h.bot.Send(msg); err != nil {
			log.WithError(err).WithField("user_id", id).Debug("broadcast delivery failed")
		}
		attempted++
	}

	log.WithFields(log.Fields{"admin_id": adminID, "attempted": attempted}).Info("broadcast sent")
	h.sendMessage(chatID, fmt.Sprintf("📢 Broadcast attempted to %d users", attempted))
}

// HandleStats — /stats.
func (h *Handler) HandleStats(ctx context.Context, chatID int64, adminID int64) {
	if !h.requireAuth(ctx, chatID, adminID) {
		return
	}
	stats, err := h.service.GetStats(ctx)
	if err != nil {
		log.WithError(err).Error("failed to load stats")
		h.sendMessage(chatID, "❌ Failed to load stats")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"📊 Stats\nUsers: %d\nPending purchases: %d\nPending withdrawals: %d\nPaid out (approved): %s",
		stats.TotalUsers, stats.PendingPurchases, stats.PendingWithdrawals,
		common.FormatBirr(stats.ApprovedPayoutTotal)))
}

// HandleSales — /sales, per-package holder counts.
func (h *Handler) HandleSales(ctx context.Context, chatID int64, adminID int64) {
	if !h.requireAuth(ctx, chatID, adminID) {
		return
	}
	counts, err := h.service.GetPackageCounts(ctx)
	if err != nil {
		log.WithError(err).Error("failed to load sales report")
		h.sendMessage(chatID, "❌ Failed to load the sales report")
		return
	}
	if len(counts) == 0 {
		h.sendMessage(chatID, "📈 No confirmed packages yet")
		return
	}

	var sb strings.Builder
	sb.WriteString("📈 Confirmed packages:\n\n")
	for _, pc := range counts {
		sb.WriteString(fmt.Sprintf("• %s: %d\n", pc.Package, pc.Count))
	}
	h.sendMessage(chatID, sb.String())
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send message")
	}
}
