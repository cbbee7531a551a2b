// Package sales — handlers.go serves the one user-facing command here,
// /packages. The admin side of sales (record payment, confirm) lives in
// the admin feature.
package sales

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"gebeyahub.et/referral-bot/internal/common"
)

// Handler answers package listing requests.
type Handler struct {
	bot *tgbotapi.BotAPI
}

func NewHandler(bot *tgbotapi.BotAPI) *Handler {
	return &Handler{bot: bot}
}

// HandlePackages shows the fixed price table.
func (h *Handler) HandlePackages(chatID int64) {
	var sb strings.Builder
	sb.WriteString("📦 Available packages:\n\n")
	for _, p := range Packages {
		sb.WriteString(fmt.Sprintf("• %s — %s (referrer earns %s)\n",
			p.Name, common.FormatBirr(p.Price), common.FormatBirr(p.Commission)))
	}
	sb.WriteString("\nAfter paying, contact the administrator to confirm your purchase.")

	msg := tgbotapi.NewMessage(chatID, sb.String())
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send message")
	}
}
