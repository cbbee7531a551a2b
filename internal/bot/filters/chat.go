// Package filters decides which updates the bot handles at all.
// This bot works in direct messages only: group chats and channel posts
// are dropped before any routing happens.
package filters

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

type PrivateFilter struct{}

func NewPrivateFilter() *PrivateFilter {
	return &PrivateFilter{}
}

// Allow reports whether the message should be processed.
func (f *PrivateFilter) Allow(message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil {
		log.WithField("component", "PrivateFilter").Warn("nil message/chat")
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "PrivateFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Warn("nil message.From (service/channel message?)")
		return false
	}
	if message.From.IsBot {
		return false
	}
	if !message.Chat.IsPrivate() {
		log.WithFields(log.Fields{
			"component": "PrivateFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Debug("drop: not a private chat")
		return false
	}
	return true
}
