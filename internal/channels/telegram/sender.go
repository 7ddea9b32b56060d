// Package telegram adapts the assistant to Telegram: webhook ingestion on the
// way in, Bot API sends on the way out.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/telepath-bot/telepath/internal/observability"
)

// ErrNotConfigured reports a missing Bot API credential. The process keeps
// running; only the send operation fails.
var ErrNotConfigured = errors.New("telegram sender not configured")

// Sender delivers replies through the Bot API. Sends are attempted once and
// never retried; a failed delivery is logged and dropped.
type Sender struct {
	bot     *bot.Bot
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewSender wraps a Bot API client. A nil client is tolerated and surfaces as
// ErrNotConfigured on the first send, so a missing credential degrades the
// send path instead of aborting startup.
func NewSender(b *bot.Bot, logger *slog.Logger, metrics *observability.Metrics) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		bot:     b,
		logger:  logger.With("component", "telegram"),
		metrics: metrics,
	}
}

// Send posts text to a chat with link previews disabled.
func (s *Sender) Send(ctx context.Context, chatID int64, text string) error {
	if s.bot == nil {
		s.metrics.RecordReply(false)
		s.logger.Error("send failed", "chat_id", chatID, "error", ErrNotConfigured)
		return fmt.Errorf("%w: missing bot token", ErrNotConfigured)
	}
	_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
		LinkPreviewOptions: &tgmodels.LinkPreviewOptions{
			IsDisabled: bot.True(),
		},
	})
	if err != nil {
		s.metrics.RecordReply(false)
		s.logger.Error("send failed", "chat_id", chatID, "error", err)
		return fmt.Errorf("send message: %w", err)
	}
	s.metrics.RecordReply(true)
	return nil
}
