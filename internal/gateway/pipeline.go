// Package gateway routes extracted messages through command handling, access
// gating, admission control and the orchestrator, and delivers the reply.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/telepath-bot/telepath/internal/access"
	"github.com/telepath-bot/telepath/internal/agent"
	"github.com/telepath-bot/telepath/internal/observability"
	"github.com/telepath-bot/telepath/pkg/models"
)

const (
	startReply = "我已經 ready ✅ 你可以直接問我問題。"
	helpReply  = "你可以直接用文字問我問題。我識查天氣、股價同倫敦交通狀況。\n指令：/start /help /whoami"
	busyReply  = "宜家好多人用緊，等一陣再問過啦 🙏"

	// apologyReply goes out whenever the turn fails for any reason, so the
	// user never sees silence after a question.
	apologyReply = "（系統繁忙或 AI 暫時唔得，遲啲再試 🙇）"
)

// Replier produces the assistant reply for one message.
type Replier interface {
	Reply(ctx context.Context, msg models.IncomingMessage) (string, error)
}

// Sender delivers reply text to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Pipeline is the per-message control flow. It holds no conversation state;
// everything it touches is request-scoped except the admission counter.
type Pipeline struct {
	gate      *access.Allowlist
	admission *agent.Admission
	replier   Replier
	sender    Sender
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewPipeline wires the stages together.
func NewPipeline(gate *access.Allowlist, admission *agent.Admission, replier Replier, sender Sender, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		gate:      gate,
		admission: admission,
		replier:   replier,
		sender:    sender,
		logger:    logger.With("component", "pipeline"),
		metrics:   metrics,
	}
}

// Handle processes one extracted message to completion. Failures degrade to
// fixed user-facing strings; nothing here returns an error to the transport.
func (p *Pipeline) Handle(ctx context.Context, msg models.IncomingMessage) {
	text := strings.TrimSpace(msg.Text)

	// Identity lookup works for blocked senders too, so someone can read
	// their own ID off the bot and ask to be added.
	if text == "/whoami" {
		p.send(ctx, msg.ChatID, fmt.Sprintf("你嘅 Telegram ID 係 %d", msg.SenderID))
		return
	}

	if !p.gate.Permits(msg.SenderID) {
		// No reply at all; the gate stays invisible to outsiders.
		p.logger.Info("sender not in allow-list, dropping",
			"sender_id", msg.SenderID, "chat_id", msg.ChatID)
		return
	}

	switch text {
	case "/start":
		p.send(ctx, msg.ChatID, startReply)
		return
	case "/help":
		p.send(ctx, msg.ChatID, helpReply)
		return
	}

	release, err := p.admission.Acquire()
	if err != nil {
		p.metrics.RecordBusy()
		p.logger.Warn("admission rejected", "chat_id", msg.ChatID)
		p.send(ctx, msg.ChatID, busyReply)
		return
	}
	defer release()

	reply, err := p.replier.Reply(ctx, msg)
	if err != nil {
		p.logger.Error("orchestrator failed", "chat_id", msg.ChatID,
			"kind", msg.Kind, "error", err)
		p.send(ctx, msg.ChatID, apologyReply)
		return
	}
	p.send(ctx, msg.ChatID, reply)
}

// send delivers text and logs delivery failures. Sends are never retried.
func (p *Pipeline) send(ctx context.Context, chatID int64, text string) {
	if err := p.sender.Send(ctx, chatID, text); err != nil {
		if !errors.Is(err, context.Canceled) {
			p.logger.Error("reply delivery failed", "chat_id", chatID, "error", err)
		}
	}
}
