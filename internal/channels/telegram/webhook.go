package telegram

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telepath-bot/telepath/internal/observability"
	"github.com/telepath-bot/telepath/pkg/models"
)

// maxUpdateBytes caps how much of an update payload is read (1 MiB), matching
// the bound on every other inbound byte path.
const maxUpdateBytes = 1 << 20

// Pipeline consumes extracted messages. Implementations own gating, admission
// and reply delivery.
type Pipeline interface {
	Handle(ctx context.Context, msg models.IncomingMessage)
}

// Webhook receives Bot API updates over HTTP. Every update is acknowledged
// with 200 before any processing happens, so Telegram never redelivers an
// update because the assistant was slow.
type Webhook struct {
	pipeline Pipeline
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewWebhook creates the update handler.
func NewWebhook(pipeline Pipeline, logger *slog.Logger, metrics *observability.Metrics) *Webhook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Webhook{
		pipeline: pipeline,
		logger:   logger.With("component", "webhook"),
		metrics:  metrics,
	}
}

// ServeHTTP implements http.Handler.
func (w *Webhook) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var update tgmodels.Update
	if err := json.NewDecoder(http.MaxBytesReader(rw, r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		w.logger.Warn("unreadable update payload", "error", err)
		rw.WriteHeader(http.StatusOK)
		return
	}

	// Acknowledge before processing. The reply goes out through the Bot API
	// send path, not through this response.
	rw.WriteHeader(http.StatusOK)

	msg, ok := extract(&update)
	w.metrics.RecordUpdate(kindLabel(msg.Kind, ok))
	if !ok {
		return
	}

	correlationID := uuid.NewString()
	w.logger.Info("update accepted",
		"correlation_id", correlationID,
		"kind", kindLabel(msg.Kind, true),
		"chat_id", msg.ChatID,
		"sender_id", msg.SenderID)

	// The webhook response is already written, so processing runs detached
	// from the request context.
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				w.logger.Error("pipeline panic", "correlation_id", correlationID, "panic", rec)
			}
		}()
		w.pipeline.Handle(context.Background(), msg)
	}()
}

// extract pulls the first populated message variant out of an update, in
// fixed priority order. Updates without a chat ID or without text are
// unusable and reported as not ok.
func extract(update *tgmodels.Update) (models.IncomingMessage, bool) {
	var (
		m    *tgmodels.Message
		kind models.MessageKind
	)
	switch {
	case update.Message != nil:
		m, kind = update.Message, models.KindDirect
	case update.EditedMessage != nil:
		m, kind = update.EditedMessage, models.KindEdited
	case update.ChannelPost != nil:
		m, kind = update.ChannelPost, models.KindChannelPost
	case update.EditedChannelPost != nil:
		m, kind = update.EditedChannelPost, models.KindEditedChannelPost
	default:
		return models.IncomingMessage{}, false
	}

	msg := models.IncomingMessage{
		ChatID: m.Chat.ID,
		Text:   m.Text,
		Kind:   kind,
	}
	if m.From != nil {
		msg.SenderID = m.From.ID
	}
	if msg.ChatID == 0 || msg.Text == "" {
		return models.IncomingMessage{}, false
	}
	return msg, true
}

func kindLabel(kind models.MessageKind, ok bool) string {
	if !ok {
		return "unsupported"
	}
	switch kind {
	case models.KindDirect:
		return "direct"
	case models.KindEdited:
		return "edited"
	case models.KindChannelPost:
		return "channel_post"
	case models.KindEditedChannelPost:
		return "edited_channel_post"
	default:
		return "unsupported"
	}
}

// NewMux wires the webhook, a health probe and the metrics endpoint onto one
// HTTP mux.
func NewMux(webhookPath string, webhook *Webhook) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(webhookPath, webhook)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(rw, r)
			return
		}
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("OK"))
	})
	return mux
}
