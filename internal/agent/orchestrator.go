// Package agent runs the two-round tool-calling conversation: one model call
// with the tool catalog attached, dispatch of any requested tools, and one
// closing model call over the full transcript.
package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/telepath-bot/telepath/internal/observability"
	"github.com/telepath-bot/telepath/internal/tools"
	"github.com/telepath-bot/telepath/pkg/models"
)

// systemPreamble fixes the assistant persona and the policy that live-data
// gaps are explained to the user rather than papered over.
const systemPreamble = "你係一個用廣東話回覆嘅私人 AI 助手。" +
	"你可以用工具攞即時資料（天氣、股價、交通狀況）。" +
	"如果工具攞唔到即時資料，要照直同用戶解釋清楚，唔好靜靜哋轉話題，亦唔好老作數字。"

// EmptyReplyPlaceholder is returned when the model produces no text.
const EmptyReplyPlaceholder = "（AI 暫時無回覆 🙏）"

// ModelGateway is the slice of the llm gateway the orchestrator needs.
type ModelGateway interface {
	Complete(ctx context.Context, msgs []openai.ChatCompletionMessage, catalog []tools.Tool) (openai.ChatCompletionMessage, error)
}

// Orchestrator owns one conversation turn at a time. Conversation state is
// request-scoped; nothing is shared across concurrent invocations.
type Orchestrator struct {
	gateway  ModelGateway
	registry *tools.Registry
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewOrchestrator wires the orchestrator to a model gateway and the tool
// catalog.
func NewOrchestrator(gateway ModelGateway, registry *tools.Registry, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		gateway:  gateway,
		registry: registry,
		logger:   logger.With("component", "agent"),
		metrics:  metrics,
	}
}

// Reply runs the protocol for one user message and returns the reply text.
// Any error aborts the turn; the caller substitutes the apology string, so no
// partial reply is ever sent.
func (o *Orchestrator) Reply(ctx context.Context, msg models.IncomingMessage) (string, error) {
	conversation := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPreamble},
		{Role: openai.ChatMessageRoleUser, Content: msg.Text},
	}

	first, err := o.gateway.Complete(ctx, conversation, o.registry.All())
	if err != nil {
		return "", err
	}

	if len(first.ToolCalls) == 0 {
		return textOrPlaceholder(first.Content), nil
	}

	conversation = append(conversation, first)
	for _, tc := range first.ToolCalls {
		o.metrics.RecordTool(tc.Function.Name)
		content := o.registry.Dispatch(ctx, tc.Function.Name, json.RawMessage(tc.Function.Arguments))
		conversation = append(conversation, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    content,
			ToolCallID: tc.ID,
		})
	}

	// Closing call without the tool catalog: one round of tool use is the
	// design limit, so a repeated tool request is dropped, not re-dispatched.
	second, err := o.gateway.Complete(ctx, conversation, nil)
	if err != nil {
		return "", err
	}
	if len(second.ToolCalls) > 0 {
		o.logger.Warn("model requested tools in closing round, ignoring",
			"count", len(second.ToolCalls))
	}

	return textOrPlaceholder(second.Content), nil
}

func textOrPlaceholder(content string) string {
	if strings.TrimSpace(content) == "" {
		return EmptyReplyPlaceholder
	}
	return content
}
