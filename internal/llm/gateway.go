// Package llm is the model gateway: it sends a conversation (plus tool
// declarations) to an OpenAI-compatible chat completion endpoint, iterating
// over a prioritized endpoint list until one succeeds.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/telepath-bot/telepath/internal/observability"
	"github.com/telepath-bot/telepath/internal/tools"
)

// DefaultTimeout bounds a single endpoint attempt. Tool-calling round-trips
// are slower than ordinary data fetches, so this is deliberately longer than
// the general HTTP default.
const DefaultTimeout = 25 * time.Second

// ErrUnavailable reports that every configured endpoint failed. The wrapped
// error is the last underlying failure.
var ErrUnavailable = errors.New("all model endpoints unavailable")

// ErrNotConfigured reports a missing model-gateway credential or endpoint
// list. The operation fails fast rather than sending malformed requests.
var ErrNotConfigured = errors.New("model gateway not configured")

// Config configures the gateway.
type Config struct {
	// APIKey authenticates against every endpoint.
	APIKey string

	// Endpoints is the prioritized list of OpenAI-compatible base URLs
	// (e.g. "https://sfo1.aihub.zeabur.ai/v1"). Priority is list order.
	Endpoints []string

	// Model is the model identifier sent with every request.
	Model string

	// Timeout bounds one endpoint attempt. Defaults to DefaultTimeout.
	Timeout time.Duration
}

type endpoint struct {
	url    string
	client *openai.Client
}

// Gateway talks to a prioritized list of model endpoints.
type Gateway struct {
	endpoints []endpoint
	model     string
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewGateway builds one client per configured endpoint. An empty credential
// or endpoint list is tolerated here and surfaces as ErrNotConfigured on the
// first call, matching the delayed-configuration behavior of the send path.
func NewGateway(cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger.With("component", "llm"),
		metrics: metrics,
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	if cfg.APIKey == "" {
		return g
	}
	for _, u := range cfg.Endpoints {
		c := openai.DefaultConfig(cfg.APIKey)
		c.BaseURL = u
		g.endpoints = append(g.endpoints, endpoint{url: u, client: openai.NewClientWithConfig(c)})
	}
	return g
}

// Complete sends the conversation to the endpoints in priority order and
// returns the first assistant message. Each endpoint is tried at most once
// per call; any failure (timeout, transport, HTTP status, malformed body)
// advances to the next. When catalog is non-empty the tools are declared with
// tool_choice auto, so the returned message may carry tool calls instead of
// text.
func (g *Gateway) Complete(ctx context.Context, msgs []openai.ChatCompletionMessage, catalog []tools.Tool) (openai.ChatCompletionMessage, error) {
	if len(g.endpoints) == 0 {
		return openai.ChatCompletionMessage{}, fmt.Errorf("%w: missing credential or endpoint list", ErrNotConfigured)
	}

	req := openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: msgs,
	}
	if len(catalog) > 0 {
		req.Tools = convertTools(catalog)
		req.ToolChoice = "auto"
	}

	var lastErr error
	for _, ep := range g.endpoints {
		msg, err := g.tryEndpoint(ctx, ep, req)
		if err == nil {
			g.metrics.RecordModelCall(ep.url, true)
			return msg, nil
		}
		g.metrics.RecordModelCall(ep.url, false)
		g.logger.Warn("model endpoint failed, trying next", "endpoint", ep.url, "error", err)
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	return openai.ChatCompletionMessage{}, fmt.Errorf("%w: %w", ErrUnavailable, lastErr)
}

func (g *Gateway) tryEndpoint(ctx context.Context, ep endpoint, req openai.ChatCompletionRequest) (openai.ChatCompletionMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := ep.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return openai.ChatCompletionMessage{}, err
	}
	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, errors.New("response contained no choices")
	}
	return resp.Choices[0].Message, nil
}

// convertTools maps the registry catalog to the wire tool format.
func convertTools(catalog []tools.Tool) []openai.Tool {
	out := make([]openai.Tool, len(catalog))
	for i, t := range catalog {
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Schema(),
			},
		}
	}
	return out
}
