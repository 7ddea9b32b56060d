// Package tools declares the callable tools the model may request and the
// registry that dispatches them. The registry is the single catalog shared by
// the model gateway (tool declarations) and the dispatcher (execution), so the
// two can never diverge.
package tools

import (
	"context"
	"encoding/json"
)

// Tool is a named, schema-described function the model can ask to run.
type Tool interface {
	// Name returns the tool name used in function calling.
	// Must be a valid function name (alphanumeric, underscores).
	Name() string

	// Description tells the model what the tool does and when to use it.
	Description() string

	// Schema returns the JSON Schema for the tool's arguments.
	Schema() json.RawMessage

	// Execute runs the tool with arguments matching Schema. Data-layer
	// failures are reported inside the Result as explanatory text, not as
	// errors; an error return is reserved for programming mistakes.
	Execute(ctx context.Context, params json.RawMessage) (*Result, error)
}

// Result is the outcome of one tool execution. Content is always
// human-readable text suitable for feeding back to the model.
type Result struct {
	Content string
	IsError bool
}

// TextResult wraps plain text in a Result.
func TextResult(content string) *Result {
	return &Result{Content: content}
}

// ErrorResult wraps an apologetic/explanatory failure text in a Result.
// The conversation continues; the model sees the text and can respond.
func ErrorResult(content string) *Result {
	return &Result{Content: content, IsError: true}
}
