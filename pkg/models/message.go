// Package models contains the shared types that flow between the webhook
// ingestion layer, the pipeline, and the conversation orchestrator.
package models

// MessageKind identifies which update field a message was extracted from.
type MessageKind string

const (
	KindDirect            MessageKind = "direct"
	KindEdited            MessageKind = "edited"
	KindChannelPost       MessageKind = "channel_post"
	KindEditedChannelPost MessageKind = "edited_channel_post"
)

// IncomingMessage is one chat message lifted out of a webhook update.
// It is constructed per webhook call, owned by a single pipeline invocation,
// and discarded after processing.
type IncomingMessage struct {
	// SenderID is the numeric identity of the sender. Zero when the update
	// carries no sender (channel posts).
	SenderID int64

	// ChatID is the chat the reply must be delivered to.
	ChatID int64

	// Text is the message text. Non-text content is not supported.
	Text string

	Kind MessageKind
}
