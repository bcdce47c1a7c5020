package core

import "time"

// Gateway event operations.
const (
	OpMessageCreate = "message.create"
	OpMessageUpdate = "message.update"
	OpMessageDelete = "message.delete"
)

// Message is a single chat message as seen on the transport.
type Message struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	GuildID   string    `json:"guild_id,omitempty"`
	AuthorID  string    `json:"author_id"`
	AuthorBot bool      `json:"author_bot,omitempty"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// ReferenceID is set when the message is a reply.
	ReferenceID string   `json:"reference_id,omitempty"`
	Mentions    []string `json:"mentions,omitempty"`
}

// MessageEvent is a gateway event republished to JetStream by the gateway
// command. Seq is the gateway sequence number, used as the resume cursor.
type MessageEvent struct {
	Op  string `json:"op"`
	Seq int64  `json:"seq"`

	Message Message `json:"message"`
}
