package core

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// MessageSource is the narrow surface this service consumes from the chat
// platform. All calls are remote and best-effort; callers log failures and
// move on instead of retrying.
type MessageSource interface {
	// RecentMessages fetches up to limit messages from a channel, newest
	// first. A non-empty before fetches the page preceding that message ID.
	RecentMessages(ctx context.Context, channelID string, limit int, before string) ([]Message, error)

	SendMessage(ctx context.Context, channelID, content string) (Message, error)
	EditMessage(ctx context.Context, channelID, messageID, content string) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error

	// CreateThread opens a thread in the given channel and returns its
	// channel ID.
	CreateThread(ctx context.Context, channelID, name string) (string, error)

	TimeoutMember(ctx context.Context, guildID, userID string, d time.Duration) error
}

type ActionRepository interface {
	Insert(ctx context.Context, actions ...ModerationActionModel) error
}

type DB interface {
	Model(a any) *gorm.DB
	DB() (*sql.DB, error)
}
