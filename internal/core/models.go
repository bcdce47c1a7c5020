package core

import "time"

// Audit actions.
const (
	ActionDelete        = "delete"
	ActionReport        = "report"
	ActionTimeout       = "timeout"
	ActionSweepEvict    = "sweep_evict"
	ActionRemovalReport = "removal_report"
	ActionCircumvention = "circumvention"
)

// AuditRecord is published to the audit subject for every moderation action.
type AuditRecord struct {
	Action    string    `json:"action"`
	ChannelID string    `json:"channel_id"`
	MessageID string    `json:"message_id"`
	AuthorID  string    `json:"author_id"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}

// ModerationActionModel is the persisted form of an AuditRecord.
type ModerationActionModel struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	Action    string
	ChannelID string
	MessageID string
	AuthorID  string
	Detail    string
	At        time.Time
}

func (ModerationActionModel) TableName() string {
	return "moderation_actions"
}
