package database

import "time"

// SessionRow is the persisted form of a conversation session. Context and
// preferences are stored as JSON objects of string values.
type SessionRow struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	UserID      string `db:"user_id"`
	Context     string `db:"context"`
	Preferences string `db:"preferences"`
}

// MessageLogRow records one inbound message for the durable message log.
// Media columns hold opaque transport file references.
type MessageLogRow struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	MessageID string `db:"message_id"`
	ChatID    string `db:"chat_id"`
	UserID    string `db:"user_id"`
	Text      string `db:"text"`
	Image     string `db:"image"`
	Audio     string `db:"audio"`
	Voice     string `db:"voice"`
	Video     string `db:"video"`
	IsForward bool   `db:"is_forward"`
}

// AssetRow maps a transport file id to its locally cached copy so repeated
// downloads of the same file are avoided.
type AssetRow struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	FileID      string `db:"file_id"`
	UserID      string `db:"user_id"`
	ChatID      string `db:"chat_id"`
	StoragePath string `db:"storage_path"`
}
