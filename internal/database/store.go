package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/herval/cliobot/internal/bot"
)

// Store is the full persistence contract: the engine's session/message-log
// methods (bot.Store) plus asset caching and maintenance used elsewhere.
type Store interface {
	bot.Store

	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetLoggedMessage returns the most recent message-log entry with the
	// given transport message id.
	GetLoggedMessage(ctx context.Context, messageID string) (*bot.Message, error)

	// GetAsset returns the cached storage path for a transport file id, or
	// "" when the file was never downloaded.
	GetAsset(ctx context.Context, fileID, userID, chatID string) (string, error)

	// SaveAsset records where a downloaded transport file is cached.
	SaveAsset(ctx context.Context, fileID, userID, chatID, storagePath string) error

	// RunSQLMaintenance performs maintenance tasks like VACUUM and ANALYZE.
	RunSQLMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateOrGetSession returns the stored session for a user, inserting an
// empty one on first contact.
func (s *sqlxStore) CreateOrGetSession(ctx context.Context, userID string) (bot.SessionState, error) {
	if userID == "" {
		return bot.SessionState{}, errors.New("session requires a non-empty user_id")
	}

	const selectSession = `SELECT id, created_at, updated_at, user_id, context, preferences FROM chat_sessions WHERE user_id = ?`

	var row SessionRow
	err := s.db.GetContext(ctx, &row, selectSession, userID)
	if errors.Is(err, sql.ErrNoRows) {
		// Another worker may be handling this user's first contact at the
		// same time, so the insert tolerates losing the race and the
		// re-select reads whichever row won.
		now := time.Now().UTC()
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO chat_sessions (created_at, updated_at, user_id, context, preferences)
			 VALUES (?, ?, ?, '{}', '{}') ON CONFLICT(user_id) DO NOTHING`,
			now, now, userID)
		if err != nil {
			return bot.SessionState{}, fmt.Errorf("failed to create session for user %s: %w", userID, err)
		}
		err = s.db.GetContext(ctx, &row, selectSession, userID)
	}
	if err != nil {
		return bot.SessionState{}, fmt.Errorf("failed to fetch session for user %s: %w", userID, err)
	}

	contextMap, err := decodeKV(row.Context)
	if err != nil {
		return bot.SessionState{}, fmt.Errorf("corrupt session context for user %s: %w", userID, err)
	}
	preferences, err := decodeKV(row.Preferences)
	if err != nil {
		return bot.SessionState{}, fmt.Errorf("corrupt session preferences for user %s: %w", userID, err)
	}

	return bot.SessionState{
		UserID:      row.UserID,
		Context:     contextMap,
		Preferences: preferences,
	}, nil
}

// SetSessionState writes the session context and preferences for a user.
func (s *sqlxStore) SetSessionState(ctx context.Context, userID string, contextMap, preferences map[string]string) error {
	if userID == "" {
		return errors.New("session requires a non-empty user_id")
	}

	contextJSON, err := encodeKV(contextMap)
	if err != nil {
		return fmt.Errorf("failed to encode session context: %w", err)
	}
	preferencesJSON, err := encodeKV(preferences)
	if err != nil {
		return fmt.Errorf("failed to encode session preferences: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET context = ?, preferences = ?, updated_at = ? WHERE user_id = ?`,
		contextJSON, preferencesJSON, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update session for user %s: %w", userID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Session row vanished between load and persist; recreate it.
		now := time.Now().UTC()
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO chat_sessions (created_at, updated_at, user_id, context, preferences) VALUES (?, ?, ?, ?, ?)`,
			now, now, userID, contextJSON, preferencesJSON)
		if err != nil {
			return fmt.Errorf("failed to recreate session for user %s: %w", userID, err)
		}
	}
	return nil
}

// SaveMessageLog records one inbound message.
func (s *sqlxStore) SaveMessageLog(ctx context.Context, msg *bot.Message) error {
	if msg == nil {
		return errors.New("cannot log nil message")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO message_log (created_at, message_id, chat_id, user_id, text, image, audio, voice, video, is_forward)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC(), msg.MessageID, msg.ChatID, msg.UserID,
		msg.Text, msg.Image, msg.Audio, msg.Voice, msg.Video, msg.IsForward)
	if err != nil {
		return fmt.Errorf("failed to save message log: %w", err)
	}
	return nil
}

// GetLoggedMessage reconstructs a previously logged message.
func (s *sqlxStore) GetLoggedMessage(ctx context.Context, messageID string) (*bot.Message, error) {
	var row MessageLogRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, created_at, message_id, chat_id, user_id, text, image, audio, voice, video, is_forward
		 FROM message_log WHERE message_id = ? ORDER BY id DESC LIMIT 1`, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch logged message %s: %w", messageID, err)
	}

	return bot.NewMessage(bot.Message{
		MessageID: row.MessageID,
		ChatID:    row.ChatID,
		UserID:    row.UserID,
		Text:      row.Text,
		Image:     row.Image,
		Audio:     row.Audio,
		Voice:     row.Voice,
		Video:     row.Video,
		IsForward: row.IsForward,
	}), nil
}

func (s *sqlxStore) GetAsset(ctx context.Context, fileID, userID, chatID string) (string, error) {
	var row AssetRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, created_at, file_id, user_id, chat_id, storage_path FROM assets WHERE file_id = ? AND user_id = ? AND chat_id = ?`,
		fileID, userID, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch asset %s: %w", fileID, err)
	}
	return row.StoragePath, nil
}

func (s *sqlxStore) SaveAsset(ctx context.Context, fileID, userID, chatID, storagePath string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assets (created_at, file_id, user_id, chat_id, storage_path) VALUES (?, ?, ?, ?, ?)`,
		time.Now().UTC(), fileID, userID, chatID, storagePath)
	if err != nil {
		return fmt.Errorf("failed to save asset %s: %w", fileID, err)
	}
	return nil
}

// RunSQLMaintenance vacuums and re-analyzes the database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	startTime := time.Now()

	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("vacuum failed: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "ANALYZE"); err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	s.logger.InfoContext(ctx, "SQL maintenance completed", "duration", time.Since(startTime))
	return nil
}

func decodeKV(raw string) (map[string]string, error) {
	if raw == "" {
		return map[string]string{}, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

func encodeKV(m map[string]string) (string, error) {
	if m == nil {
		m = map[string]string{}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
