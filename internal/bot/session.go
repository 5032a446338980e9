package bot

import (
	"context"
	"fmt"
)

// SessionState is the persisted shape of a session as returned by the store.
type SessionState struct {
	UserID      string
	Context     map[string]string
	Preferences map[string]string
}

// Store is the persistence contract the engine requires. Implementations live
// outside this package (see internal/database).
type Store interface {
	// CreateOrGetSession returns the stored session for a user, creating an
	// empty one on first contact.
	CreateOrGetSession(ctx context.Context, userID string) (SessionState, error)

	// SetSessionState writes the session context and preferences for a user.
	SetSessionState(ctx context.Context, userID string, contextMap, preferences map[string]string) error

	// SaveMessageLog records an inbound message. Best-effort: callers treat
	// failures as non-fatal.
	SaveMessageLog(ctx context.Context, msg *Message) error
}

// Session is the mutable state attached to one conversation.
//
// Context is the short-term memory of the bot: it survives across messages
// until a command fully handles a turn. Preferences are the long-term,
// user-scoped memory: they survive context clears and persist until
// explicitly unset. A key may exist in both; lookups consult context first.
type Session struct {
	UserID      string
	ChatID      string
	Context     map[string]string
	Preferences map[string]string
}

// Get returns the value for key, consulting context first and preferences
// second. Returns "" when the key is absent from both.
func (s *Session) Get(key string) string {
	if v, ok := s.Context[key]; ok && v != "" {
		return v
	}
	return s.Preferences[key]
}

// Set stores a short-term context value.
func (s *Session) Set(key, value string) {
	s.Context[key] = value
}

// SetPreference stores a long-term preference value.
func (s *Session) SetPreference(key, value string) {
	s.Preferences[key] = value
}

// Pop removes and returns a context value, or "" if absent.
func (s *Session) Pop(key string) string {
	v, ok := s.Context[key]
	if !ok {
		return ""
	}
	delete(s.Context, key)
	return v
}

// Clear discards all context entries. Preferences are untouched.
func (s *Session) Clear(clearUser bool) {
	_ = clearUser
	s.Context = make(map[string]string)
}

// CachedSession decorates a Session with a dirty flag so persistence happens
// at most once per dispatch and only when something actually changed.
type CachedSession struct {
	Session
	dirty bool
}

// LoadSession fetches or creates the session for a (user, chat) pair and
// binds the store-resolved user identity when the transport did not provide
// one.
func LoadSession(ctx context.Context, store Store, userID, chatID string) (*CachedSession, error) {
	state, err := store.CreateOrGetSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load session for user %s: %w", userID, err)
	}

	boundID := userID
	if boundID == "" {
		boundID = state.UserID
	}

	sctx := state.Context
	if sctx == nil {
		sctx = make(map[string]string)
	}
	prefs := state.Preferences
	if prefs == nil {
		prefs = make(map[string]string)
	}

	return &CachedSession{
		Session: Session{
			UserID:      boundID,
			ChatID:      chatID,
			Context:     sctx,
			Preferences: prefs,
		},
	}, nil
}

// Dirty reports whether any mutation happened since load or the last persist.
func (s *CachedSession) Dirty() bool {
	return s.dirty
}

// Set marks the session dirty when the value actually changes.
func (s *CachedSession) Set(key, value string) {
	if s.Context[key] != value {
		s.dirty = true
	}
	s.Session.Set(key, value)
}

// SetPreference marks the session dirty when the value actually changes.
func (s *CachedSession) SetPreference(key, value string) {
	if s.Preferences[key] != value {
		s.dirty = true
	}
	s.Session.SetPreference(key, value)
}

// Pop marks the session dirty only when the key existed.
func (s *CachedSession) Pop(key string) string {
	if _, ok := s.Context[key]; ok {
		s.dirty = true
	}
	return s.Session.Pop(key)
}

// Clear marks the session dirty only when there was context to discard.
func (s *CachedSession) Clear(clearUser bool) {
	if len(s.Context) > 0 {
		s.dirty = true
	}
	s.Session.Clear(clearUser)
}

// Persist writes the session through to the store when dirty, then resets
// the flag. Calling it again without further mutation is a no-op.
func (s *CachedSession) Persist(ctx context.Context, store Store) error {
	if !s.dirty {
		return nil
	}
	if err := store.SetSessionState(ctx, s.UserID, s.Context, s.Preferences); err != nil {
		return fmt.Errorf("persist session for user %s: %w", s.UserID, err)
	}
	s.dirty = false
	return nil
}
