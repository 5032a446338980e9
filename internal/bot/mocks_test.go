package bot

import (
	"context"
	"fmt"
	"sync"
)

// memStore is an in-memory Store with call counters for assertions.
type memStore struct {
	mu        sync.Mutex
	sessions  map[string]SessionState
	logged    []*Message
	writes    int
	failWrite bool
	failLoad  bool
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]SessionState)}
}

func (s *memStore) CreateOrGetSession(_ context.Context, userID string) (SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLoad {
		return SessionState{}, fmt.Errorf("store offline")
	}
	if st, ok := s.sessions[userID]; ok {
		return st, nil
	}
	st := SessionState{
		UserID:      userID,
		Context:     map[string]string{},
		Preferences: map[string]string{},
	}
	s.sessions[userID] = st
	return st, nil
}

func (s *memStore) SetSessionState(_ context.Context, userID string, contextMap, preferences map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite {
		return fmt.Errorf("store offline")
	}
	s.writes++
	s.sessions[userID] = SessionState{UserID: userID, Context: contextMap, Preferences: preferences}
	return nil
}

func (s *memStore) SaveMessageLog(_ context.Context, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logged = append(s.logged, msg)
	return nil
}

func (s *memStore) loggedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logged)
}

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

type sentMessage struct {
	ChatID string
	Text   string
	Opts   *SendOptions
}

// memMessaging records outbound traffic and can serve stored messages.
type memMessaging struct {
	mu       sync.Mutex
	sent     []sentMessage
	messages map[string]*Message
	sendErr  error
}

func newMemMessaging() *memMessaging {
	return &memMessaging{messages: make(map[string]*Message)}
}

func (m *memMessaging) SendMessage(_ context.Context, chatID, text string, opts *SendOptions) (*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: text, Opts: opts})
	return &Message{ChatID: chatID, Text: text}, nil
}

func (m *memMessaging) SendMedia(_ context.Context, chatID string, media Media, text string, opts *SendOptions) (*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: text, Opts: opts})
	return &Message{ChatID: chatID, Text: text}, nil
}

func (m *memMessaging) EditMessage(context.Context, string, string, string, *SendOptions) error {
	return nil
}

func (m *memMessaging) EditMessageMedia(context.Context, string, string, Media, string) error {
	return nil
}

func (m *memMessaging) DeleteMessage(context.Context, string, string) error { return nil }

func (m *memMessaging) GetFile(context.Context, string) (string, []byte, error) {
	return "", nil, nil
}

func (m *memMessaging) GetFileInfo(context.Context, string) (*FileInfo, error) { return nil, nil }

func (m *memMessaging) GetMessage(_ context.Context, messageID string) (*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.messages[messageID]; ok {
		return msg, nil
	}
	return nil, ErrMessageNoLongerExists
}

func (m *memMessaging) sentMessages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// memTelemetry counts events and exceptions.
type memTelemetry struct {
	mu         sync.Mutex
	events     map[string]int
	exceptions []error
}

func newMemTelemetry() *memTelemetry {
	return &memTelemetry{events: make(map[string]int)}
}

func (t *memTelemetry) CaptureException(err error, _ string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exceptions = append(t.exceptions, err)
}

func (t *memTelemetry) SendEvent(name, _ string, _ map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events[name]++
}

func (t *memTelemetry) eventCount(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.events[name]
}

// stubCommand is a configurable command for dispatch tests.
type stubCommand struct {
	spec Spec
	run  func(ctx context.Context, params Params, msg *Message, session *CachedSession, deps *Deps) (Result, error)

	mu    sync.Mutex
	calls int
}

func (c *stubCommand) Spec() Spec { return c.spec }

func (c *stubCommand) Run(ctx context.Context, params Params, msg *Message, session *CachedSession, deps *Deps) (Result, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.run == nil {
		return Handled, nil
	}
	return c.run(ctx, params, msg, session, deps)
}

func (c *stubCommand) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
