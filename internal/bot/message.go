// Package bot implements the message dispatch and session-lifecycle engine:
// the inbound queue and worker pool, command inference, session caching with
// dirty tracking, and the retrying wrapper around outbound messaging calls.
package bot

// Message is a single inbound or outbound chat event. Identifiers are opaque
// transport-assigned strings. The media fields hold transport-specific file
// references, not content.
type Message struct {
	MessageID string
	ChatID    string
	UserID    string

	Text      string
	Image     string
	Audio     string
	Voice     string
	Video     string
	IsForward bool

	ReplyToMessageID string
	ReplyToMessage   *Message

	// Metadata is transient and survives the current dispatch only. It
	// carries parsed callback-button payloads such as
	// {command: "retry", job_id: "42"}. Never persisted.
	Metadata map[string]string
}

// NewMessage finalizes a transport-constructed Message: it allocates the
// metadata map and derives ReplyToMessageID from an inlined reply when the
// transport did not set it. The two must never disagree afterward.
func NewMessage(m Message) *Message {
	if m.Metadata == nil {
		m.Metadata = make(map[string]string)
	}
	if m.ReplyToMessage != nil && m.ReplyToMessageID == "" {
		m.ReplyToMessageID = m.ReplyToMessage.MessageID
	}
	return &m
}

// IsReply reports whether the message references another message.
func (m *Message) IsReply() bool {
	return m.ReplyToMessageID != ""
}

// User describes the sender of a message as reported by the transport.
type User struct {
	Username string
	Phone    string
	FullName string
	Language string
}
