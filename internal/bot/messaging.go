package bot

import "context"

// Media references a file to send or substitute into a message: either an
// image or a generic attachment, by transport file id, URL, or local path.
type Media struct {
	Image      string
	Attachment string
	Filename   string
}

// Button is one inline keyboard entry attached to an outbound message.
type Button struct {
	Text         string
	URL          string
	CallbackData string
}

// SendOptions carries the optional knobs of an outbound send or edit.
type SendOptions struct {
	ReplyToMessageID string
	Buttons          [][]Button
}

// FileInfo is transport metadata for a stored file.
type FileInfo struct {
	FileID string
	Path   string
	Size   int64
}

// MessagingService is the transport contract the engine talks to. Transport
// adapters implement it (see internal/telegram); the engine only ever uses
// it through the retrying wrapper returned by NewResilientMessaging, which
// owns error classification and bounded retries.
type MessagingService interface {
	SendMessage(ctx context.Context, chatID, text string, opts *SendOptions) (*Message, error)
	SendMedia(ctx context.Context, chatID string, media Media, text string, opts *SendOptions) (*Message, error)
	EditMessage(ctx context.Context, chatID, messageID, text string, opts *SendOptions) error
	EditMessageMedia(ctx context.Context, chatID, messageID string, media Media, text string) error
	DeleteMessage(ctx context.Context, chatID, messageID string) error
	GetFile(ctx context.Context, fileID string) (string, []byte, error)
	GetFileInfo(ctx context.Context, fileID string) (*FileInfo, error)
	GetMessage(ctx context.Context, messageID string) (*Message, error)
}

// Telemetry receives exceptions and usage events. Both calls are
// fire-and-forget: implementations must never let a telemetry failure
// propagate back into dispatch.
type Telemetry interface {
	CaptureException(err error, userID string)
	SendEvent(name, userID string, params map[string]string)
}

// Translator optionally rewrites inbound text before command resolution.
// A nil Translator disables translation.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}
