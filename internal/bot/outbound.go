package bot

import (
	"context"
	"log/slog"

	"github.com/herval/cliobot/internal/resilience"
)

// resilientMessaging decorates a MessagingService with bounded retries on
// transient failures. Classification already happened inside the adapter;
// this layer only decides whether to try again.
//
// Sends are retried even though they are not idempotent: a transport timeout
// does not guarantee the call failed, so duplicate delivery after a
// retry-on-timeout is an accepted risk and is not de-duplicated here.
type resilientMessaging struct {
	inner  MessagingService
	cfg    resilience.RetryConfig
	logger *slog.Logger
}

// NewResilientMessaging wraps a transport adapter with the retry policy used
// for every outbound call. Non-transient classifications (blocked user,
// vanished message, not-modifiable, unknown) surface immediately.
func NewResilientMessaging(inner MessagingService, cfg resilience.RetryConfig, logger *slog.Logger) MessagingService {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.ShouldRetry = IsTransient
	return &resilientMessaging{
		inner:  inner,
		cfg:    cfg,
		logger: logger.With("component", "outbound"),
	}
}

func (r *resilientMessaging) SendMessage(ctx context.Context, chatID, text string, opts *SendOptions) (*Message, error) {
	var sent *Message
	err := resilience.WithRetry(ctx, r.cfg, func(ctx context.Context) error {
		var err error
		sent, err = r.inner.SendMessage(ctx, chatID, text, opts)
		return err
	})
	return sent, err
}

func (r *resilientMessaging) SendMedia(ctx context.Context, chatID string, media Media, text string, opts *SendOptions) (*Message, error) {
	var sent *Message
	err := resilience.WithRetry(ctx, r.cfg, func(ctx context.Context) error {
		var err error
		sent, err = r.inner.SendMedia(ctx, chatID, media, text, opts)
		return err
	})
	return sent, err
}

func (r *resilientMessaging) EditMessage(ctx context.Context, chatID, messageID, text string, opts *SendOptions) error {
	return resilience.WithRetry(ctx, r.cfg, func(ctx context.Context) error {
		return r.inner.EditMessage(ctx, chatID, messageID, text, opts)
	})
}

func (r *resilientMessaging) EditMessageMedia(ctx context.Context, chatID, messageID string, media Media, text string) error {
	return resilience.WithRetry(ctx, r.cfg, func(ctx context.Context) error {
		return r.inner.EditMessageMedia(ctx, chatID, messageID, media, text)
	})
}

func (r *resilientMessaging) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	return resilience.WithRetry(ctx, r.cfg, func(ctx context.Context) error {
		return r.inner.DeleteMessage(ctx, chatID, messageID)
	})
}

func (r *resilientMessaging) GetFile(ctx context.Context, fileID string) (string, []byte, error) {
	var (
		path string
		data []byte
	)
	err := resilience.WithRetry(ctx, r.cfg, func(ctx context.Context) error {
		var err error
		path, data, err = r.inner.GetFile(ctx, fileID)
		return err
	})
	return path, data, err
}

func (r *resilientMessaging) GetFileInfo(ctx context.Context, fileID string) (*FileInfo, error) {
	var info *FileInfo
	err := resilience.WithRetry(ctx, r.cfg, func(ctx context.Context) error {
		var err error
		info, err = r.inner.GetFileInfo(ctx, fileID)
		return err
	})
	return info, err
}

func (r *resilientMessaging) GetMessage(ctx context.Context, messageID string) (*Message, error) {
	var msg *Message
	err := resilience.WithRetry(ctx, r.cfg, func(ctx context.Context) error {
		var err error
		msg, err = r.inner.GetMessage(ctx, messageID)
		return err
	})
	return msg, err
}
