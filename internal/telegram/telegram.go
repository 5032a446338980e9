// Package telegram adapts the Telegram Bot API to the engine's messaging
// contract: it converts native updates into engine messages, enqueues them
// for dispatch, and classifies transport failures into the engine's closed
// error taxonomy.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	core "github.com/herval/cliobot/internal/bot"
	"github.com/herval/cliobot/internal/database"
)

// Adapter implements core.MessagingService over the Telegram Bot API and
// feeds inbound updates into the dispatcher.
type Adapter struct {
	b       *tgbot.Bot
	store   database.Store
	enqueue func(*core.Message)
	logger  *slog.Logger
}

// New connects to the Telegram Bot API. pollTimeout bounds the long-poll
// getUpdates call; enqueue receives every converted inbound message; the
// store backs GetMessage lookups since the Bot API has no call to fetch an
// arbitrary message.
func New(token string, pollTimeout time.Duration, store database.Store, enqueue func(*core.Message), logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.Default()
	}

	a := &Adapter{
		store:   store,
		enqueue: enqueue,
		logger:  logger.With("component", "telegram"),
	}

	b, err := tgbot.New(token, clientOptions(a, pollTimeout)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	a.b = b

	return a, nil
}

// clientOptions assembles the bot client options. A zero poll timeout keeps
// the library default.
func clientOptions(a *Adapter, pollTimeout time.Duration) []tgbot.Option {
	opts := []tgbot.Option{tgbot.WithDefaultHandler(a.handleUpdate)}
	if pollTimeout > 0 {
		opts = append(opts, tgbot.WithHTTPClient(pollTimeout, pollClient(pollTimeout)))
	}
	return opts
}

// pollClient builds the HTTP client with headroom over the poll timeout so
// the transport does not cut off a still-open poll.
func pollClient(pollTimeout time.Duration) *http.Client {
	return &http.Client{Timeout: pollTimeout + 10*time.Second}
}

// Start begins long polling and blocks until the context is cancelled.
func (a *Adapter) Start(ctx context.Context) {
	a.logger.Info("Starting Telegram listener")
	a.b.Start(ctx)
	a.logger.Info("Telegram listener stopped")
}

// Me returns the authenticated bot account.
func (a *Adapter) Me(ctx context.Context) (*models.User, error) {
	return a.b.GetMe(ctx)
}

// handleUpdate converts a native update into an engine message and enqueues
// it. Callback queries become messages whose metadata carries the parsed
// button payload, so the resolver's metadata rule picks them up.
func (a *Adapter) handleUpdate(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	switch {
	case update.Message != nil:
		a.enqueue(convertMessage(update.Message))

	case update.CallbackQuery != nil:
		cq := update.CallbackQuery

		if _, err := b.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{CallbackQueryID: cq.ID}); err != nil {
			a.logger.WarnContext(ctx, "Failed to answer callback query", "error", err)
		}

		metadata := ParseCallbackData(cq.Data)
		if len(metadata) == 0 {
			a.logger.WarnContext(ctx, "Ignoring unrecognized callback payload", "data", cq.Data)
			return
		}

		msg := core.Message{
			UserID:   strconv.FormatInt(cq.From.ID, 10),
			Metadata: metadata,
		}
		if cq.Message.Message != nil {
			msg.MessageID = strconv.Itoa(cq.Message.Message.ID)
			msg.ChatID = strconv.FormatInt(cq.Message.Message.Chat.ID, 10)
		} else if cq.Message.InaccessibleMessage != nil {
			msg.ChatID = strconv.FormatInt(cq.Message.InaccessibleMessage.Chat.ID, 10)
		}
		a.enqueue(core.NewMessage(msg))
	}
}

// ParseCallbackData parses an "op:arg:..." callback-button payload into
// message metadata. Unknown operations yield an empty map.
func ParseCallbackData(data string) map[string]string {
	parts := splitCallback(data)
	if len(parts) == 0 {
		return map[string]string{}
	}

	op, rest := parts[0], parts[1:]
	switch op {
	case "retry", "reroll_job", "upvote", "downvote":
		if len(rest) > 0 {
			return map[string]string{"command": op, "job_id": rest[0]}
		}
	case "select", "shuffle":
		if len(rest) > 1 {
			return map[string]string{"command": op, "job_id": rest[0], "index": rest[1]}
		}
	}
	return map[string]string{}
}

func splitCallback(data string) []string {
	if data == "" {
		return nil
	}
	var parts []string
	start := 0
	for i := 0; i < len(data); i++ {
		if data[i] == ':' {
			parts = append(parts, data[start:i])
			start = i + 1
		}
	}
	return append(parts, data[start:])
}

// convertMessage maps a native Telegram message onto the engine's Message.
func convertMessage(m *models.Message) *core.Message {
	msg := core.Message{
		MessageID: strconv.Itoa(m.ID),
		ChatID:    strconv.FormatInt(m.Chat.ID, 10),
		Text:      m.Text,
		IsForward: m.ForwardOrigin != nil,
	}
	if m.From != nil {
		msg.UserID = strconv.FormatInt(m.From.ID, 10)
	}
	if msg.Text == "" {
		msg.Text = m.Caption
	}
	if len(m.Photo) > 0 {
		// Telegram sends several sizes; the last one is the largest.
		msg.Image = m.Photo[len(m.Photo)-1].FileID
	}
	if m.Audio != nil {
		msg.Audio = m.Audio.FileID
	}
	if m.Voice != nil {
		msg.Voice = m.Voice.FileID
	}
	if m.Video != nil {
		msg.Video = m.Video.FileID
	}
	if m.ReplyToMessage != nil {
		msg.ReplyToMessage = convertMessage(m.ReplyToMessage)
	}
	return core.NewMessage(msg)
}

// SendMessage delivers a text message.
func (a *Adapter) SendMessage(ctx context.Context, chatID, text string, opts *core.SendOptions) (*core.Message, error) {
	params := &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	applyOptions(params, opts)

	sent, err := a.b.SendMessage(ctx, params)
	if err != nil {
		return nil, classify(err)
	}
	return convertMessage(sent), nil
}

// SendMedia delivers a photo or document.
func (a *Adapter) SendMedia(ctx context.Context, chatID string, media core.Media, text string, opts *core.SendOptions) (*core.Message, error) {
	var (
		sent *models.Message
		err  error
	)

	switch {
	case media.Image != "":
		params := &tgbot.SendPhotoParams{
			ChatID:  chatID,
			Photo:   &models.InputFileString{Data: media.Image},
			Caption: text,
		}
		if opts != nil {
			params.ReplyParameters = replyParams(opts.ReplyToMessageID)
			params.ReplyMarkup = buttonMarkup(opts.Buttons)
		}
		sent, err = a.b.SendPhoto(ctx, params)

	case media.Attachment != "":
		params := &tgbot.SendDocumentParams{
			ChatID:   chatID,
			Document: &models.InputFileString{Data: media.Attachment},
			Caption:  text,
		}
		if opts != nil {
			params.ReplyParameters = replyParams(opts.ReplyToMessageID)
			params.ReplyMarkup = buttonMarkup(opts.Buttons)
		}
		sent, err = a.b.SendDocument(ctx, params)

	default:
		return nil, fmt.Errorf("media has neither image nor attachment")
	}

	if err != nil {
		return nil, classify(err)
	}
	return convertMessage(sent), nil
}

// EditMessage replaces the text of a previously sent message.
func (a *Adapter) EditMessage(ctx context.Context, chatID, messageID, text string, opts *core.SendOptions) error {
	id, err := strconv.Atoi(messageID)
	if err != nil {
		return fmt.Errorf("invalid message id %q: %w", messageID, err)
	}

	params := &tgbot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: id,
		Text:      text,
	}
	if opts != nil {
		params.ReplyMarkup = buttonMarkup(opts.Buttons)
	}

	_, err = a.b.EditMessageText(ctx, params)
	return classify(err)
}

// EditMessageMedia replaces the media of a previously sent message.
func (a *Adapter) EditMessageMedia(ctx context.Context, chatID, messageID string, media core.Media, text string) error {
	id, err := strconv.Atoi(messageID)
	if err != nil {
		return fmt.Errorf("invalid message id %q: %w", messageID, err)
	}

	var input models.InputMedia
	switch {
	case media.Image != "":
		input = &models.InputMediaPhoto{Media: media.Image, Caption: text}
	case media.Attachment != "":
		input = &models.InputMediaDocument{Media: media.Attachment, Caption: text}
	default:
		return fmt.Errorf("media has neither image nor attachment")
	}

	_, err = a.b.EditMessageMedia(ctx, &tgbot.EditMessageMediaParams{
		ChatID:    chatID,
		MessageID: id,
		Media:     input,
	})
	return classify(err)
}

// DeleteMessage removes a previously sent message.
func (a *Adapter) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	id, err := strconv.Atoi(messageID)
	if err != nil {
		return fmt.Errorf("invalid message id %q: %w", messageID, err)
	}

	_, err = a.b.DeleteMessage(ctx, &tgbot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: id,
	})
	return classify(err)
}

// GetFile downloads a file by transport id, returning its remote path and
// contents.
func (a *Adapter) GetFile(ctx context.Context, fileID string) (string, []byte, error) {
	file, err := a.b.GetFile(ctx, &tgbot.GetFileParams{FileID: fileID})
	if err != nil {
		return "", nil, classify(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.b.FileDownloadLink(file), nil)
	if err != nil {
		return "", nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", core.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("file download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", core.ErrTransient, err)
	}
	return file.FilePath, data, nil
}

// GetFileInfo fetches file metadata without downloading the content.
func (a *Adapter) GetFileInfo(ctx context.Context, fileID string) (*core.FileInfo, error) {
	file, err := a.b.GetFile(ctx, &tgbot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, classify(err)
	}
	return &core.FileInfo{
		FileID: file.FileID,
		Path:   file.FilePath,
		Size:   file.FileSize,
	}, nil
}

// GetMessage resolves a previously seen message from the message log. The
// Bot API offers no way to fetch an arbitrary message, so the durable log is
// the source of truth here.
func (a *Adapter) GetMessage(ctx context.Context, messageID string) (*core.Message, error) {
	msg, err := a.store.GetLoggedMessage(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("%w: message %s", core.ErrMessageNoLongerExists, messageID)
	}
	return msg, nil
}

func applyOptions(params *tgbot.SendMessageParams, opts *core.SendOptions) {
	if opts == nil {
		return
	}
	params.ReplyParameters = replyParams(opts.ReplyToMessageID)
	params.ReplyMarkup = buttonMarkup(opts.Buttons)
}

func replyParams(messageID string) *models.ReplyParameters {
	if messageID == "" {
		return nil
	}
	id, err := strconv.Atoi(messageID)
	if err != nil {
		return nil
	}
	return &models.ReplyParameters{MessageID: id}
}

func buttonMarkup(rows [][]core.Button) models.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	keyboard := make([][]models.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		line := make([]models.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			line = append(line, models.InlineKeyboardButton{
				Text:         btn.Text,
				URL:          btn.URL,
				CallbackData: btn.CallbackData,
			})
		}
		keyboard = append(keyboard, line)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}
