package bot

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// fallbackModalities is the priority order used to pick a fallback command
// when no explicit command resolves.
var fallbackModalities = []string{"audio", "video", "voice", "image", "text"}

// DispatcherConfig tunes the worker pool and its fallback behavior.
type DispatcherConfig struct {
	// Workers is the number of dispatch workers. Defaults to GOMAXPROCS.
	Workers int
	// QueueSize is the inbound queue capacity. Defaults to 128.
	QueueSize int
	// Fallbacks maps a message modality (audio, video, voice, image, text)
	// to the command token invoked when resolution finds nothing.
	Fallbacks map[string]string
	// FailureNotice is the generic apology shown when a command fails.
	FailureNotice string
}

// Dispatcher owns the shared inbound queue and the pool of workers draining
// it. Each worker handles exactly one message end to end before dequeuing
// the next; the only state crossing worker boundaries is the queue itself
// and the store. Two messages for the same chat may be handled concurrently
// by different workers; session persistence is last-write-wins.
type Dispatcher struct {
	logger     *slog.Logger
	cfg        DispatcherConfig
	registry   *Registry
	store      Store
	messaging  MessagingService
	telemetry  Telemetry
	translator Translator
	deps       *Deps

	queue     chan *Message
	closeOnce sync.Once
}

// NewDispatcher builds a dispatcher. messaging should already be wrapped by
// NewResilientMessaging; translator may be nil.
func NewDispatcher(
	logger *slog.Logger,
	cfg DispatcherConfig,
	registry *Registry,
	store Store,
	messaging MessagingService,
	telemetry Telemetry,
	translator Translator,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 128
	}
	if cfg.FailureNotice == "" {
		cfg.FailureNotice = "Something went wrong, sorry about that."
	}

	return &Dispatcher{
		logger:     logger.With("component", "dispatcher"),
		cfg:        cfg,
		registry:   registry,
		store:      store,
		messaging:  messaging,
		telemetry:  telemetry,
		translator: translator,
		deps: &Deps{
			Logger:    logger,
			Messaging: messaging,
			Store:     store,
			Telemetry: telemetry,
		},
		queue: make(chan *Message, cfg.QueueSize),
	}
}

// Enqueue places an inbound message on the shared queue, blocking when the
// queue is full. Safe for concurrent use by the transport adapter.
func (d *Dispatcher) Enqueue(msg *Message) {
	d.queue <- msg
}

// Close stops intake and lets workers drain what is already queued. Run
// returns once the queue is empty.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.queue) })
}

// Run starts the worker pool and blocks until the context is cancelled or
// the queue is closed and drained. Shutdown is cooperative: a worker busy
// with a message finishes it before exiting.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("Starting dispatch workers", "workers", d.cfg.Workers, "queue_size", d.cfg.QueueSize)

	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < d.cfg.Workers; i++ {
		id := i
		g.Go(func() error {
			d.worker(gCtx, id)
			return nil
		})
	}

	err := g.Wait()
	d.logger.Info("Dispatch workers stopped")
	return err
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	log := d.logger.With("worker", id)
	log.Debug("Worker started")

	for {
		select {
		case <-ctx.Done():
			log.Debug("Worker stopping", "reason", ctx.Err())
			return
		case msg, ok := <-d.queue:
			if !ok {
				log.Debug("Worker stopping", "reason", "queue closed")
				return
			}
			// The current message always runs to completion; cancellation
			// takes effect at the next dequeue.
			d.handle(context.WithoutCancel(ctx), log, msg)
		}
	}
}

// handle processes one inbound message end to end: load session, log the
// message, fetch the reply body, translate, resolve, execute, persist.
func (d *Dispatcher) handle(ctx context.Context, log *slog.Logger, msg *Message) {
	log = log.With("chat_id", msg.ChatID, "user_id", msg.UserID, "message_id", msg.MessageID)

	session, err := LoadSession(ctx, d.store, msg.UserID, msg.ChatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load session", "error", err)
		d.telemetry.CaptureException(err, msg.UserID)
		return
	}

	// Best effort; a failed log write never aborts the turn.
	if err := d.store.SaveMessageLog(ctx, msg); err != nil {
		log.WarnContext(ctx, "Failed to record message log", "error", err)
		d.telemetry.CaptureException(err, session.UserID)
	}

	if msg.IsReply() && msg.ReplyToMessage == nil {
		reply, err := d.messaging.GetMessage(ctx, msg.ReplyToMessageID)
		if err != nil {
			log.WarnContext(ctx, "Failed to load replied-to message", "error", err, "reply_to", msg.ReplyToMessageID)
			d.telemetry.CaptureException(err, session.UserID)
		} else {
			msg.ReplyToMessage = reply
		}
	}

	if d.translator != nil && msg.Text != "" {
		if translated, err := d.translator.Translate(ctx, msg.Text); err != nil {
			log.WarnContext(ctx, "Translation failed, keeping original text", "error", err)
		} else if translated != "" {
			msg.Text = translated
		}
	}

	cmd := Resolve(msg, &session.Session, d.registry)
	if cmd != nil {
		d.telemetry.SendEvent("user_command", session.UserID, map[string]string{
			"command": cmd.Spec().Command,
			"chat_id": msg.ChatID,
		})
		d.exec(ctx, log, cmd, msg, session)
		return
	}

	d.telemetry.SendEvent("user_message", session.UserID, map[string]string{
		"chat_id": msg.ChatID,
	})

	if fallback := d.fallback(msg); fallback != nil {
		// Rewrite the input so the fallback command parses it as its own
		// invocation, e.g. "hello" becomes "/ask hello".
		msg.Text = strings.TrimSpace("/" + fallback.Spec().Command + " " + msg.Text)
		d.exec(ctx, log, fallback, msg, session)
	}
}

// fallback picks the configured fallback command for the message's modality,
// checking audio, video, voice, image, then text. Returns nil when nothing
// is configured for any modality the message carries.
func (d *Dispatcher) fallback(msg *Message) Command {
	modality := map[string]string{
		"audio": msg.Audio,
		"video": msg.Video,
		"voice": msg.Voice,
		"image": msg.Image,
		"text":  msg.Text,
	}
	for _, m := range fallbackModalities {
		if modality[m] == "" {
			continue
		}
		token, ok := d.cfg.Fallbacks[m]
		if !ok {
			continue
		}
		if cmd, ok := d.registry.Get(token); ok {
			return cmd
		}
	}
	return nil
}

// exec parses, validates, and runs a command. The session is persisted no
// matter how execution ends; persistence failures are captured independently
// and the in-memory state is not rolled back.
func (d *Dispatcher) exec(ctx context.Context, log *slog.Logger, cmd Command, msg *Message, session *CachedSession) {
	defer func() {
		if err := session.Persist(ctx, d.store); err != nil {
			log.ErrorContext(ctx, "Failed to persist session", "error", err)
			d.telemetry.CaptureException(err, session.UserID)
		}
	}()

	spec := cmd.Spec()
	log = log.With("command", spec.Command)

	parsed, verr := BindParams(spec, ParseParams(msg, &session.Session))
	if verr != nil {
		log.InfoContext(ctx, "Command input failed validation", "fields", len(verr.Fields))
		d.notify(ctx, log, msg, verr.Notice())
		return
	}

	result, err := cmd.Run(ctx, parsed, msg, session, d.deps)
	if err != nil {
		log.ErrorContext(ctx, "Command failed", "error", err)
		d.telemetry.CaptureException(err, session.UserID)
		d.notify(ctx, log, msg, d.cfg.FailureNotice)
		return
	}

	switch result {
	case Handled:
		session.Clear(false)
	case NeedsMoreInput:
		// Context stays armed for the next message.
	case Failed:
		log.WarnContext(ctx, "Command reported failure without error")
		d.notify(ctx, log, msg, d.cfg.FailureNotice)
	}
}

func (d *Dispatcher) notify(ctx context.Context, log *slog.Logger, msg *Message, text string) {
	_, err := d.messaging.SendMessage(ctx, msg.ChatID, text, &SendOptions{ReplyToMessageID: msg.MessageID})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send notice", "error", err)
	}
}
