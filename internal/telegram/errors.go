package telegram

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	tgbot "github.com/go-telegram/bot"

	core "github.com/herval/cliobot/internal/bot"
)

// classify maps a Telegram API failure into the engine's error taxonomy.
// Anything it cannot place propagates unchanged so callers can still
// inspect the native error.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout(),
		errors.Is(err, tgbot.ErrorTooManyRequests):
		return fmt.Errorf("%w: %w", core.ErrTransient, err)

	case errors.Is(err, tgbot.ErrorForbidden):
		if containsAny(err, "blocked") {
			return fmt.Errorf("%w: %w", core.ErrUserBlocked, err)
		}
		return err

	case errors.Is(err, tgbot.ErrorBadRequest):
		switch {
		case containsAny(err, "message to delete not found", "message to edit not found"):
			return fmt.Errorf("%w: %w", core.ErrMessageNoLongerExists, err)
		case containsAny(err, "there is no media in the message", "message can't be edited", "replied message not found"):
			return fmt.Errorf("%w: %w", core.ErrMessageNotModifiable, err)
		case containsAny(err, "message is not modified"):
			// The edit was a no-op; harmless, safe to retry or ignore.
			return fmt.Errorf("%w: %w", core.ErrTransient, err)
		}
		return err
	}

	return err
}

func containsAny(err error, fragments ...string) bool {
	msg := strings.ToLower(err.Error())
	for _, f := range fragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}
