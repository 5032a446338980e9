// Package commands holds the built-in command set registered with the
// dispatcher. Each command is a stateless handler; anything it needs
// beyond the shared dispatch collaborators is injected through its
// constructor.
package commands

import (
	"context"
	"strings"

	core "github.com/herval/cliobot/internal/bot"
)

// promptFor returns the effective prompt of a request: the bound "prompt"
// parameter when present, otherwise the raw message text. The raw text
// path covers follow-up messages sent after a command armed the session.
func promptFor(params core.Params, msg *core.Message) string {
	if p := params.Get("prompt"); p != "" {
		return p
	}
	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "/") {
		return ""
	}
	return text
}

// reply sends text as a threaded reply to msg.
func reply(ctx context.Context, deps *core.Deps, msg *core.Message, text string) error {
	_, err := deps.Messaging.SendMessage(ctx, msg.ChatID, text, &core.SendOptions{
		ReplyToMessageID: msg.MessageID,
	})
	return err
}
