package commands

import (
	"context"

	core "github.com/herval/cliobot/internal/bot"
)

type clearCommand struct {
	confirmation string
}

// NewClear returns the command that discards the session context.
func NewClear(confirmation string) core.Command {
	return &clearCommand{confirmation: confirmation}
}

func (c *clearCommand) Spec() core.Spec {
	return core.Spec{
		Command:     "clear",
		Description: "Forget the current conversation context",
		Examples:    []string{"/clear"},
	}
}

func (c *clearCommand) Run(ctx context.Context, _ core.Params, msg *core.Message, session *core.CachedSession, deps *core.Deps) (core.Result, error) {
	session.Clear(false)
	if err := reply(ctx, deps, msg, c.confirmation); err != nil {
		return core.Failed, err
	}
	return core.Handled, nil
}
