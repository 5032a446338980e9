package commands

import (
	"context"

	core "github.com/herval/cliobot/internal/bot"
)

type retryCommand struct {
	registry *core.Registry
}

// NewRetry returns the command behind the retry callback button. It
// replays the message the button was attached to: the original message is
// recovered from the log, re-parsed and re-run through its own command.
func NewRetry() (core.Command, func(*core.Registry)) {
	c := &retryCommand{}
	return c, func(r *core.Registry) { c.registry = r }
}

func (c *retryCommand) Spec() core.Spec {
	return core.Spec{
		Command:     "retry",
		Description: "Run a previous request again",
		Fields: []core.Field{
			{Name: "job_id", Required: true},
		},
	}
}

func (c *retryCommand) Run(ctx context.Context, params core.Params, msg *core.Message, session *core.CachedSession, deps *core.Deps) (core.Result, error) {
	original, err := deps.Messaging.GetMessage(ctx, params.Get("job_id"))
	if err != nil {
		return core.Failed, err
	}

	originalParams := core.ParseParams(original, &session.Session)
	cmd, ok := c.registry.Get(originalParams.Get("command"))
	if !ok {
		if err := reply(ctx, deps, msg, "I can't rerun that message."); err != nil {
			return core.Failed, err
		}
		return core.Handled, nil
	}

	bound, verr := core.BindParams(cmd.Spec(), originalParams)
	if verr != nil {
		if err := reply(ctx, deps, msg, verr.Notice()); err != nil {
			return core.Failed, err
		}
		return core.Handled, nil
	}

	return cmd.Run(ctx, bound, original, session, deps)
}
