package commands

import (
	"context"

	core "github.com/herval/cliobot/internal/bot"
)

type shuffleCommand struct {
	registry *core.Registry
}

// NewShuffle returns the command behind the variations callback button on
// generated images. It recovers the original request from the log and asks
// the image command for one fresh sample of the same prompt.
func NewShuffle() (core.Command, func(*core.Registry)) {
	c := &shuffleCommand{}
	return c, func(r *core.Registry) { c.registry = r }
}

func (c *shuffleCommand) Spec() core.Spec {
	return core.Spec{
		Command:     "shuffle",
		Description: "Generate another variation of an image",
		Fields: []core.Field{
			{Name: "job_id", Required: true},
			{Name: "index", Default: "0"},
		},
	}
}

func (c *shuffleCommand) Run(ctx context.Context, params core.Params, msg *core.Message, session *core.CachedSession, deps *core.Deps) (core.Result, error) {
	original, err := deps.Messaging.GetMessage(ctx, params.Get("job_id"))
	if err != nil {
		return core.Failed, err
	}

	cmd, ok := c.registry.Get("imagine")
	if !ok {
		if err := reply(ctx, deps, msg, "I can't make variations of that message."); err != nil {
			return core.Failed, err
		}
		return core.Handled, nil
	}

	originalParams := core.ParseParams(original, &session.Session)
	originalParams["num"] = "1"

	bound, verr := core.BindParams(cmd.Spec(), originalParams)
	if verr != nil {
		if err := reply(ctx, deps, msg, verr.Notice()); err != nil {
			return core.Failed, err
		}
		return core.Handled, nil
	}

	// The original message carries the job id, so the buttons on the new
	// image keep pointing at the request that produced it.
	return cmd.Run(ctx, bound, original, session, deps)
}
