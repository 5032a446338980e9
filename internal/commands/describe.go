package commands

import (
	"context"

	"github.com/herval/cliobot/internal/ai"
	core "github.com/herval/cliobot/internal/bot"
	"github.com/herval/cliobot/internal/database"
)

type describeCommand struct {
	backend ai.Backend
	assets  *assetCache
}

// NewDescribe returns the reply-only command that narrates the image in
// the replied-to message.
func NewDescribe(backend ai.Backend, store database.Store, assetDir string) core.Command {
	return &describeCommand{backend: backend, assets: newAssetCache(store, assetDir)}
}

func (c *describeCommand) Spec() core.Spec {
	return core.Spec{
		Command:     "describe",
		Description: "Describe the image you replied to",
		Examples:    []string{"/describe (as a reply to a photo)"},
		ReplyOnly:   true,
	}
}

func (c *describeCommand) Run(ctx context.Context, params core.Params, msg *core.Message, _ *core.CachedSession, deps *core.Deps) (core.Result, error) {
	imageID := msg.Image
	if imageID == "" && msg.ReplyToMessage != nil {
		imageID = msg.ReplyToMessage.Image
	}
	if imageID == "" {
		if err := reply(ctx, deps, msg, "Reply to a photo to have it described."); err != nil {
			return core.Failed, err
		}
		return core.Handled, nil
	}

	data, err := c.assets.fetch(ctx, deps.Messaging, imageID, msg.UserID, msg.ChatID)
	if err != nil {
		return core.Failed, err
	}

	prompt := promptFor(params, msg)
	if prompt == "" {
		prompt = "Describe this image in detail."
	}

	res, err := c.backend.Generate(ctx, ai.Request{
		Kind:   ai.KindText,
		Prompt: prompt,
		Image:  data,
	})
	if err != nil {
		return core.Failed, err
	}
	if len(res.Texts) == 0 {
		if err := reply(ctx, deps, msg, "I couldn't describe that image."); err != nil {
			return core.Failed, err
		}
		return core.Handled, nil
	}

	if err := reply(ctx, deps, msg, res.Texts[0]); err != nil {
		return core.Failed, err
	}
	return core.Handled, nil
}
