package commands

import (
	"context"

	"github.com/herval/cliobot/internal/ai"
	core "github.com/herval/cliobot/internal/bot"
	"github.com/herval/cliobot/internal/database"
)

type askCommand struct {
	backend       ai.Backend
	assets        *assetCache
	providePrompt string
}

// NewAsk returns the free-form question command. When the triggering
// message or its reply carries an image, the image is attached to the
// model request.
func NewAsk(backend ai.Backend, store database.Store, assetDir, providePrompt string) core.Command {
	return &askCommand{
		backend:       backend,
		assets:        newAssetCache(store, assetDir),
		providePrompt: providePrompt,
	}
}

func (c *askCommand) Spec() core.Spec {
	return core.Spec{
		Command:     "ask",
		Description: "Ask the model anything",
		Examples:    []string{"/ask what is the tallest mountain?"},
	}
}

func (c *askCommand) Run(ctx context.Context, params core.Params, msg *core.Message, session *core.CachedSession, deps *core.Deps) (core.Result, error) {
	prompt := promptFor(params, msg)
	if prompt == "" {
		session.Set("command", "ask")
		if err := reply(ctx, deps, msg, c.providePrompt); err != nil {
			return core.Failed, err
		}
		return core.NeedsMoreInput, nil
	}

	req := ai.Request{Kind: ai.KindText, Prompt: prompt, Params: params}

	imageID := msg.Image
	if imageID == "" && msg.ReplyToMessage != nil {
		imageID = msg.ReplyToMessage.Image
	}
	if imageID != "" {
		data, err := c.assets.fetch(ctx, deps.Messaging, imageID, msg.UserID, msg.ChatID)
		if err != nil {
			return core.Failed, err
		}
		req.Image = data
	}

	res, err := c.backend.Generate(ctx, req)
	if err != nil {
		return core.Failed, err
	}
	if len(res.Texts) == 0 {
		if err := reply(ctx, deps, msg, "I came up empty. Try rephrasing?"); err != nil {
			return core.Failed, err
		}
		return core.Handled, nil
	}

	for _, text := range res.Texts {
		if err := reply(ctx, deps, msg, text); err != nil {
			return core.Failed, err
		}
	}
	return core.Handled, nil
}
