package commands

import (
	"context"
	"fmt"

	"github.com/herval/cliobot/internal/ai"
	core "github.com/herval/cliobot/internal/bot"
)

type imagineCommand struct {
	backend ai.Backend
}

// NewImagine returns the image generation command.
func NewImagine(backend ai.Backend) core.Command {
	return &imagineCommand{backend: backend}
}

func (c *imagineCommand) Spec() core.Spec {
	return core.Spec{
		Command:     "imagine",
		Description: "Generate an image from a prompt",
		Examples:    []string{"/imagine a lighthouse at dusk --size 1024x1024"},
		Fields: []core.Field{
			{Name: "prompt", Required: true},
			{Name: "size", Default: "1024x1024", OneOf: []string{"256x256", "512x512", "1024x1024", "1792x1024", "1024x1792"}},
			{Name: "num", Default: "1"},
		},
	}
}

func (c *imagineCommand) Run(ctx context.Context, params core.Params, msg *core.Message, _ *core.CachedSession, deps *core.Deps) (core.Result, error) {
	res, err := c.backend.Generate(ctx, ai.Request{
		Kind:   ai.KindImage,
		Prompt: params.Get("prompt"),
		Params: params,
	})
	if err != nil {
		return core.Failed, err
	}
	if len(res.Images) == 0 {
		if err := reply(ctx, deps, msg, "No images came back. Try a different prompt?"); err != nil {
			return core.Failed, err
		}
		return core.Handled, nil
	}

	for i, img := range res.Images {
		buttons := [][]core.Button{{
			{Text: "Again", CallbackData: fmt.Sprintf("retry:%s", msg.MessageID)},
			{Text: "Variations", CallbackData: fmt.Sprintf("shuffle:%s:%d", msg.MessageID, i)},
		}}
		_, err := deps.Messaging.SendMedia(ctx, msg.ChatID,
			core.Media{Image: img.URL},
			img.Prompt,
			&core.SendOptions{ReplyToMessageID: msg.MessageID, Buttons: buttons},
		)
		if err != nil {
			return core.Failed, err
		}
	}
	return core.Handled, nil
}
