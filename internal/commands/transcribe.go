package commands

import (
	"context"

	"github.com/herval/cliobot/internal/ai"
	core "github.com/herval/cliobot/internal/bot"
	"github.com/herval/cliobot/internal/database"
)

type transcribeCommand struct {
	backend ai.Backend
	assets  *assetCache
}

// NewTranscribe returns the speech-to-text command. It works on the audio
// or voice note attached to the triggering message, or to the message it
// replies to.
func NewTranscribe(backend ai.Backend, store database.Store, assetDir string) core.Command {
	return &transcribeCommand{backend: backend, assets: newAssetCache(store, assetDir)}
}

func (c *transcribeCommand) Spec() core.Spec {
	return core.Spec{
		Command:     "transcribe",
		Description: "Turn an audio or voice message into text",
		Examples:    []string{"/transcribe (as a reply to a voice note)"},
	}
}

func (c *transcribeCommand) Run(ctx context.Context, _ core.Params, msg *core.Message, _ *core.CachedSession, deps *core.Deps) (core.Result, error) {
	fileID := audioFileID(msg)
	if fileID == "" && msg.ReplyToMessage != nil {
		fileID = audioFileID(msg.ReplyToMessage)
	}
	if fileID == "" {
		if err := reply(ctx, deps, msg, "Send or reply to an audio message to transcribe it."); err != nil {
			return core.Failed, err
		}
		return core.Handled, nil
	}

	data, err := c.assets.fetch(ctx, deps.Messaging, fileID, msg.UserID, msg.ChatID)
	if err != nil {
		return core.Failed, err
	}

	res, err := c.backend.Generate(ctx, ai.Request{
		Kind:  ai.KindTranscribe,
		Audio: data,
	})
	if err != nil {
		return core.Failed, err
	}
	if len(res.Texts) == 0 || res.Texts[0] == "" {
		if err := reply(ctx, deps, msg, "I couldn't make out anything in that audio."); err != nil {
			return core.Failed, err
		}
		return core.Handled, nil
	}

	if err := reply(ctx, deps, msg, res.Texts[0]); err != nil {
		return core.Failed, err
	}
	return core.Handled, nil
}

func audioFileID(msg *core.Message) string {
	if msg.Voice != "" {
		return msg.Voice
	}
	return msg.Audio
}
