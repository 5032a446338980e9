package commands

import (
	"context"
	"fmt"
	"strings"

	core "github.com/herval/cliobot/internal/bot"
)

type setCommand struct{}

// NewSet returns the command that stores a long-term preference.
func NewSet() core.Command {
	return &setCommand{}
}

func (c *setCommand) Spec() core.Spec {
	return core.Spec{
		Command:     "set",
		Description: "Save a preference, e.g. a default model or size",
		Examples:    []string{"/set size 512x512"},
	}
}

func (c *setCommand) Run(ctx context.Context, params core.Params, msg *core.Message, session *core.CachedSession, deps *core.Deps) (core.Result, error) {
	fields := strings.Fields(params.Get("prompt"))
	if len(fields) < 2 {
		if err := reply(ctx, deps, msg, "Usage: /set <key> <value>"); err != nil {
			return core.Failed, err
		}
		return core.Handled, nil
	}

	key := fields[0]
	value := strings.Join(fields[1:], " ")
	session.SetPreference(key, value)

	if err := reply(ctx, deps, msg, fmt.Sprintf("Saved %s = %s", key, value)); err != nil {
		return core.Failed, err
	}
	return core.Handled, nil
}

type forgetCommand struct{}

// NewForget returns the command that removes a stored preference.
func NewForget() core.Command {
	return &forgetCommand{}
}

func (c *forgetCommand) Spec() core.Spec {
	return core.Spec{
		Command:     "forget",
		Description: "Remove a saved preference",
		Examples:    []string{"/forget size"},
	}
}

func (c *forgetCommand) Run(ctx context.Context, params core.Params, msg *core.Message, session *core.CachedSession, deps *core.Deps) (core.Result, error) {
	key := strings.TrimSpace(params.Get("prompt"))
	if key == "" {
		if err := reply(ctx, deps, msg, "Usage: /forget <key>"); err != nil {
			return core.Failed, err
		}
		return core.Handled, nil
	}

	if _, ok := session.Preferences[key]; !ok {
		if err := reply(ctx, deps, msg, fmt.Sprintf("No preference named %s", key)); err != nil {
			return core.Failed, err
		}
		return core.Handled, nil
	}

	// Setting the empty value flips the dirty flag before the key goes away.
	session.SetPreference(key, "")
	delete(session.Preferences, key)

	if err := reply(ctx, deps, msg, fmt.Sprintf("Forgot %s", key)); err != nil {
		return core.Failed, err
	}
	return core.Handled, nil
}
