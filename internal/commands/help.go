package commands

import (
	"context"
	"fmt"
	"strings"

	core "github.com/herval/cliobot/internal/bot"
)

type helpCommand struct {
	registry *core.Registry
}

// NewHelp returns the command that lists every registered command. The
// registry is injected after construction so help can describe itself.
func NewHelp() (core.Command, func(*core.Registry)) {
	c := &helpCommand{}
	return c, func(r *core.Registry) { c.registry = r }
}

func (c *helpCommand) Spec() core.Spec {
	return core.Spec{
		Command:     "help",
		Description: "List available commands",
		Examples:    []string{"/help"},
	}
}

func (c *helpCommand) Run(ctx context.Context, _ core.Params, msg *core.Message, _ *core.CachedSession, deps *core.Deps) (core.Result, error) {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, cmd := range c.registry.Commands() {
		spec := cmd.Spec()
		fmt.Fprintf(&b, "/%s - %s\n", spec.Command, spec.Description)
		for _, ex := range spec.Examples {
			fmt.Fprintf(&b, "  e.g. %s\n", ex)
		}
	}

	if err := reply(ctx, deps, msg, b.String()); err != nil {
		return core.Failed, err
	}
	return core.Handled, nil
}
