package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	core "github.com/herval/cliobot/internal/bot"
)

type printCommand struct {
	emptyNotice string
}

// NewPrint returns the command that shows the current session state.
func NewPrint(emptyNotice string) core.Command {
	return &printCommand{emptyNotice: emptyNotice}
}

func (c *printCommand) Spec() core.Spec {
	return core.Spec{
		Command:     "print",
		Description: "Show the current context and preferences",
		Examples:    []string{"/print"},
	}
}

func (c *printCommand) Run(ctx context.Context, _ core.Params, msg *core.Message, session *core.CachedSession, deps *core.Deps) (core.Result, error) {
	if len(session.Context) == 0 && len(session.Preferences) == 0 {
		if err := reply(ctx, deps, msg, c.emptyNotice); err != nil {
			return core.Failed, err
		}
		return core.Handled, nil
	}

	var b strings.Builder
	b.WriteString("Context:\n")
	writeKV(&b, session.Context)
	b.WriteString("\nPreferences:\n")
	writeKV(&b, session.Preferences)

	if err := reply(ctx, deps, msg, b.String()); err != nil {
		return core.Failed, err
	}
	return core.Handled, nil
}

func writeKV(b *strings.Builder, m map[string]string) {
	if len(m) == 0 {
		b.WriteString("(empty)\n")
		return
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(b, "%s: %s\n", k, m[k])
	}
}
