package bot

import "strings"

// Resolve determines which registered command should handle a message.
// Deterministic and side-effect-free; rules are evaluated in strict priority
// order and the first match wins:
//
//  1. A "command" key in the message metadata (callback-button input)
//     always wins. Callers only emit tokens that exist in the registry.
//  2. The first whitespace-delimited token of the text, lower-cased and
//     stripped of a leading slash, matching a registered token. Reply-only
//     commands match here only when the message is itself a reply.
//  3. A "command" key armed in the session context (a command awaiting a
//     follow-up message).
//
// Returns nil when nothing matches; the caller falls back by modality.
func Resolve(msg *Message, session *Session, registry *Registry) Command {
	if tok, ok := msg.Metadata["command"]; ok {
		c, _ := registry.Get(tok)
		return c
	}

	if fields := strings.Fields(msg.Text); len(fields) > 0 {
		tok := strings.TrimPrefix(strings.ToLower(fields[0]), "/")

		if c, ok := registry.Get(tok); ok {
			if !c.Spec().ReplyOnly || msg.IsReply() {
				return c
			}
		}
	}

	if armed := session.Get("command"); armed != "" {
		if c, ok := registry.Get(armed); ok {
			return c
		}
	}

	return nil
}
