package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Result is the outcome of a command execution.
type Result int

const (
	// Handled means the turn is complete and session context is cleared.
	Handled Result = iota
	// NeedsMoreInput means the command is waiting for a follow-up message
	// and the context (typically an armed "command" key) must survive.
	NeedsMoreInput
	// Failed means the command gave up; the user gets a generic notice.
	// Run may also signal failure by returning a non-nil error.
	Failed
)

// Field declares one expected parameter of a command. The binder validates
// and coerces the merged parameter map against these declarations before the
// command runs.
type Field struct {
	Name     string
	Required bool
	Default  string
	OneOf    []string
}

// Spec describes a registered command. Command tokens must be unique across
// the registry; duplicates are a configuration error, not a runtime check.
type Spec struct {
	Command     string
	Description string
	Examples    []string
	ReplyOnly   bool
	Fields      []Field
}

// Command is a named, stateless handler registered at process start.
type Command interface {
	Spec() Spec

	// Run executes the command against the current session. Returning
	// Handled clears the session context; NeedsMoreInput preserves it for
	// the next message. Errors are reported to telemetry and shown to the
	// user as a generic notice; the session is persisted regardless.
	Run(ctx context.Context, parsed Params, msg *Message, session *CachedSession, deps *Deps) (Result, error)
}

// Deps bundles the collaborators commands may call during Run. Backends and
// other command-specific dependencies are injected via constructors instead.
type Deps struct {
	Logger    *slog.Logger
	Messaging MessagingService
	Store     Store
	Telemetry Telemetry
}

// Params is the merged, validated parameter map handed to a command.
type Params map[string]string

// Get returns the value for key or "" when absent.
func (p Params) Get(key string) string {
	return p[key]
}

// GetDefault returns the value for key, or def when absent or empty.
func (p Params) GetDefault(key, def string) string {
	if v := p[key]; v != "" {
		return v
	}
	return def
}

// ParseParams merges, in increasing precedence: session preferences, session
// context, then the command line itself (the leading token as "command", the
// positional words as "prompt", and each "--key value" flag, where a flag
// consumes tokens until the next "--"-prefixed token so values may span
// words). Message metadata wins over everything: callback payloads are
// explicit user input.
func ParseParams(msg *Message, session *Session) Params {
	params := make(Params, len(session.Preferences)+len(session.Context)+4)

	for k, v := range session.Preferences {
		params[k] = v
	}
	for k, v := range session.Context {
		params[k] = v
	}

	if tokens := strings.Fields(msg.Text); len(tokens) > 0 {
		cmd := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
		params["command"] = cmd

		var prompt []string
		i := 1
		for i < len(tokens) && !strings.HasPrefix(tokens[i], "--") {
			prompt = append(prompt, tokens[i])
			i++
		}
		if len(prompt) > 0 {
			params["prompt"] = strings.Join(prompt, " ")
		}

		for i < len(tokens) {
			key := strings.TrimPrefix(tokens[i], "--")
			i++
			var value []string
			for i < len(tokens) && !strings.HasPrefix(tokens[i], "--") {
				value = append(value, tokens[i])
				i++
			}
			if key != "" {
				params[key] = strings.Join(value, " ")
			}
		}
	}

	for k, v := range msg.Metadata {
		params[k] = v
	}

	return params
}

// FieldError describes one failed parameter validation.
type FieldError struct {
	Name   string
	Reason string
}

// ValidationError is the structured outcome of a failed parameter binding.
// It is shown to the user directly and never counts as a dispatch failure.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	return e.Notice()
}

// Notice renders the user-visible failure message, one line per field.
func (e *ValidationError) Notice() string {
	lines := make([]string, 0, len(e.Fields)+1)
	lines = append(lines, "Whoops!")
	for _, f := range e.Fields {
		lines = append(lines, fmt.Sprintf("%s: %s", f.Name, f.Reason))
	}
	return strings.Join(lines, "\n")
}

// BindParams validates the merged parameter map against the command's field
// declarations, applying defaults and enumeration checks. On failure the
// command must not run.
func BindParams(spec Spec, params Params) (Params, *ValidationError) {
	var fieldErrs []FieldError

	for _, f := range spec.Fields {
		v := params[f.Name]
		if v == "" && f.Default != "" {
			params[f.Name] = f.Default
			continue
		}
		if v == "" && f.Required {
			fieldErrs = append(fieldErrs, FieldError{Name: f.Name, Reason: "value is required"})
			continue
		}
		if v != "" && len(f.OneOf) > 0 {
			allowed := false
			for _, o := range f.OneOf {
				if v == o {
					allowed = true
					break
				}
			}
			if !allowed {
				fieldErrs = append(fieldErrs, FieldError{
					Name:   f.Name,
					Reason: fmt.Sprintf("must be one of: %s", strings.Join(f.OneOf, ", ")),
				})
			}
		}
	}

	if len(fieldErrs) > 0 {
		sort.Slice(fieldErrs, func(i, j int) bool { return fieldErrs[i].Name < fieldErrs[j].Name })
		return nil, &ValidationError{Fields: fieldErrs}
	}
	return params, nil
}
