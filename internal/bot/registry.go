package bot

// Registry is the ordered collection of commands known to the engine. It is
// built once at process start and passed by reference into the dispatcher;
// there is no ambient global registration.
type Registry struct {
	order   []Command
	byToken map[string]Command
}

// NewRegistry builds a registry from the given commands. Token uniqueness is
// a hard precondition of the configuration; later duplicates overwrite
// earlier ones rather than being detected here.
func NewRegistry(commands ...Command) *Registry {
	r := &Registry{
		order:   make([]Command, 0, len(commands)),
		byToken: make(map[string]Command, len(commands)),
	}
	for _, c := range commands {
		r.order = append(r.order, c)
		r.byToken[c.Spec().Command] = c
	}
	return r
}

// Get returns the command registered under token.
func (r *Registry) Get(token string) (Command, bool) {
	c, ok := r.byToken[token]
	return c, ok
}

// Commands returns the commands in registration order, for help listings.
func (r *Registry) Commands() []Command {
	return r.order
}
