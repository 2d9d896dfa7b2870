package host

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Command is a host action invoked by id.
type Command struct {
	ID   string
	Name string
	Run  func(ctx context.Context) error
}

// CommandRegistry holds host commands by id and implements CommandExecutor.
type CommandRegistry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewCommandRegistry creates an empty registry.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{commands: make(map[string]Command)}
}

// Register adds or replaces cmd.
func (r *CommandRegistry) Register(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd.ID] = cmd
}

// RegisterFunc registers fn under id, using id as the display name.
func (r *CommandRegistry) RegisterFunc(id string, fn func(ctx context.Context) error) {
	r.Register(Command{ID: id, Name: id, Run: fn})
}

// Unregister removes the command with id.
func (r *CommandRegistry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.commands, id)
}

// Get returns the command with id.
func (r *CommandRegistry) Get(id string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[id]
	return cmd, ok
}

// Has reports whether a command is registered under id.
func (r *CommandRegistry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// List returns every registered command sorted by id.
func (r *CommandRegistry) List() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ExecuteCommand runs the command registered under id.
func (r *CommandRegistry) ExecuteCommand(ctx context.Context, id string) (err error) {
	cmd, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, id)
	}
	if cmd.Run == nil {
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Source: "command " + id, Value: rec}
		}
	}()
	return cmd.Run(ctx)
}
