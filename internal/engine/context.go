package engine

import (
	"context"

	"github.com/dshills/tasker/internal/task"
)

type paramsKey struct{}
type chainKey struct{}

// WithParams returns a context carrying event parameters for the run.
func WithParams(ctx context.Context, params []any) context.Context {
	return context.WithValue(ctx, paramsKey{}, params)
}

// Params returns the event parameters carried by ctx, or nil.
func Params(ctx context.Context) []any {
	params, _ := ctx.Value(paramsKey{}).([]any)
	return params
}

// chain is the stack of runs active on one goroutine of execution.
type chain struct {
	parent *chain
	task   *task.Task
	runID  string
	depth  int
}

func chainFrom(ctx context.Context) *chain {
	c, _ := ctx.Value(chainKey{}).(*chain)
	return c
}

func (c *chain) push(ctx context.Context, t *task.Task, runID string) (context.Context, *chain) {
	next := &chain{parent: c, task: t, runID: runID, depth: 1}
	if c != nil {
		next.depth = c.depth + 1
	}
	return context.WithValue(ctx, chainKey{}, next), next
}

func (c *chain) contains(t *task.Task) bool {
	for x := c; x != nil; x = x.parent {
		if x.task == t {
			return true
		}
	}
	return false
}

func (c *chain) id() string {
	if c == nil {
		return ""
	}
	return c.runID
}

func (c *chain) level() int {
	if c == nil {
		return 0
	}
	return c.depth
}

// RunID returns the id of the innermost run carried by ctx, or "".
func RunID(ctx context.Context) string {
	return chainFrom(ctx).id()
}
