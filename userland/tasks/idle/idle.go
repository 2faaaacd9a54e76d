package idle

import "procyon/kernel"

// Task keeps the runnable set non-empty by yielding forever.
type Task struct{}

func New() *Task { return &Task{} }

func (t *Task) Run(ctx *kernel.Context) {
	for {
		ctx.Yield()
	}
}
