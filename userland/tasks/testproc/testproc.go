package testproc

import (
	"go.uber.org/zap"

	"procyon/kernel"
	sysclient "procyon/userland/client/sys"
	ttyclient "procyon/userland/client/tty"
)

// Task polls the tick counter and reports it on the console every Every
// ticks.
type Task struct {
	SYS   kernel.ProcID
	TTY   kernel.ProcID
	Every uint64

	log *zap.Logger
}

func New(sys, tty kernel.ProcID, every uint64, log *zap.Logger) *Task {
	if log == nil {
		log = zap.NewNop()
	}
	if every == 0 {
		every = 1
	}
	return &Task{SYS: sys, TTY: tty, Every: every, log: log}
}

func (t *Task) Run(ctx *kernel.Context) {
	var last uint64
	reported := false
	for {
		now, err := sysclient.GetTicks(ctx, t.SYS)
		if err != nil {
			t.log.Warn("get ticks failed", zap.Error(err))
			ctx.Yield()
			continue
		}
		if !reported || now-last >= t.Every {
			if err := ttyclient.Printf(ctx, t.TTY, "%s: ticks=%d", ctx.Name(), now); err != nil {
				t.log.Warn("tty write failed", zap.Error(err))
			}
			last, reported = now, true
		}
		ctx.Yield()
	}
}
