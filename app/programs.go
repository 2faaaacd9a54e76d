package app

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"procyon/hal"
	"procyon/internal/config"
	"procyon/kernel"
	syssvc "procyon/userland/services/sys"
	ttysvc "procyon/userland/services/tty"
	"procyon/userland/tasks/idle"
	"procyon/userland/tasks/testproc"
)

// Env is what a program needs from the rest of the system.
type Env struct {
	Console     hal.Console
	Log         *zap.Logger
	SYS         kernel.ProcID
	TTY         kernel.ProcID
	ReportEvery uint64
}

// Program builds the body of one slot.
type Program func(slot config.Slot, env Env) (kernel.Task, error)

var programs = map[string]Program{
	"tty": func(slot config.Slot, env Env) (kernel.Task, error) {
		return ttysvc.New(env.Console, procLog(env, slot)), nil
	},
	"sys": func(slot config.Slot, env Env) (kernel.Task, error) {
		return syssvc.New(procLog(env, slot)), nil
	},
	"idle": func(config.Slot, Env) (kernel.Task, error) {
		return idle.New(), nil
	},
	"testproc": func(slot config.Slot, env Env) (kernel.Task, error) {
		if env.SYS == kernel.NoTask || env.TTY == kernel.NoTask {
			return nil, fmt.Errorf("testproc needs a sys and a tty slot")
		}
		every := env.ReportEvery
		if every == 0 {
			every = 1000
		}
		return testproc.New(env.SYS, env.TTY, every, procLog(env, slot)), nil
	},
}

// Programs lists the names a manifest slot may use.
func Programs() []string {
	names := make([]string, 0, len(programs))
	for name := range programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func instantiate(slot config.Slot, env Env) (kernel.Task, error) {
	p, ok := programs[slot.Program]
	if !ok {
		return nil, fmt.Errorf("unknown program %q (have %v)", slot.Program, Programs())
	}
	return p(slot, env)
}

// findProgram returns the first live slot running program.
func findProgram(m *config.Manifest, program string) kernel.ProcID {
	for i, s := range m.Slots {
		if s.Kind != config.KindFree && s.Program == program {
			return kernel.ProcID(i)
		}
	}
	return kernel.NoTask
}

func procLog(env Env, slot config.Slot) *zap.Logger {
	return env.Log.Named("proc").With(zap.String("proc", slot.Name))
}
