package kernel

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Task is the body of a process. Run is called once, on a goroutine owned
// by the kernel, and must not return.
type Task interface {
	Run(ctx *Context)
}

// TaskFunc adapts a function to Task.
type TaskFunc func(ctx *Context)

func (f TaskFunc) Run(ctx *Context) { f(ctx) }

type taskSlot struct {
	task    Task
	started bool
	resume  chan struct{}
}

type eventKind uint8

const (
	eventTick eventKind = iota + 1
	eventInterrupt
)

type event struct {
	kind   eventKind
	target ProcID
}

// PostTick queues a clock tick from any goroutine. Ticks are dropped when
// the queue is full.
func (k *Kernel) PostTick() {
	select {
	case k.events <- event{kind: eventTick}:
	default:
	}
}

// PostInterrupt queues a hardware notification for target from any
// goroutine. It waits for room in the queue unless the kernel halts first.
func (k *Kernel) PostInterrupt(target ProcID) {
	select {
	case k.events <- event{kind: eventInterrupt, target: target}:
	case <-k.halted:
	}
}

// drainEvents applies queued ticks and interrupts. Only the goroutine
// holding control may call it.
func (k *Kernel) drainEvents() error {
	for {
		select {
		case ev := <-k.events:
			var err error
			switch ev.kind {
			case eventTick:
				err = k.Tick()
			case eventInterrupt:
				err = k.NotifyInterrupt(ev.target)
			}
			if err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// Step hands the CPU to the current process and returns once that process
// gives it back by blocking, yielding or losing its quantum.
func (k *Kernel) Step() error {
	if k.fault != nil {
		return k.fault
	}
	if err := k.drainEvents(); err != nil {
		return err
	}
	if k.procs[k.current].state != StateRunnable {
		if f := k.schedule(); f != nil {
			return k.halt(f)
		}
	}

	id := k.current
	ts := &k.tasks[id]
	if ts.task == nil {
		return k.halt(k.faultf(FaultInvariant, id, NoTask, "%s has no body to run", k.Name(id)))
	}
	if !ts.started {
		ts.started = true
		k.log.Debug("start", zap.String("proc", k.Name(id)))
		go k.runTask(id, ts.task)
	} else {
		ts.resume <- struct{}{}
	}

	select {
	case <-k.handoff:
	case <-k.halted:
	}
	if k.fault != nil {
		return k.fault
	}
	return nil
}

// Run steps the kernel until ctx is done or the kernel halts.
func (k *Kernel) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := k.Step(); err != nil {
			return err
		}
	}
}

// RunSteps performs at most n steps.
func (k *Kernel) RunSteps(n int) error {
	for i := 0; i < n; i++ {
		if err := k.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (k *Kernel) runTask(id ProcID, t Task) {
	defer func() {
		if r := recover(); r != nil {
			f := k.faultf(FaultTaskPanic, id, NoTask, "%v", r)
			f.Value = r
			f.Stack = captureStack()
			k.halt(f)
			return
		}
		select {
		case <-k.halted:
			// Unwound by Goexit after a fault.
		default:
			k.halt(k.faultf(FaultTaskExit, id, NoTask, "%s returned from its body", k.Name(id)))
		}
	}()
	t.Run(&Context{k: k, id: id})
}

// park gives control back to the run loop and waits to be resumed. A body
// parked when the kernel halts never returns.
func (k *Kernel) park(id ProcID) {
	select {
	case k.handoff <- struct{}{}:
	case <-k.halted:
		exitTask()
	}
	select {
	case <-k.tasks[id].resume:
	case <-k.halted:
		exitTask()
	}
	if k.current != id {
		k.halt(k.faultf(FaultInvariant, id, k.current, "%s resumed while %s is current", k.Name(id), k.Name(k.current)))
		exitTask()
	}
}

func (k *Kernel) String() string {
	return fmt.Sprintf("kernel{slots=%d current=%s uptime=%d}", len(k.procs), k.Name(k.current), k.uptime)
}
