package kernel

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

const defaultEventSlots = 256

// Kernel owns the process table, the linear memory and the run loop.
//
// Exactly one goroutine may act on a Kernel at a time: either the caller of
// Step/Run or the process body it resumed. Other goroutines use PostTick and
// PostInterrupt.
type Kernel struct {
	procs []Proc
	mem   *PhysMem

	current  ProcID
	uptime   uint64
	ipcDepth int

	fault    *Fault
	haltOnce sync.Once
	halted   chan struct{}
	onHalt   func(*Fault)

	log             *zap.Logger
	obs             Observer
	checkInvariants bool
	virtualClock    bool

	events chan event

	tasks   []taskSlot
	handoff chan struct{}
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithLogger sets the kernel logger.
func WithLogger(log *zap.Logger) Option {
	return func(k *Kernel) {
		if log != nil {
			k.log = log
		}
	}
}

// WithObserver sets the accounting hook.
func WithObserver(obs Observer) Option {
	return func(k *Kernel) {
		if obs != nil {
			k.obs = obs
		}
	}
}

// WithInvariantChecks verifies the table after every IPC call.
func WithInvariantChecks(on bool) Option {
	return func(k *Kernel) { k.checkInvariants = on }
}

// WithVirtualClock makes every Context.Yield count as one clock tick.
func WithVirtualClock(on bool) Option {
	return func(k *Kernel) { k.virtualClock = on }
}

// WithEventSlots sizes the buffer behind PostTick and PostInterrupt.
func WithEventSlots(n int) Option {
	return func(k *Kernel) {
		if n > 0 {
			k.events = make(chan event, n)
		}
	}
}

// OnHalt installs a handler invoked once, on the first fault. It must not
// call back into the kernel.
func OnHalt(fn func(*Fault)) Option {
	return func(k *Kernel) { k.onHalt = fn }
}

// New builds a kernel whose table holds one slot per spec. Every live slot
// starts Runnable with a full quantum; the first selection becomes current.
func New(mem *PhysMem, specs []ProcSpec, opts ...Option) (*Kernel, error) {
	if mem == nil {
		return nil, fmt.Errorf("kernel: nil memory")
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("kernel: empty process table")
	}

	k := &Kernel{
		procs:   make([]Proc, len(specs)),
		mem:     mem,
		current: NoTask,
		halted:  make(chan struct{}),
		log:     zap.NewNop(),
		obs:     nopObserver{},
		events:  make(chan event, defaultEventSlots),
		tasks:   make([]taskSlot, len(specs)),
		handoff: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(k)
	}

	for i, spec := range specs {
		p := &k.procs[i]
		p.reset()
		p.name = spec.Name
		if spec.Free {
			p.state = StateFree
			continue
		}
		if spec.Priority < 0 {
			return nil, fmt.Errorf("kernel: slot %d (%s): negative priority %d", i, spec.Name, spec.Priority)
		}
		if spec.Space == nil {
			return nil, fmt.Errorf("kernel: slot %d (%s): no address space", i, spec.Name)
		}
		p.priority = spec.Priority
		p.ticks = spec.Priority
		p.space = spec.Space
		p.flat = spec.Flat
		p.origin = spec.Origin
		k.tasks[i] = taskSlot{task: spec.Task, resume: make(chan struct{}, 1)}
	}

	id, f := k.selectNext()
	if f != nil {
		return nil, fmt.Errorf("kernel: boot: %w", f)
	}
	k.current = id
	k.log.Info("kernel booted",
		zap.Int("slots", len(k.procs)),
		zap.String("current", k.Name(id)),
		zap.Uint32("memory", mem.Size()),
	)
	return k, nil
}

// Memory returns the linear memory behind every address space.
func (k *Kernel) Memory() *PhysMem { return k.mem }
