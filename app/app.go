package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"procyon/hal"
	"procyon/internal/config"
	"procyon/kernel"
)

// Config wires a System.
type Config struct {
	// Manifest describes the process table. Nil boots the default table.
	Manifest *config.Manifest
	Log      *zap.Logger
	Observer kernel.Observer

	CheckInvariants bool
	// VirtualClock counts every yield as a tick and ignores the HAL clock.
	VirtualClock bool
	// ReportEvery is the tick interval of the test processes' console
	// reports.
	ReportEvery uint64
	// OnHalt runs after the halt report has been written.
	OnHalt func(*kernel.Fault)
}

// System is a booted kernel together with the HAL feeding it.
type System struct {
	k   *kernel.Kernel
	h   hal.HAL
	log *zap.Logger

	routes       map[hal.Line]kernel.ProcID
	virtualClock bool
	dropped      uint64
}

// New builds the process table described by cfg.Manifest and boots it.
func New(h hal.HAL, cfg Config) (*System, error) {
	if h == nil {
		return nil, fmt.Errorf("app: nil HAL")
	}
	m := cfg.Manifest
	if m == nil {
		m = config.DefaultManifest()
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("app: manifest: %w", err)
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}

	env := Env{
		Console:     h.Console(),
		Log:         log,
		SYS:         findProgram(m, "sys"),
		TTY:         findProgram(m, "tty"),
		ReportEvery: cfg.ReportEvery,
	}
	specs, mem, err := buildSpecs(m, env)
	if err != nil {
		return nil, err
	}

	s := &System{
		h:            h,
		log:          log,
		routes:       make(map[hal.Line]kernel.ProcID),
		virtualClock: cfg.VirtualClock,
	}
	for line, slot := range m.Routes() {
		s.routes[hal.Line(line)] = kernel.ProcID(slot)
	}

	k, err := kernel.New(mem, specs,
		kernel.WithLogger(log.Named("kernel")),
		kernel.WithObserver(cfg.Observer),
		kernel.WithInvariantChecks(cfg.CheckInvariants),
		kernel.WithVirtualClock(cfg.VirtualClock),
		kernel.OnHalt(s.haltHandler(cfg.OnHalt)),
	)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	s.k = k
	return s, nil
}

// buildSpecs lays out linear memory and instantiates every live slot.
// Task and native slots get the identity mapping with their IPC buffer at
// the start of their region; user slots get their region as a segment.
func buildSpecs(m *config.Manifest, env Env) ([]kernel.ProcSpec, *kernel.PhysMem, error) {
	regions, total := m.Layout()
	specs := make([]kernel.ProcSpec, len(m.Slots))
	for i, slot := range m.Slots {
		spec := kernel.ProcSpec{Name: slot.Name, Priority: slot.Priority}
		if slot.Kind == config.KindFree {
			spec.Free = true
			specs[i] = spec
			continue
		}

		r := regions[i]
		if slot.Kind.Flat() {
			spec.Flat = true
			spec.Space = kernel.Flat{Limit: total}
			spec.Origin = r.Base
		} else {
			spec.Space = kernel.Segment{Base: r.Base, Limit: r.Size}
		}

		task, err := instantiate(slot, env)
		if err != nil {
			return nil, nil, fmt.Errorf("app: slot %d (%s): %w", i, slot.Name, err)
		}
		spec.Task = task
		specs[i] = spec
	}
	return specs, kernel.NewPhysMem(total), nil
}

// Kernel returns the booted kernel.
func (s *System) Kernel() *kernel.Kernel { return s.k }

// Run steps the kernel until ctx is done or the kernel halts.
func (s *System) Run(ctx context.Context) error {
	return s.k.Run(ctx)
}

// Pump forwards pending HAL clock ticks and interrupt lines to the kernel.
// It is safe to call from any goroutine and returns the kernel fault once
// the kernel has halted.
func (s *System) Pump() error {
	select {
	case <-s.k.Done():
		return s.k.Halted()
	default:
	}

	ticks := s.h.Time().Ticks()
	for drained := false; !drained; {
		select {
		case <-ticks:
			if !s.virtualClock {
				s.k.PostTick()
			}
		default:
			drained = true
		}
	}

	lines := s.h.IRQ().Lines()
	for {
		select {
		case line := <-lines:
			target, ok := s.routes[line]
			if !ok {
				s.dropped++
				s.log.Debug("unrouted interrupt", zap.Uint8("line", uint8(line)))
				continue
			}
			s.k.PostInterrupt(target)
		default:
			return nil
		}
	}
}

// Dropped returns the number of interrupts raised on lines no slot owns.
func (s *System) Dropped() uint64 { return s.dropped }
