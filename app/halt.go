package app

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"procyon/kernel"
)

// haltHandler reports the first kernel fault on the console and in the log,
// then runs next.
func (s *System) haltHandler(next func(*kernel.Fault)) func(*kernel.Fault) {
	return func(f *kernel.Fault) {
		snap := s.k.Dump()
		s.log.Error("kernel halted",
			zap.Stringer("kind", f.Kind),
			zap.String("detail", f.Detail),
			zap.Uint64("uptime", s.k.Uptime()),
			zap.Array("procs", snap),
		)

		if c := s.h.Console(); c != nil {
			for _, line := range haltReport(f, snap) {
				c.WriteLineString(line)
			}
		}
		if next != nil {
			next(f)
		}
	}
}

func haltReport(f *kernel.Fault, snap kernel.Snapshot) []string {
	lines := []string{
		"Procyon halt:",
		fmt.Sprintf("fault: %s", f.Kind),
	}
	if len(f.Names) > 0 {
		lines = append(lines, "chain: "+strings.Join(f.Names, " -> "))
	}
	if f.Detail != "" {
		lines = append(lines, "detail: "+f.Detail)
	}
	if f.Kind == kernel.FaultTaskPanic {
		lines = append(lines, fmt.Sprintf("panic: %v", f.Value))
		if len(f.Stack) > 0 {
			lines = append(lines, "stack:")
			for _, line := range strings.Split(string(f.Stack), "\n") {
				if line == "" {
					continue
				}
				lines = append(lines, line)
			}
		} else {
			lines = append(lines, "stack: unavailable")
		}
	}

	lines = append(lines, "procs:")
	for _, p := range snap {
		if p.State == kernel.StateFree {
			continue
		}
		line := fmt.Sprintf("  %-3d %-8s %-9s prio=%d ticks=%d", p.ID, p.Name, p.State, p.Priority, p.Ticks)
		if p.SendTo != kernel.NoTask {
			line += fmt.Sprintf(" send_to=%s", p.SendTo)
		}
		if p.RecvFrom != kernel.NoTask {
			line += fmt.Sprintf(" recv_from=%s", p.RecvFrom)
		}
		if p.Latched {
			line += " latched"
		}
		lines = append(lines, line)
	}
	return lines
}
