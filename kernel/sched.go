package kernel

import "go.uber.org/zap"

// SelectNext picks the Runnable process with the most remaining ticks,
// lowest slot first on ties. When every Runnable process has exhausted its
// quantum, all of them are refilled from their priority and the scan is
// repeated.
func (k *Kernel) SelectNext() (ProcID, error) {
	if k.fault != nil {
		return NoTask, k.fault
	}
	id, f := k.selectNext()
	if f != nil {
		return NoTask, k.halt(f)
	}
	return id, nil
}

func (k *Kernel) selectNext() (ProcID, *Fault) {
	for pass := 0; pass < 2; pass++ {
		best := NoTask
		greatest := 0
		runnable := 0
		for i := range k.procs {
			p := &k.procs[i]
			if p.state != StateRunnable {
				continue
			}
			runnable++
			if p.ticks > greatest {
				greatest = p.ticks
				best = ProcID(i)
			}
		}
		if runnable == 0 {
			return NoTask, k.faultf(FaultNoRunnable, NoTask, NoTask, "no runnable process")
		}
		if best != NoTask {
			return best, nil
		}

		for i := range k.procs {
			p := &k.procs[i]
			if p.state == StateRunnable {
				p.ticks = p.priority
			}
		}
		k.obs.Refreshed()
	}
	return NoTask, k.faultf(FaultNoRunnable, NoTask, NoTask, "every runnable process has priority 0")
}

// schedule makes the selected process current.
func (k *Kernel) schedule() *Fault {
	id, f := k.selectNext()
	if f != nil {
		return f
	}
	if id != k.current {
		k.log.Debug("switch", zap.String("from", k.Name(k.current)), zap.String("to", k.Name(id)))
	}
	k.current = id
	k.obs.Scheduled()
	return nil
}

// Schedule runs the scheduler and makes its choice the current process.
func (k *Kernel) Schedule() (ProcID, error) {
	if k.fault != nil {
		return NoTask, k.fault
	}
	if f := k.schedule(); f != nil {
		return NoTask, k.halt(f)
	}
	return k.current, nil
}

// Current returns the process that holds the CPU.
func (k *Kernel) Current() ProcID { return k.current }

// Uptime returns the number of clock ticks since boot.
func (k *Kernel) Uptime() uint64 { return k.uptime }

// Tick accounts one clock tick against the current process and reschedules
// once its quantum is spent. Ticks that land inside an IPC call only count.
func (k *Kernel) Tick() error {
	if k.fault != nil {
		return k.fault
	}
	k.uptime++
	cur := &k.procs[k.current]
	if cur.ticks > 0 {
		cur.ticks--
	}
	if k.ipcDepth != 0 || cur.ticks > 0 {
		return nil
	}
	if f := k.schedule(); f != nil {
		return k.halt(f)
	}
	return nil
}
