package kernel

import "go.uber.org/zap"

// NotifyInterrupt reports a hardware event attributed to target.
//
// A target parked in Receive(Any) or Receive(Interrupt) gets the interrupt
// message at once and becomes Runnable. Any other target has its latch set
// and picks the event up with its next matching Receive. NotifyInterrupt
// never suspends and never runs the scheduler.
func (k *Kernel) NotifyInterrupt(target ProcID) error {
	if k.fault != nil {
		return k.fault
	}
	if !k.live(target) {
		return k.halt(k.faultf(FaultBadProc, target, Interrupt, "interrupt for %s, which is not a live process", target))
	}

	p := &k.procs[target]
	if p.state == StateReceiving && (p.recvFrom == Any || p.recvFrom == Interrupt) {
		la, f := k.translate(target, p.msg, MessageSize)
		if f != nil {
			return k.halt(f)
		}
		k.putMessage(la, interruptMessage())
		p.msg, p.hasMsg = 0, false
		p.intLatch = false
		p.recvFrom = NoTask
		p.state = StateRunnable
		k.obs.Interrupt(true)
		k.reportBlocked()
		k.log.Debug("interrupt delivered", zap.String("to", k.Name(target)))
		return nil
	}

	p.intLatch = true
	k.obs.Interrupt(false)
	k.log.Debug("interrupt latched", zap.String("to", k.Name(target)))
	return nil
}
