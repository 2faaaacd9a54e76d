package kernel

import "go.uber.org/zap"

// Function selects the operation of a combined IPC call.
type Function uint8

const (
	FuncSend Function = iota + 1
	FuncReceive
	// FuncBoth sends and then receives the reply from the same peer. It
	// spans a suspension and is only available through Context.SendRec.
	FuncBoth
)

func (fn Function) String() string {
	switch fn {
	case FuncSend:
		return "send"
	case FuncReceive:
		return "receive"
	case FuncBoth:
		return "both"
	default:
		return "invalid"
	}
}

// Outcome reports how an IPC call completed.
type Outcome uint8

const (
	// Delivered means the transfer happened during the call.
	Delivered Outcome = iota + 1
	// Blocked means the caller is parked and another process is current.
	Blocked
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Blocked:
		return "blocked"
	default:
		return "failed"
	}
}

func (k *Kernel) enter(caller ProcID) *Fault {
	if k.fault != nil {
		return k.fault
	}
	if k.ipcDepth != 0 {
		return k.halt(k.faultf(FaultReentrant, caller, NoTask, "nested IPC call (depth %d)", k.ipcDepth))
	}
	k.ipcDepth++
	return nil
}

func (k *Kernel) leave(op Function, out Outcome, f *Fault) (Outcome, error) {
	k.ipcDepth--
	k.obs.IPC(op, out)
	if f != nil {
		return 0, k.halt(f)
	}
	if k.checkInvariants {
		if err := k.CheckInvariants(); err != nil {
			return 0, k.halt(k.faultf(FaultInvariant, NoTask, NoTask, "after %s: %v", op, err))
		}
	}
	k.reportBlocked()
	return out, nil
}

// checkCaller verifies that id may issue an IPC call.
func (k *Kernel) checkCaller(id ProcID) *Fault {
	if !k.live(id) {
		return k.faultf(FaultBadProc, id, NoTask, "caller %s is not a live process", id)
	}
	if s := k.procs[id].state; s != StateRunnable {
		return k.faultf(FaultInvariant, id, NoTask, "%s issued IPC while %s", k.Name(id), s)
	}
	return nil
}

// Send transfers the message at msg in the sender's address space to dest.
//
// If dest is parked in a matching Receive the copy happens immediately and
// the result is Delivered. Otherwise sender is queued on dest, another
// process is scheduled and the result is Blocked; the copy happens when dest
// receives.
func (k *Kernel) Send(sender, dest ProcID, msg uint32) (Outcome, error) {
	if f := k.enter(sender); f != nil {
		return 0, f
	}
	out, f := k.send(sender, dest, msg)
	return k.leave(FuncSend, out, f)
}

func (k *Kernel) send(sender, dest ProcID, msg uint32) (Outcome, *Fault) {
	if f := k.checkCaller(sender); f != nil {
		return 0, f
	}
	if sender == dest {
		return 0, k.faultf(FaultSelfSend, sender, dest, "%s sent to itself", k.Name(sender))
	}
	if !k.live(dest) {
		return 0, k.faultf(FaultBadProc, sender, dest, "%s sent to %s, which is not a live process", k.Name(sender), dest)
	}

	src, f := k.translate(sender, msg, MessageSize)
	if f != nil {
		return 0, f
	}
	k.stampSource(src, sender)

	if chain := k.deadlockChain(sender, dest); chain != nil {
		return 0, k.deadlockFault(chain)
	}

	d := &k.procs[dest]
	if d.state == StateReceiving && (d.recvFrom == Any || d.recvFrom == sender) {
		dst, f := k.translate(dest, d.msg, MessageSize)
		if f != nil {
			return 0, f
		}
		k.mem.RawCopy(dst, src, MessageSize)
		d.msg, d.hasMsg = 0, false
		d.recvFrom = NoTask
		d.state = StateRunnable
		k.log.Debug("rendezvous", zap.String("from", k.Name(sender)), zap.String("to", k.Name(dest)))
		return Delivered, nil
	}

	s := &k.procs[sender]
	s.state = StateSending
	s.sendTo = dest
	s.msg, s.hasMsg = msg, true
	k.enqueue(dest, sender)
	k.log.Debug("send blocked", zap.String("from", k.Name(sender)), zap.String("to", k.Name(dest)))

	if f := k.schedule(); f != nil {
		return 0, f
	}
	return Blocked, nil
}

// Receive fills the buffer at msg in the receiver's address space with the
// next message matching from, which is a process id, Any or Interrupt.
//
// A latched interrupt wins over queued senders. Any takes the oldest queued
// sender; a specific id takes that sender wherever it is queued. Without a
// match the receiver is parked and the result is Blocked.
func (k *Kernel) Receive(receiver, from ProcID, msg uint32) (Outcome, error) {
	if f := k.enter(receiver); f != nil {
		return 0, f
	}
	out, f := k.receive(receiver, from, msg)
	return k.leave(FuncReceive, out, f)
}

func (k *Kernel) receive(receiver, from ProcID, msg uint32) (Outcome, *Fault) {
	if f := k.checkCaller(receiver); f != nil {
		return 0, f
	}
	if from == receiver {
		return 0, k.faultf(FaultSelfSend, receiver, from, "%s received from itself", k.Name(receiver))
	}
	if from != Any && from != Interrupt && !k.live(from) {
		return 0, k.faultf(FaultBadProc, receiver, from, "%s received from %s, which is not a live process", k.Name(receiver), from)
	}

	dst, f := k.translate(receiver, msg, MessageSize)
	if f != nil {
		return 0, f
	}

	r := &k.procs[receiver]
	if r.intLatch && (from == Any || from == Interrupt) {
		k.putMessage(dst, interruptMessage())
		r.intLatch = false
		k.log.Debug("latched interrupt delivered", zap.String("to", k.Name(receiver)))
		return Delivered, nil
	}

	sender := NoTask
	switch {
	case from == Any:
		sender = r.qHead
	case from >= 0:
		p := &k.procs[from]
		if p.state == StateSending && p.sendTo == receiver {
			sender = from
		}
	}

	if sender != NoTask {
		if !k.unlink(receiver, sender) {
			return 0, k.faultf(FaultInvariant, receiver, sender,
				"%s is sending to %s but is not in its queue", k.Name(sender), k.Name(receiver))
		}
		s := &k.procs[sender]
		src, f := k.translate(sender, s.msg, MessageSize)
		if f != nil {
			return 0, f
		}
		k.mem.RawCopy(dst, src, MessageSize)
		s.msg, s.hasMsg = 0, false
		s.sendTo = NoTask
		s.state = StateRunnable
		k.log.Debug("receive matched", zap.String("from", k.Name(sender)), zap.String("to", k.Name(receiver)))
		return Delivered, nil
	}

	r.state = StateReceiving
	r.recvFrom = from
	r.msg, r.hasMsg = msg, true
	k.log.Debug("receive blocked", zap.String("proc", k.Name(receiver)), zap.Stringer("from", from))

	if f := k.schedule(); f != nil {
		return 0, f
	}
	return Blocked, nil
}

// SendRec is the combined entry point used by process bodies. It dispatches
// FuncSend and FuncReceive; any other function is a fault.
func (k *Kernel) SendRec(fn Function, caller, peer ProcID, msg uint32) (Outcome, error) {
	switch fn {
	case FuncSend:
		return k.Send(caller, peer, msg)
	case FuncReceive:
		return k.Receive(caller, peer, msg)
	default:
		if k.fault != nil {
			return 0, k.fault
		}
		return 0, k.halt(k.faultf(FaultBadFunction, caller, peer,
			"invalid function %d (send:%d, receive:%d)", fn, FuncSend, FuncReceive))
	}
}
