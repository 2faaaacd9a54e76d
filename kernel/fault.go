package kernel

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// FaultKind classifies an unrecoverable kernel fault.
type FaultKind uint8

const (
	FaultDeadlock FaultKind = iota + 1
	FaultSelfSend
	FaultBadFunction
	FaultBadProc
	FaultInvariant
	FaultReentrant
	FaultNoRunnable
	FaultTaskExit
	FaultTaskPanic
)

func (k FaultKind) String() string {
	switch k {
	case FaultDeadlock:
		return "deadlock"
	case FaultSelfSend:
		return "self_send"
	case FaultBadFunction:
		return "bad_function"
	case FaultBadProc:
		return "bad_proc"
	case FaultInvariant:
		return "invariant"
	case FaultReentrant:
		return "reentrant"
	case FaultNoRunnable:
		return "no_runnable"
	case FaultTaskExit:
		return "task_exit"
	case FaultTaskPanic:
		return "task_panic"
	default:
		return "unknown"
	}
}

// Fault is the fatal result of a broken kernel contract.
//
// Faults are only created by the kernel. Once one is returned the kernel is
// halted and every later call returns the same Fault.
type Fault struct {
	Kind FaultKind
	Proc ProcID
	Peer ProcID
	// Chain lists the processes of a deadlock cycle, starting and ending at
	// the sender that would have closed it.
	Chain []ProcID
	Names []string
	// Value and Stack are set for FaultTaskPanic.
	Value  any
	Stack  []byte
	Detail string
}

func (f *Fault) Error() string {
	var b strings.Builder
	b.WriteString("kernel fault: ")
	b.WriteString(f.Kind.String())
	if len(f.Names) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(f.Names, "->"))
	}
	if f.Detail != "" {
		b.WriteString(": ")
		b.WriteString(f.Detail)
	}
	return b.String()
}

func (k *Kernel) faultf(kind FaultKind, proc, peer ProcID, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Proc: proc, Peer: peer, Detail: fmt.Sprintf(format, args...)}
}

// halt records f as the terminal fault unless one is already recorded, and
// returns the recorded fault.
func (k *Kernel) halt(f *Fault) *Fault {
	k.haltOnce.Do(func() {
		k.fault = f
		k.obs.Fault(f.Kind)
		fields := []zap.Field{
			zap.Stringer("kind", f.Kind),
			zap.String("proc", k.Name(f.Proc)),
			zap.String("peer", k.Name(f.Peer)),
		}
		if len(f.Names) > 0 {
			fields = append(fields, zap.Strings("chain", f.Names))
		}
		if f.Detail != "" {
			fields = append(fields, zap.String("detail", f.Detail))
		}
		k.log.Error("kernel halted", fields...)
		if k.onHalt != nil {
			k.onHalt(f)
		}
		close(k.halted)
	})
	return k.fault
}

// Halted returns the terminal fault, or nil while the kernel is healthy.
func (k *Kernel) Halted() *Fault { return k.fault }

// Done is closed once the kernel halts.
func (k *Kernel) Done() <-chan struct{} { return k.halted }
