package kernel

import "strconv"

// ProcID identifies a process table slot. The slot index is the identity.
//
// Negative values are sentinels and never index the table.
type ProcID int32

const (
	// NoTask marks an unused send target or receive filter.
	NoTask ProcID = -1
	// Any is the receive filter that accepts every sender.
	Any ProcID = -2
	// Interrupt is the receive filter for hardware notifications and the
	// Source of every synthesized interrupt message.
	Interrupt ProcID = -10
)

func (id ProcID) String() string {
	switch id {
	case NoTask:
		return "none"
	case Any:
		return "any"
	case Interrupt:
		return "interrupt"
	default:
		return strconv.Itoa(int(id))
	}
}

// State is the IPC state of a process.
type State uint8

const (
	StateRunnable State = iota
	StateSending
	StateReceiving
	StateFree
)

func (s State) String() string {
	switch s {
	case StateRunnable:
		return "runnable"
	case StateSending:
		return "sending"
	case StateReceiving:
		return "receiving"
	case StateFree:
		return "free"
	default:
		return "unknown"
	}
}

// Proc is one process table slot.
type Proc struct {
	name     string
	priority int
	ticks    int

	state    State
	sendTo   ProcID
	recvFrom ProcID

	// msg is the process-relative address of the message buffer, valid
	// while hasMsg.
	msg    uint32
	hasMsg bool

	intLatch bool

	// Senders blocked on this process, oldest first.
	qHead ProcID
	qTail ProcID
	// Link to the next sender queued on the same destination.
	nextSender ProcID

	space  AddressSpace
	flat   bool
	origin uint32
}

// ProcSpec describes one slot at boot.
type ProcSpec struct {
	Name     string
	Priority int
	// Free leaves the slot unused. Free slots are never scheduled and
	// cannot take part in IPC.
	Free bool
	// Flat processes must translate every address to itself.
	Flat  bool
	Space AddressSpace
	// Origin is the process-relative address of the private region the
	// process uses for its own message buffer and scratch data.
	Origin uint32
	Task   Task
}

func (p *Proc) reset() {
	p.state = StateRunnable
	p.sendTo = NoTask
	p.recvFrom = NoTask
	p.msg = 0
	p.hasMsg = false
	p.intLatch = false
	p.qHead = NoTask
	p.qTail = NoTask
	p.nextSender = NoTask
}

// Name returns the process name.
func (k *Kernel) Name(id ProcID) string {
	if !k.inRange(id) {
		return id.String()
	}
	if n := k.procs[id].name; n != "" {
		return n
	}
	return "proc" + strconv.Itoa(int(id))
}

// State returns the state of a process.
func (k *Kernel) State(id ProcID) State { return k.procs[id].state }

// Priority returns the static priority of a process.
func (k *Kernel) Priority(id ProcID) int { return k.procs[id].priority }

// Ticks returns the remaining quantum of a process.
func (k *Kernel) Ticks(id ProcID) int { return k.procs[id].ticks }

// SetTicks overwrites the remaining quantum of a process.
func (k *Kernel) SetTicks(id ProcID, ticks int) { k.procs[id].ticks = ticks }

// SendTarget returns the destination a Sending process waits on, or NoTask.
func (k *Kernel) SendTarget(id ProcID) ProcID { return k.procs[id].sendTo }

// RecvFilter returns the filter of a Receiving process, or NoTask.
func (k *Kernel) RecvFilter(id ProcID) ProcID { return k.procs[id].recvFrom }

// Latched reports whether an undelivered interrupt is pending for id.
func (k *Kernel) Latched(id ProcID) bool { return k.procs[id].intLatch }

// Origin returns the process-relative start of the private region of id.
func (k *Kernel) Origin(id ProcID) uint32 { return k.procs[id].origin }

// Len returns the table capacity.
func (k *Kernel) Len() int { return len(k.procs) }

func (k *Kernel) inRange(id ProcID) bool {
	return id >= 0 && int(id) < len(k.procs)
}

// live reports whether id names an in-use slot.
func (k *Kernel) live(id ProcID) bool {
	return k.inRange(id) && k.procs[id].state != StateFree
}
