package kernel

// Observer receives kernel events for accounting. Calls are made while the
// caller holds control of the kernel, so implementations must not call back
// into it.
type Observer interface {
	IPC(op Function, outcome Outcome)
	Interrupt(delivered bool)
	Scheduled()
	Refreshed()
	Fault(kind FaultKind)
	Blocked(sending, receiving int)
}

type nopObserver struct{}

func (nopObserver) IPC(Function, Outcome) {}
func (nopObserver) Interrupt(bool)        {}
func (nopObserver) Scheduled()            {}
func (nopObserver) Refreshed()            {}
func (nopObserver) Fault(FaultKind)       {}
func (nopObserver) Blocked(int, int)      {}

func (k *Kernel) reportBlocked() {
	var sending, receiving int
	for i := range k.procs {
		switch k.procs[i].state {
		case StateSending:
			sending++
		case StateReceiving:
			receiving++
		}
	}
	k.obs.Blocked(sending, receiving)
}
