package kernel

import (
	"errors"
	"fmt"
)

// CheckInvariants verifies the process table and returns every violation
// found, joined.
func (k *Kernel) CheckInvariants() error {
	var errs []error
	waiting := make([]int, len(k.procs))

	for i := range k.procs {
		id := ProcID(i)
		p := &k.procs[i]
		if p.state > StateFree {
			errs = append(errs, fmt.Errorf("%s: unknown state %d", k.Name(id), p.state))
			continue
		}
		if (p.sendTo != NoTask) != (p.state == StateSending) {
			errs = append(errs, fmt.Errorf("%s: send target %s in state %s", k.Name(id), p.sendTo, p.state))
		}
		if (p.recvFrom != NoTask) != (p.state == StateReceiving) {
			errs = append(errs, fmt.Errorf("%s: receive filter %s in state %s", k.Name(id), p.recvFrom, p.state))
		}
		blocked := p.state == StateSending || p.state == StateReceiving
		if p.hasMsg != blocked {
			errs = append(errs, fmt.Errorf("%s: message buffer set=%t in state %s", k.Name(id), p.hasMsg, p.state))
		}
		if p.state == StateSending {
			if !k.live(p.sendTo) {
				errs = append(errs, fmt.Errorf("%s: sending to dead slot %s", k.Name(id), p.sendTo))
			} else {
				waiting[p.sendTo]++
			}
		}
	}

	for i := range k.procs {
		id := ProcID(i)
		q := k.Queue(id)
		if len(q) > len(k.procs) {
			errs = append(errs, fmt.Errorf("%s: sender queue does not terminate", k.Name(id)))
			continue
		}
		for _, s := range q {
			if s == id {
				errs = append(errs, fmt.Errorf("%s: queued on itself", k.Name(id)))
			}
			if p := &k.procs[s]; p.state != StateSending || p.sendTo != id {
				errs = append(errs, fmt.Errorf("%s: queued %s is %s to %s", k.Name(id), k.Name(s), p.state, p.sendTo))
			}
		}
		if len(q) != waiting[i] {
			errs = append(errs, fmt.Errorf("%s: queue holds %d senders, %d are sending to it", k.Name(id), len(q), waiting[i]))
		}
		if len(q) > 0 && k.procs[i].qTail != q[len(q)-1] {
			errs = append(errs, fmt.Errorf("%s: queue tail %s, last entry %s", k.Name(id), k.procs[i].qTail, q[len(q)-1]))
		}
	}
	return errors.Join(errs...)
}
