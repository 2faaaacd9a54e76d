package kernel

// The sender queue of a destination is an intrusive singly linked list of
// process ids threaded through Proc.nextSender. Appends are O(1) through
// qTail; removal walks from qHead.

func (k *Kernel) enqueue(dest, sender ProcID) {
	d := &k.procs[dest]
	s := &k.procs[sender]
	s.nextSender = NoTask
	if d.qHead == NoTask {
		d.qHead = sender
		d.qTail = sender
		return
	}
	k.procs[d.qTail].nextSender = sender
	d.qTail = sender
}

// unlink removes sender from the queue of dest, keeping the order of the
// remaining entries. It reports false if sender was not queued there.
func (k *Kernel) unlink(dest, sender ProcID) bool {
	d := &k.procs[dest]
	prev := NoTask
	for cur := d.qHead; cur != NoTask; cur = k.procs[cur].nextSender {
		if cur != sender {
			prev = cur
			continue
		}
		next := k.procs[cur].nextSender
		if prev == NoTask {
			d.qHead = next
		} else {
			k.procs[prev].nextSender = next
		}
		if d.qTail == cur {
			d.qTail = prev
		}
		k.procs[cur].nextSender = NoTask
		return true
	}
	return false
}

// Queue returns the ids currently blocked sending to dest, oldest first.
func (k *Kernel) Queue(dest ProcID) []ProcID {
	var out []ProcID
	for cur := k.procs[dest].qHead; cur != NoTask; cur = k.procs[cur].nextSender {
		out = append(out, cur)
		if len(out) > len(k.procs) {
			// A cycle in the links; CheckInvariants reports it.
			break
		}
	}
	return out
}
