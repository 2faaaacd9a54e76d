package kernel

// deadlockChain follows send targets from dest. If the walk reaches src,
// queuing src on dest would close a cycle; the cycle is returned as
// [src, dest, ..., src]. It returns nil when no cycle exists.
func (k *Kernel) deadlockChain(src, dest ProcID) []ProcID {
	chain := []ProcID{src, dest}
	p := dest
	for k.procs[p].state == StateSending {
		next := k.procs[p].sendTo
		chain = append(chain, next)
		if next == src {
			return chain
		}
		if len(chain) > len(k.procs)+1 {
			// Only reachable with a corrupted table; a cycle that does
			// not include src already exists.
			return nil
		}
		p = next
	}
	return nil
}

// WouldDeadlock reports whether src sending to dest would close a cycle of
// blocked senders.
func (k *Kernel) WouldDeadlock(src, dest ProcID) bool {
	return k.deadlockChain(src, dest) != nil
}

func (k *Kernel) deadlockFault(chain []ProcID) *Fault {
	names := make([]string, len(chain))
	for i, id := range chain {
		names[i] = k.Name(id)
	}
	return &Fault{
		Kind:  FaultDeadlock,
		Proc:  chain[0],
		Peer:  chain[1],
		Chain: chain,
		Names: names,
	}
}
