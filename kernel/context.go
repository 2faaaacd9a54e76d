package kernel

import "runtime"

// Context provides process-local access to kernel operations.
//
// Every method may suspend the calling body. When the kernel halts, the body
// is unwound and the method never returns.
type Context struct {
	k  *Kernel
	id ProcID
}

// Pid returns the id of the calling process.
func (c *Context) Pid() ProcID { return c.id }

// Name returns the name of the calling process.
func (c *Context) Name() string { return c.k.Name(c.id) }

// Uptime returns the kernel tick counter.
func (c *Context) Uptime() uint64 { return c.k.uptime }

// MsgBuf returns the process-relative address of the IPC buffer.
func (c *Context) MsgBuf() uint32 { return c.k.procs[c.id].origin }

// Scratch returns the process-relative address of the first byte after the
// IPC buffer in the private region.
func (c *Context) Scratch() uint32 { return c.k.procs[c.id].origin + MessageSize }

// Send delivers m to dest, blocking until dest has received it.
func (c *Context) Send(dest ProcID, m *Message) {
	c.store(m)
	c.call(FuncSend, dest)
	m.Source = int32(c.id)
}

// Receive blocks until a message matching from arrives.
func (c *Context) Receive(from ProcID) Message {
	c.call(FuncReceive, from)
	return c.load()
}

// SendRec performs fn against peer with m as the buffer. FuncBoth sends m
// and then overwrites it with the reply from peer.
func (c *Context) SendRec(fn Function, peer ProcID, m *Message) {
	switch fn {
	case FuncSend:
		c.Send(peer, m)
	case FuncReceive:
		*m = c.Receive(peer)
	case FuncBoth:
		c.Send(peer, m)
		*m = Message{}
		*m = c.Receive(peer)
	default:
		c.store(m)
		c.call(fn, peer)
	}
}

// Yield gives the CPU back to the run loop. With a virtual clock it also
// counts as one tick.
func (c *Context) Yield() {
	k := c.k
	if k.virtualClock {
		if err := k.Tick(); err != nil {
			exitTask()
		}
	}
	k.park(c.id)
}

// Load copies n bytes at off in the address space of id.
func (c *Context) Load(id ProcID, off, n uint32) []byte {
	la := c.resolve(id, off, n)
	buf := make([]byte, n)
	c.k.mem.Read(la, buf)
	return buf
}

// Store copies data to off in the address space of id.
func (c *Context) Store(id ProcID, off uint32, data []byte) {
	la := c.resolve(id, off, uint32(len(data)))
	c.k.mem.Write(la, data)
}

func (c *Context) resolve(id ProcID, off, n uint32) uint32 {
	k := c.k
	if !k.live(id) {
		k.halt(k.faultf(FaultBadProc, c.id, id, "%s accessed memory of %s, which is not a live process", c.Name(), id))
		exitTask()
	}
	la, f := k.translate(id, off, n)
	if f != nil {
		k.halt(f)
		exitTask()
	}
	return la
}

func (c *Context) store(m *Message) {
	if err := c.k.WriteMessage(c.id, c.MsgBuf(), *m); err != nil {
		exitTask()
	}
}

func (c *Context) load() Message {
	m, err := c.k.ReadMessage(c.id, c.MsgBuf())
	if err != nil {
		exitTask()
	}
	return m
}

// call runs one kernel call and suspends the body until it is current
// again.
func (c *Context) call(fn Function, peer ProcID) {
	k := c.k
	out, err := k.SendRec(fn, c.id, peer, c.MsgBuf())
	if err != nil {
		exitTask()
	}
	if out != Blocked {
		if err := k.drainEvents(); err != nil {
			exitTask()
		}
	}
	for k.current != c.id || k.procs[c.id].state != StateRunnable {
		k.park(c.id)
	}
}

func exitTask() { runtime.Goexit() }
