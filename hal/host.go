package hal

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type hostHAL struct {
	console *hostConsole
	t       *hostTime
	irq     *hostIRQ
}

// Config tunes the host HAL.
type Config struct {
	// Out receives console lines. Defaults to stdout.
	Out io.Writer
	// Tick is the duration of one clock tick. Defaults to 1ms.
	Tick time.Duration
}

// New returns a host HAL implementation.
func New(cfg Config) HAL {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Tick <= 0 {
		cfg.Tick = time.Millisecond
	}
	return &hostHAL{
		console: &hostConsole{w: cfg.Out},
		t:       newHostTime(cfg.Tick),
		irq:     newHostIRQ(),
	}
}

func (h *hostHAL) Console() Console { return h.console }
func (h *hostHAL) Time() Time       { return h.t }
func (h *hostHAL) IRQ() IRQ         { return h.irq }

// Raise raises line on a host HAL. It reports false if h is not a host HAL
// or the line was dropped.
func Raise(h HAL, line Line) bool {
	hh, ok := h.(*hostHAL)
	if !ok {
		return false
	}
	return hh.irq.raise(line)
}

type hostConsole struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *hostConsole) WriteLineString(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, s)
}

func (c *hostConsole) WriteLineBytes(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.w.Write(b)
	c.w.Write([]byte{'\n'})
}

type hostIRQ struct {
	ch chan Line
}

func newHostIRQ() *hostIRQ {
	return &hostIRQ{ch: make(chan Line, 64)}
}

func (q *hostIRQ) Lines() <-chan Line { return q.ch }

func (q *hostIRQ) raise(line Line) bool {
	select {
	case q.ch <- line:
		return true
	default:
		return false
	}
}
