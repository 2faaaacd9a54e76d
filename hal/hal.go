package hal

// Console writes newline-delimited output lines.
type Console interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// Time provides a base tick stream.
//
// The tick duration is platform-defined; the kernel counts ticks, not time.
type Time interface {
	Ticks() <-chan uint64
}

// Line is a hardware interrupt line number.
type Line uint8

// IRQ provides raised interrupt lines.
//
// Lines are best-effort: a line raised while the queue is full is dropped.
type IRQ interface {
	Lines() <-chan Line
}

// HAL provides the only contact point between the kernel and the outside world.
type HAL interface {
	Console() Console
	Time() Time
	IRQ() IRQ
}
