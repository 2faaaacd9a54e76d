package tty

import (
	"fmt"

	"procyon/kernel"
	"procyon/userland/proto"
)

// Write prints text on the console served by tty. The text is staged in
// the scratch area of the caller and read by the driver through the
// caller's address space.
func Write(ctx *kernel.Context, tty kernel.ProcID, text []byte) (int, error) {
	if len(text) > proto.MaxWrite {
		return 0, fmt.Errorf("tty write: %d bytes exceeds %d", len(text), proto.MaxWrite)
	}
	addr := ctx.Scratch()
	ctx.Store(ctx.Pid(), addr, text)

	msg := proto.TTYWrite(addr, len(text))
	ctx.SendRec(kernel.FuncBoth, tty, &msg)
	if code, _, ok := proto.DecodeError(msg); ok {
		return 0, fmt.Errorf("tty write: %s", code)
	}
	return int(msg.RetVal()), nil
}

// Printf formats according to format and writes the result.
func Printf(ctx *kernel.Context, tty kernel.ProcID, format string, args ...any) error {
	_, err := Write(ctx, tty, []byte(fmt.Sprintf(format, args...)))
	return err
}
