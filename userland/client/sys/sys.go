package sys

import (
	"fmt"

	"procyon/kernel"
	"procyon/userland/proto"
)

// GetTicks asks the system task at sys for the kernel tick counter.
func GetTicks(ctx *kernel.Context, sys kernel.ProcID) (uint64, error) {
	msg := kernel.Message{Type: int32(proto.MsgGetTicks)}
	ctx.SendRec(kernel.FuncBoth, sys, &msg)
	if code, _, ok := proto.DecodeError(msg); ok {
		return 0, fmt.Errorf("get ticks: %s", code)
	}
	if proto.Kind(msg.Type) != proto.MsgReply {
		return 0, fmt.Errorf("get ticks: unexpected reply %s", proto.Kind(msg.Type))
	}
	return uint64(uint32(msg.RetVal())), nil
}
