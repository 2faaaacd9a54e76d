package proto

import "procyon/kernel"

// Kind identifies the request carried in kernel.Message.Type. Kind 1 is
// reserved for kernel.HardInt.
type Kind int32

const (
	MsgGetTicks Kind = iota + 2
	MsgTTYWrite
	MsgReply
	MsgError
)

func (k Kind) String() string {
	switch k {
	case Kind(kernel.HardInt):
		return "hard_int"
	case MsgGetTicks:
		return "get_ticks"
	case MsgTTYWrite:
		return "tty_write"
	case MsgReply:
		return "reply"
	case MsgError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrCode is a generic error category for MsgError replies.
type ErrCode int32

const (
	ErrUnknown ErrCode = iota
	ErrBadMessage
	ErrTooLarge
)

func (c ErrCode) String() string {
	switch c {
	case ErrBadMessage:
		return "bad_message"
	case ErrTooLarge:
		return "too_large"
	default:
		return "unknown"
	}
}

// MaxWrite bounds the payload of one MsgTTYWrite.
const MaxWrite = 256

// Reply builds a MsgReply carrying ret in the RetVal slot.
func Reply(ret int32) kernel.Message {
	m := kernel.Message{Type: int32(MsgReply)}
	m.SetRetVal(ret)
	return m
}

// ErrorReply builds a MsgError reply.
//
// Layout:
//   - Ints[1]: code
//   - Ints[2]: kind of the request that failed
func ErrorReply(code ErrCode, ref Kind) kernel.Message {
	return kernel.Message{
		Type: int32(MsgError),
		Ints: [4]int32{-1, int32(code), int32(ref)},
	}
}

// DecodeError decodes a MsgError reply.
func DecodeError(m kernel.Message) (code ErrCode, ref Kind, ok bool) {
	if Kind(m.Type) != MsgError {
		return 0, 0, false
	}
	return ErrCode(m.Ints[1]), Kind(m.Ints[2]), true
}

// TTYWrite builds a write request for len bytes at addr in the address
// space of the sender.
//
// Layout:
//   - Ptrs[0]: addr
//   - Ints[1]: len
func TTYWrite(addr uint32, n int) kernel.Message {
	return kernel.Message{
		Type: int32(MsgTTYWrite),
		Ints: [4]int32{0, int32(n)},
		Ptrs: [2]uint32{addr},
	}
}
