package ttysvc

import (
	"go.uber.org/zap"

	"procyon/hal"
	"procyon/kernel"
	"procyon/userland/proto"
)

// Service is the console driver. It counts hardware interrupts routed to
// it and prints the buffers other processes ask it to write.
type Service struct {
	out hal.Console
	log *zap.Logger

	interrupts uint64
	writes     uint64
}

func New(out hal.Console, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{out: out, log: log}
}

// Interrupts returns the number of hardware interrupts received.
func (s *Service) Interrupts() uint64 { return s.interrupts }

// Writes returns the number of write requests served.
func (s *Service) Writes() uint64 { return s.writes }

func (s *Service) Run(ctx *kernel.Context) {
	for {
		msg := ctx.Receive(kernel.Any)
		if msg.Source == int32(kernel.Interrupt) {
			s.interrupts++
			s.log.Debug("interrupt", zap.Uint64("count", s.interrupts))
			continue
		}

		from := kernel.ProcID(msg.Source)
		var reply kernel.Message
		switch proto.Kind(msg.Type) {
		case proto.MsgTTYWrite:
			reply = s.write(ctx, from, msg)
		default:
			reply = proto.ErrorReply(proto.ErrBadMessage, proto.Kind(msg.Type))
		}
		ctx.Send(from, &reply)
	}
}

func (s *Service) write(ctx *kernel.Context, from kernel.ProcID, msg kernel.Message) kernel.Message {
	n := msg.Ints[1]
	if n < 0 || n > proto.MaxWrite {
		s.log.Warn("write too large", zap.Stringer("from", from), zap.Int32("len", n))
		return proto.ErrorReply(proto.ErrTooLarge, proto.MsgTTYWrite)
	}
	data := ctx.Load(from, msg.Ptrs[0], uint32(n))
	if s.out != nil {
		s.out.WriteLineBytes(data)
	}
	s.writes++
	s.log.Debug("write", zap.Stringer("from", from), zap.Int32("len", n))
	return proto.Reply(n)
}
