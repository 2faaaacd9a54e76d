package syssvc

import (
	"go.uber.org/zap"

	"procyon/kernel"
	"procyon/userland/proto"
)

// Service answers system queries about the kernel itself.
type Service struct {
	log    *zap.Logger
	served uint64
}

func New(log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{log: log}
}

// Served returns the number of requests answered.
func (s *Service) Served() uint64 { return s.served }

func (s *Service) Run(ctx *kernel.Context) {
	for {
		msg := ctx.Receive(kernel.Any)
		if msg.Source == int32(kernel.Interrupt) {
			s.log.Debug("ignoring interrupt")
			continue
		}
		reply := s.handle(ctx, msg)
		ctx.Send(kernel.ProcID(msg.Source), &reply)
		s.served++
	}
}

func (s *Service) handle(ctx *kernel.Context, msg kernel.Message) kernel.Message {
	switch proto.Kind(msg.Type) {
	case proto.MsgGetTicks:
		return proto.Reply(int32(ctx.Uptime()))
	default:
		s.log.Warn("bad request",
			zap.Int32("from", msg.Source),
			zap.Stringer("kind", proto.Kind(msg.Type)),
		)
		return proto.ErrorReply(proto.ErrBadMessage, proto.Kind(msg.Type))
	}
}
