package kernel

import "go.uber.org/zap/zapcore"

// ProcSnapshot is a copy of one table slot.
type ProcSnapshot struct {
	ID       ProcID
	Name     string
	State    State
	Priority int
	Ticks    int
	SendTo   ProcID
	RecvFrom ProcID
	Latched  bool
	Queue    []ProcID
}

func (s ProcSnapshot) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt32("id", int32(s.ID))
	enc.AddString("name", s.Name)
	enc.AddString("state", s.State.String())
	if s.State == StateFree {
		return nil
	}
	enc.AddInt("priority", s.Priority)
	enc.AddInt("ticks", s.Ticks)
	if s.SendTo != NoTask {
		enc.AddString("send_to", s.SendTo.String())
	}
	if s.RecvFrom != NoTask {
		enc.AddString("recv_from", s.RecvFrom.String())
	}
	if s.Latched {
		enc.AddBool("latched", true)
	}
	if len(s.Queue) > 0 {
		return enc.AddArray("queue", zapcore.ArrayMarshalerFunc(func(ae zapcore.ArrayEncoder) error {
			for _, id := range s.Queue {
				ae.AppendInt32(int32(id))
			}
			return nil
		}))
	}
	return nil
}

// Snapshot is a copy of the whole table.
type Snapshot []ProcSnapshot

func (s Snapshot) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for i := range s {
		if s[i].State == StateFree {
			continue
		}
		if err := enc.AppendObject(s[i]); err != nil {
			return err
		}
	}
	return nil
}

// Dump copies the process table.
func (k *Kernel) Dump() Snapshot {
	out := make(Snapshot, len(k.procs))
	for i := range k.procs {
		p := &k.procs[i]
		id := ProcID(i)
		out[i] = ProcSnapshot{
			ID:       id,
			Name:     k.Name(id),
			State:    p.state,
			Priority: p.priority,
			Ticks:    p.ticks,
			SendTo:   p.sendTo,
			RecvFrom: p.recvFrom,
			Latched:  p.intLatch,
			Queue:    k.Queue(id),
		}
	}
	return out
}
