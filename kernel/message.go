package kernel

import "encoding/binary"

// MessageSize is the size of an encoded Message in bytes.
const MessageSize = 32

// HardInt is the Type of every synthesized interrupt message.
const HardInt int32 = 1

// Message is the fixed-layout IPC record.
//
// Layout (little-endian):
//   - i32 @0:  Source
//   - i32 @4:  Type
//   - i32 @8:  Ints[0..3]
//   - u32 @24: Ptrs[0..1]
//
// Ptrs hold addresses relative to the address space of the process that
// filled them in.
type Message struct {
	Source int32
	Type   int32
	Ints   [4]int32
	Ptrs   [2]uint32
}

// RetVal returns the conventional return value slot.
func (m *Message) RetVal() int32 { return m.Ints[0] }

// SetRetVal sets the conventional return value slot.
func (m *Message) SetRetVal(v int32) { m.Ints[0] = v }

// Encode writes m into b, which must hold at least MessageSize bytes.
func (m *Message) Encode(b []byte) {
	_ = b[MessageSize-1]
	binary.LittleEndian.PutUint32(b[0:4], uint32(m.Source))
	binary.LittleEndian.PutUint32(b[4:8], uint32(m.Type))
	for i, v := range m.Ints {
		binary.LittleEndian.PutUint32(b[8+4*i:12+4*i], uint32(v))
	}
	for i, v := range m.Ptrs {
		binary.LittleEndian.PutUint32(b[24+4*i:28+4*i], v)
	}
}

// DecodeMessage reads a Message from b, which must hold at least
// MessageSize bytes.
func DecodeMessage(b []byte) Message {
	_ = b[MessageSize-1]
	var m Message
	m.Source = int32(binary.LittleEndian.Uint32(b[0:4]))
	m.Type = int32(binary.LittleEndian.Uint32(b[4:8]))
	for i := range m.Ints {
		m.Ints[i] = int32(binary.LittleEndian.Uint32(b[8+4*i : 12+4*i]))
	}
	for i := range m.Ptrs {
		m.Ptrs[i] = binary.LittleEndian.Uint32(b[24+4*i : 28+4*i])
	}
	return m
}

func interruptMessage() Message {
	return Message{Source: int32(Interrupt), Type: HardInt}
}

func (k *Kernel) putMessage(la uint32, m Message) {
	var buf [MessageSize]byte
	m.Encode(buf[:])
	k.mem.Write(la, buf[:])
}

func (k *Kernel) getMessage(la uint32) Message {
	var buf [MessageSize]byte
	k.mem.Read(la, buf[:])
	return DecodeMessage(buf[:])
}

func (k *Kernel) stampSource(la uint32, src ProcID) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(int32(src)))
	k.mem.Write(la, buf[:])
}

// WriteMessage encodes m into the address space of id at off.
func (k *Kernel) WriteMessage(id ProcID, off uint32, m Message) error {
	if k.fault != nil {
		return k.fault
	}
	if !k.live(id) {
		return k.halt(k.faultf(FaultBadProc, id, NoTask, "write message: %s is not a live process", id))
	}
	la, f := k.translate(id, off, MessageSize)
	if f != nil {
		return k.halt(f)
	}
	k.putMessage(la, m)
	return nil
}

// ReadMessage decodes the message at off in the address space of id.
func (k *Kernel) ReadMessage(id ProcID, off uint32) (Message, error) {
	if k.fault != nil {
		return Message{}, k.fault
	}
	if !k.live(id) {
		return Message{}, k.halt(k.faultf(FaultBadProc, id, NoTask, "read message: %s is not a live process", id))
	}
	la, f := k.translate(id, off, MessageSize)
	if f != nil {
		return Message{}, k.halt(f)
	}
	return k.getMessage(la), nil
}
