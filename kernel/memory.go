package kernel

import (
	"fmt"
	"math"
)

// AddressSpace maps process-relative addresses to linear addresses.
type AddressSpace interface {
	// Translate returns the linear address of [off, off+n). ok is false if
	// the range is not accessible to the process.
	Translate(off, n uint32) (linear uint32, ok bool)
}

// Flat is an identity address space over [0, Limit).
type Flat struct {
	Limit uint32
}

func (f Flat) Translate(off, n uint32) (uint32, bool) {
	if !fits(off, n, f.Limit) {
		return 0, false
	}
	return off, true
}

func (f Flat) String() string { return fmt.Sprintf("flat[0,%#x)", f.Limit) }

// Segment relocates addresses by Base and bounds them by Limit.
type Segment struct {
	Base  uint32
	Limit uint32
}

func (s Segment) Translate(off, n uint32) (uint32, bool) {
	if !fits(off, n, s.Limit) {
		return 0, false
	}
	la := uint64(s.Base) + uint64(off)
	if la > math.MaxUint32 || la+uint64(n) > 1<<32 {
		return 0, false
	}
	return uint32(la), true
}

func (s Segment) String() string {
	return fmt.Sprintf("segment[%#x,+%#x)", s.Base, s.Limit)
}

func fits(off, n, limit uint32) bool {
	end := uint64(off) + uint64(n)
	return end <= uint64(limit)
}

// PhysMem is the linear memory shared by every address space.
//
// There is no protection beyond what the address spaces enforce.
type PhysMem struct {
	buf []byte
}

// NewPhysMem allocates size bytes of zeroed linear memory.
func NewPhysMem(size uint32) *PhysMem {
	return &PhysMem{buf: make([]byte, size)}
}

// Size returns the number of bytes of linear memory.
func (m *PhysMem) Size() uint32 { return uint32(len(m.buf)) }

// Contains reports whether [addr, addr+n) lies inside linear memory.
func (m *PhysMem) Contains(addr, n uint32) bool {
	return fits(addr, n, m.Size())
}

// RawCopy copies n bytes from src to dst. Both ranges must be in bounds.
func (m *PhysMem) RawCopy(dst, src, n uint32) {
	copy(m.buf[dst:dst+n], m.buf[src:src+n])
}

// Write copies data to linear address addr.
func (m *PhysMem) Write(addr uint32, data []byte) {
	copy(m.buf[addr:addr+uint32(len(data))], data)
}

// Read copies len(dst) bytes from linear address addr.
func (m *PhysMem) Read(addr uint32, dst []byte) {
	copy(dst, m.buf[addr:addr+uint32(len(dst))])
}

// translate resolves a process-relative range to a linear address.
func (k *Kernel) translate(id ProcID, off, n uint32) (uint32, *Fault) {
	p := &k.procs[id]
	if p.space == nil {
		return 0, k.faultf(FaultInvariant, id, NoTask, "%s has no address space", k.Name(id))
	}
	la, ok := p.space.Translate(off, n)
	if !ok || !k.mem.Contains(la, n) {
		return 0, k.faultf(FaultInvariant, id, NoTask,
			"%s: address %#x+%d is outside its address space", k.Name(id), off, n)
	}
	if p.flat && la != off {
		return 0, k.faultf(FaultInvariant, id, NoTask,
			"%s: flat address %#x translated to %#x", k.Name(id), off, la)
	}
	return la, nil
}
