package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Kind selects how a boot slot is privileged and mapped.
type Kind string

const (
	// KindTask is a driver or system task: flat mapping, high priority.
	KindTask Kind = "task"
	// KindNative is a user process with a flat mapping.
	KindNative Kind = "native"
	// KindUser is a user process confined to its own segment.
	KindUser Kind = "user"
	// KindFree is an unused slot.
	KindFree Kind = "free"
)

// Flat reports whether slots of kind k use the identity mapping.
func (k Kind) Flat() bool { return k == KindTask || k == KindNative }

const (
	TaskPriority   = 15
	NativePriority = 5
	// DefaultMemory is the region size given to live slots that do not
	// set one.
	DefaultMemory = 4096
	// MinMemory holds the IPC buffer and a console write buffer.
	MinMemory  = 512
	MaxIRQLine = 255
	// DefaultSlots is the size of the default process table.
	DefaultSlots = 37
)

// Slot is one entry of the process table.
type Slot struct {
	Name     string `yaml:"name"`
	Kind     Kind   `yaml:"kind"`
	Priority int    `yaml:"priority,omitempty"`
	Memory   uint32 `yaml:"memory,omitempty"`
	IRQ      []int  `yaml:"irq,omitempty"`
	Program  string `yaml:"program,omitempty"`
}

// Manifest is the boot description of the process table. Slot order is
// process id order.
type Manifest struct {
	Slots []Slot `yaml:"slots"`
}

// Region is the slice of linear memory reserved for one slot.
type Region struct {
	Base uint32
	Size uint32
}

// DefaultManifest returns the stock process table: the system tasks, the
// native processes and free slots up to DefaultSlots.
func DefaultManifest() *Manifest {
	m := &Manifest{Slots: []Slot{
		{Name: "TTY", Kind: KindTask, Priority: TaskPriority, IRQ: []int{1}, Program: "tty"},
		{Name: "SYS", Kind: KindTask, Priority: TaskPriority, Program: "sys"},
		{Name: "INIT", Kind: KindNative, Priority: NativePriority, Program: "idle"},
		{Name: "TestA", Kind: KindNative, Priority: NativePriority, Program: "testproc"},
		{Name: "TestB", Kind: KindNative, Priority: NativePriority, Program: "testproc"},
		{Name: "TestC", Kind: KindNative, Priority: NativePriority, Program: "testproc"},
	}}
	for i := len(m.Slots); i < DefaultSlots; i++ {
		m.Slots = append(m.Slots, Slot{Name: fmt.Sprintf("free%d", i), Kind: KindFree})
	}
	m.applyDefaults()
	return m
}

// LoadManifest reads and validates the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load manifest %q: %w", path, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("load manifest %q: %w", path, err)
	}
	return m, nil
}

// ParseManifest decodes and validates a YAML manifest. Unknown fields are
// rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.UnmarshalWithOptions(data, &m, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Marshal encodes m as YAML.
func (m *Manifest) Marshal() ([]byte, error) {
	return yaml.Marshal(m)
}

func (m *Manifest) applyDefaults() {
	for i := range m.Slots {
		s := &m.Slots[i]
		if s.Kind == "" {
			s.Kind = KindUser
		}
		if s.Kind == KindFree {
			continue
		}
		if s.Memory == 0 {
			s.Memory = DefaultMemory
		}
		if s.Priority == 0 {
			if s.Kind == KindTask {
				s.Priority = TaskPriority
			} else {
				s.Priority = NativePriority
			}
		}
	}
}

var ErrNoLiveSlot = errors.New("manifest has no live slot")

// Validate checks names, kinds, priorities and interrupt routing.
func (m *Manifest) Validate() error {
	var errs []error
	names := make(map[string]int, len(m.Slots))
	lines := make(map[int]string)
	live := 0

	for i, s := range m.Slots {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("slot %d: missing name", i))
		} else if j, dup := names[s.Name]; dup {
			errs = append(errs, fmt.Errorf("slot %d: name %q already used by slot %d", i, s.Name, j))
		} else {
			names[s.Name] = i
		}

		switch s.Kind {
		case KindTask, KindNative, KindUser:
		case KindFree:
			if len(s.IRQ) > 0 {
				errs = append(errs, fmt.Errorf("slot %d (%s): free slot routes interrupts", i, s.Name))
			}
			continue
		default:
			errs = append(errs, fmt.Errorf("slot %d (%s): unknown kind %q", i, s.Name, s.Kind))
			continue
		}

		live++
		if s.Priority <= 0 {
			errs = append(errs, fmt.Errorf("slot %d (%s): priority must be positive, got %d", i, s.Name, s.Priority))
		}
		if s.Memory < MinMemory {
			errs = append(errs, fmt.Errorf("slot %d (%s): memory %d below %d bytes", i, s.Name, s.Memory, MinMemory))
		}
		if s.Program == "" {
			errs = append(errs, fmt.Errorf("slot %d (%s): missing program", i, s.Name))
		}
		for _, line := range s.IRQ {
			if line < 0 || line > MaxIRQLine {
				errs = append(errs, fmt.Errorf("slot %d (%s): irq %d out of range", i, s.Name, line))
				continue
			}
			if owner, taken := lines[line]; taken {
				errs = append(errs, fmt.Errorf("slot %d (%s): irq %d already routed to %s", i, s.Name, line, owner))
				continue
			}
			lines[line] = s.Name
		}
	}
	if live == 0 {
		errs = append(errs, ErrNoLiveSlot)
	}
	return errors.Join(errs...)
}

// Layout assigns consecutive linear regions to live slots and returns them
// with the total memory size. Free slots get an empty region.
func (m *Manifest) Layout() ([]Region, uint32) {
	regions := make([]Region, len(m.Slots))
	var base uint32
	for i, s := range m.Slots {
		if s.Kind == KindFree {
			continue
		}
		regions[i] = Region{Base: base, Size: s.Memory}
		base += s.Memory
	}
	return regions, base
}

// Routes maps interrupt lines to slot indexes.
func (m *Manifest) Routes() map[int]int {
	routes := make(map[int]int)
	for i, s := range m.Slots {
		for _, line := range s.IRQ {
			routes[line] = i
		}
	}
	return routes
}
