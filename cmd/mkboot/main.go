package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"procyon/internal/config"
)

const defaultOutPath = "boot.yaml"

type options struct {
	out     string
	check   string
	tests   int
	users   int
	slots   int
	memory  uint
	irqLine int
}

func main() {
	var opts options
	flag.StringVar(&opts.out, "out", defaultOutPath, `Output manifest path ("-" for stdout).`)
	flag.StringVar(&opts.check, "check", "", "Validate an existing manifest instead of writing one.")
	flag.IntVar(&opts.tests, "tests", 3, "Number of native test processes.")
	flag.IntVar(&opts.users, "users", 0, "Number of segmented test processes.")
	flag.IntVar(&opts.slots, "slots", config.DefaultSlots, "Total process table size, padded with free slots.")
	flag.UintVar(&opts.memory, "memory", config.DefaultMemory, "Region size of every live slot (bytes).")
	flag.IntVar(&opts.irqLine, "tty-irq", 1, "Interrupt line routed to the TTY task.")
	flag.Parse()

	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(opts options, stdout io.Writer) error {
	if opts.check != "" {
		m, err := config.LoadManifest(opts.check)
		if err != nil {
			return err
		}
		summarize(stdout, m)
		return nil
	}

	m, err := build(opts)
	if err != nil {
		return err
	}
	data, err := m.Marshal()
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if opts.out == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.out, data, 0o644); err != nil {
		return fmt.Errorf("write manifest %q: %w", opts.out, err)
	}
	fmt.Fprintf(stdout, "wrote %s: %d slots\n", opts.out, len(m.Slots))
	return nil
}

// build lays out the stock services followed by INIT, the test processes
// and free slots.
func build(opts options) (*config.Manifest, error) {
	if opts.tests < 0 || opts.users < 0 {
		return nil, fmt.Errorf("process counts must not be negative")
	}
	mem := uint32(opts.memory)
	m := &config.Manifest{Slots: []config.Slot{
		{Name: "TTY", Kind: config.KindTask, Priority: config.TaskPriority, Memory: mem, IRQ: []int{opts.irqLine}, Program: "tty"},
		{Name: "SYS", Kind: config.KindTask, Priority: config.TaskPriority, Memory: mem, Program: "sys"},
		{Name: "INIT", Kind: config.KindNative, Priority: config.NativePriority, Memory: mem, Program: "idle"},
	}}
	for i := 0; i < opts.tests; i++ {
		m.Slots = append(m.Slots, config.Slot{
			Name: testName(i), Kind: config.KindNative, Priority: config.NativePriority, Memory: mem, Program: "testproc",
		})
	}
	for i := 0; i < opts.users; i++ {
		m.Slots = append(m.Slots, config.Slot{
			Name: fmt.Sprintf("user%d", i), Kind: config.KindUser, Priority: config.NativePriority, Memory: mem, Program: "testproc",
		})
	}
	if len(m.Slots) > opts.slots {
		return nil, fmt.Errorf("%d live slots do not fit a table of %d", len(m.Slots), opts.slots)
	}
	for i := len(m.Slots); i < opts.slots; i++ {
		m.Slots = append(m.Slots, config.Slot{Name: fmt.Sprintf("free%d", i), Kind: config.KindFree})
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func testName(i int) string {
	if i < 26 {
		return "Test" + string(rune('A'+i))
	}
	return fmt.Sprintf("Test%d", i)
}

func summarize(w io.Writer, m *config.Manifest) {
	_, total := m.Layout()
	live := 0
	for _, s := range m.Slots {
		if s.Kind != config.KindFree {
			live++
		}
	}
	fmt.Fprintf(w, "ok: %d slots, %d live, %d bytes\n", len(m.Slots), live, total)
	for line, slot := range m.Routes() {
		fmt.Fprintf(w, "irq %d -> %s\n", line, m.Slots[slot].Name)
	}
}
