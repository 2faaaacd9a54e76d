// Package ktest boots small kernels for package tests.
package ktest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"procyon/kernel"
)

// Region is the size of the segment given to every test slot.
const Region = 1024

// Slot describes one live process of a test kernel.
type Slot struct {
	Name     string
	Priority int
	Task     kernel.Task
}

// Boot builds a kernel with one segmented process per slot and invariant
// checks enabled.
func Boot(t testing.TB, slots []Slot, opts ...kernel.Option) *kernel.Kernel {
	t.Helper()
	specs := make([]kernel.ProcSpec, len(slots))
	for i, s := range slots {
		specs[i] = kernel.ProcSpec{
			Name:     s.Name,
			Priority: s.Priority,
			Space:    kernel.Segment{Base: uint32(i) * Region, Limit: Region},
			Task:     s.Task,
		}
	}
	opts = append([]kernel.Option{kernel.WithInvariantChecks(true)}, opts...)
	k, err := kernel.New(kernel.NewPhysMem(uint32(len(slots))*Region), specs, opts...)
	require.NoError(t, err)
	return k
}

// Park is a body that blocks on interrupts forever.
func Park() kernel.Task {
	return kernel.TaskFunc(func(ctx *kernel.Context) {
		for {
			ctx.Receive(kernel.Interrupt)
		}
	})
}
