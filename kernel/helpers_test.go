package kernel

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testRegion = 256
	sendBuf    = 0
	recvBuf    = 64
)

func testSpecs(priorities ...int) []ProcSpec {
	specs := make([]ProcSpec, len(priorities))
	for i, prio := range priorities {
		specs[i] = ProcSpec{
			Name:     fmt.Sprintf("P%d", i),
			Priority: prio,
			Space:    Segment{Base: uint32(i) * testRegion, Limit: testRegion},
		}
	}
	return specs
}

func newTestKernel(t *testing.T, priorities ...int) *Kernel {
	t.Helper()
	mem := NewPhysMem(uint32(len(priorities)) * testRegion)
	k, err := New(mem, testSpecs(priorities...), WithInvariantChecks(true))
	require.NoError(t, err)
	return k
}

func send(t *testing.T, k *Kernel, from, to ProcID, typ int32) Outcome {
	t.Helper()
	msg := Message{Type: typ, Ints: [4]int32{0, int32(from) * 100, typ}}
	require.NoError(t, k.WriteMessage(from, sendBuf, msg))
	out, err := k.Send(from, to, sendBuf)
	require.NoError(t, err)
	return out
}

func receive(t *testing.T, k *Kernel, id, from ProcID) Outcome {
	t.Helper()
	out, err := k.Receive(id, from, recvBuf)
	require.NoError(t, err)
	return out
}

func received(t *testing.T, k *Kernel, id ProcID) Message {
	t.Helper()
	m, err := k.ReadMessage(id, recvBuf)
	require.NoError(t, err)
	return m
}

func requireFault(t *testing.T, err error, kind FaultKind) *Fault {
	t.Helper()
	require.Error(t, err)
	var f *Fault
	require.True(t, errors.As(err, &f), "error %v is not a *Fault", err)
	require.Equal(t, kind, f.Kind, "fault: %v", f)
	return f
}
