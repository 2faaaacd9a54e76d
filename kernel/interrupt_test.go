package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyInterrupt_LatchDeliveredOnce(t *testing.T) {
	k := newTestKernel(t, 5, 5)
	p := ProcID(0)

	require.NoError(t, k.NotifyInterrupt(p))
	assert.True(t, k.Latched(p))
	assert.Equal(t, StateRunnable, k.State(p))

	assert.Equal(t, Delivered, receive(t, k, p, Any))
	m := received(t, k, p)
	assert.Equal(t, int32(Interrupt), m.Source)
	assert.Equal(t, HardInt, m.Type)
	assert.False(t, k.Latched(p))

	assert.Equal(t, Blocked, receive(t, k, p, Any), "the latch must not redeliver")
	assert.Equal(t, StateReceiving, k.State(p))
}

func TestNotifyInterrupt_LatchBeatsQueuedSender(t *testing.T) {
	k := newTestKernel(t, 5, 5)
	p := ProcID(0)

	send(t, k, 1, p, 3)
	require.NoError(t, k.NotifyInterrupt(p))

	assert.Equal(t, Delivered, receive(t, k, p, Any))
	assert.Equal(t, int32(Interrupt), received(t, k, p).Source)
	assert.Equal(t, []ProcID{1}, k.Queue(p))

	assert.Equal(t, Delivered, receive(t, k, p, Any))
	assert.Equal(t, int32(1), received(t, k, p).Source)
}

func TestNotifyInterrupt_DeliversToParkedReceiver(t *testing.T) {
	for _, filter := range []ProcID{Any, Interrupt} {
		k := newTestKernel(t, 5, 5)
		require.NoError(t, k.WriteMessage(0, recvBuf, Message{Type: 99, Ints: [4]int32{1, 2, 3, 4}}))

		assert.Equal(t, Blocked, receive(t, k, 0, filter))
		require.NoError(t, k.NotifyInterrupt(0))

		assert.Equal(t, StateRunnable, k.State(0))
		assert.Equal(t, NoTask, k.RecvFilter(0))
		assert.False(t, k.Latched(0))
		assert.Equal(t, Message{Source: int32(Interrupt), Type: HardInt}, received(t, k, 0))
		require.NoError(t, k.CheckInvariants())
	}
}

func TestNotifyInterrupt_LatchesForSpecificFilter(t *testing.T) {
	k := newTestKernel(t, 5, 5)

	assert.Equal(t, Blocked, receive(t, k, 0, 1))
	require.NoError(t, k.NotifyInterrupt(0))
	assert.Equal(t, StateReceiving, k.State(0))
	assert.True(t, k.Latched(0))
}

func TestNotifyInterrupt_LatchesForSender(t *testing.T) {
	k := newTestKernel(t, 5, 5)

	send(t, k, 0, 1, 1)
	require.NoError(t, k.NotifyInterrupt(0))
	assert.Equal(t, StateSending, k.State(0))
	assert.True(t, k.Latched(0))
}

func TestNotifyInterrupt_RepeatedCollapse(t *testing.T) {
	k := newTestKernel(t, 5, 5)

	require.NoError(t, k.NotifyInterrupt(0))
	require.NoError(t, k.NotifyInterrupt(0))
	assert.Equal(t, Delivered, receive(t, k, 0, Interrupt))
	assert.Equal(t, Blocked, receive(t, k, 0, Interrupt))
}

func TestReceive_InterruptFilterIgnoresLatchlessQueue(t *testing.T) {
	k := newTestKernel(t, 5, 5, 5)

	send(t, k, 1, 0, 1)
	assert.Equal(t, Blocked, receive(t, k, 0, Interrupt))
	assert.Equal(t, []ProcID{1}, k.Queue(0))
}

func TestReceive_SpecificFilterLeavesLatch(t *testing.T) {
	k := newTestKernel(t, 5, 5)

	send(t, k, 1, 0, 4)
	require.NoError(t, k.NotifyInterrupt(0))
	assert.Equal(t, Delivered, receive(t, k, 0, 1))
	assert.Equal(t, int32(1), received(t, k, 0).Source)
	assert.True(t, k.Latched(0))
}

func TestNotifyInterrupt_DeadTarget(t *testing.T) {
	specs := testSpecs(5, 5)
	specs[1].Free = true
	k, err := New(NewPhysMem(2*testRegion), specs)
	require.NoError(t, err)

	requireFault(t, k.NotifyInterrupt(1), FaultBadProc)
}
