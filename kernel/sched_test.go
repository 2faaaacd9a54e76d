package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectNext_RefreshesExhaustedQuanta(t *testing.T) {
	k := newTestKernel(t, 5, 10, 3)
	for id := ProcID(0); id < 3; id++ {
		k.SetTicks(id, 0)
	}

	id, err := k.SelectNext()
	require.NoError(t, err)
	assert.Equal(t, ProcID(1), id)
	assert.Equal(t, 5, k.Ticks(0))
	assert.Equal(t, 10, k.Ticks(1))
	assert.Equal(t, 3, k.Ticks(2))
}

func TestSelectNext_TieGoesToLowestSlot(t *testing.T) {
	k := newTestKernel(t, 4, 4, 4)

	id, err := k.SelectNext()
	require.NoError(t, err)
	assert.Equal(t, ProcID(0), id)

	k.SetTicks(0, 2)
	id, err = k.SelectNext()
	require.NoError(t, err)
	assert.Equal(t, ProcID(1), id)
}

func TestSelectNext_SkipsBlockedAndFree(t *testing.T) {
	specs := testSpecs(9, 8, 7, 1)
	specs[0].Free = true
	k, err := New(NewPhysMem(4*testRegion), specs)
	require.NoError(t, err)

	send(t, k, 1, 3, 1)

	id, err := k.SelectNext()
	require.NoError(t, err)
	assert.Equal(t, ProcID(2), id)
}

func TestSelectNext_RefreshOnlyTouchesRunnable(t *testing.T) {
	k := newTestKernel(t, 6, 6, 2)
	send(t, k, 0, 1, 1)
	k.SetTicks(0, 0)
	k.SetTicks(1, 0)
	k.SetTicks(2, 0)

	id, err := k.SelectNext()
	require.NoError(t, err)
	assert.Equal(t, ProcID(1), id)
	assert.Equal(t, 0, k.Ticks(0))
	assert.Equal(t, 2, k.Ticks(2))
}

func TestSelectNext_Deterministic(t *testing.T) {
	a := newTestKernel(t, 3, 7, 7, 2)
	b := newTestKernel(t, 3, 7, 7, 2)

	for i := 0; i < 20; i++ {
		x, err := a.Schedule()
		require.NoError(t, err)
		y, err := b.Schedule()
		require.NoError(t, err)
		require.Equal(t, x, y)
		require.NoError(t, a.Tick())
		require.NoError(t, b.Tick())
	}
}

func TestSelectNext_ZeroPriorityIsFatal(t *testing.T) {
	specs := testSpecs(0, 0)
	_, err := New(NewPhysMem(2*testRegion), specs)
	require.Error(t, err)
	requireFault(t, err, FaultNoRunnable)
}

func TestTick_ReschedulesOnExhaustedQuantum(t *testing.T) {
	k := newTestKernel(t, 2, 1)
	require.Equal(t, ProcID(0), k.Current())

	require.NoError(t, k.Tick())
	assert.Equal(t, ProcID(0), k.Current())
	assert.Equal(t, 1, k.Ticks(0))

	require.NoError(t, k.Tick())
	assert.Equal(t, ProcID(1), k.Current())

	require.NoError(t, k.Tick())
	assert.Equal(t, ProcID(0), k.Current(), "refresh gives the higher priority the CPU")
	assert.Equal(t, 2, k.Ticks(0))
	assert.Equal(t, uint64(3), k.Uptime())
}

func TestTick_InsideIPCOnlyCounts(t *testing.T) {
	k := newTestKernel(t, 1, 1)
	k.ipcDepth = 1
	require.NoError(t, k.Tick())
	assert.Equal(t, ProcID(0), k.Current())
	assert.Equal(t, 0, k.Ticks(0))
}
