package kernel

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slot struct {
	prio int
	task Task
}

func bootTasks(t *testing.T, slots []slot, opts ...Option) *Kernel {
	t.Helper()
	prios := make([]int, len(slots))
	for i, s := range slots {
		prios[i] = s.prio
	}
	specs := testSpecs(prios...)
	for i, s := range slots {
		specs[i].Task = s.task
	}
	opts = append([]Option{WithInvariantChecks(true)}, opts...)
	k, err := New(NewPhysMem(uint32(len(slots))*testRegion), specs, opts...)
	require.NoError(t, err)
	return k
}

func idle() Task {
	return TaskFunc(func(ctx *Context) {
		for {
			ctx.Yield()
		}
	})
}

func tracer(trace *[]string) Task {
	return TaskFunc(func(ctx *Context) {
		for {
			*trace = append(*trace, ctx.Name())
			ctx.Yield()
		}
	})
}

func TestContext_SendRecBothRoundTrip(t *testing.T) {
	server := TaskFunc(func(ctx *Context) {
		for {
			m := ctx.Receive(Any)
			var reply Message
			reply.SetRetVal(m.Ints[1] * 2)
			ctx.Send(ProcID(m.Source), &reply)
		}
	})

	var got Message
	done := false
	client := TaskFunc(func(ctx *Context) {
		m := Message{Type: 7, Ints: [4]int32{0, 21}}
		ctx.SendRec(FuncBoth, 0, &m)
		got = m
		done = true
		ctx.Receive(Interrupt)
	})

	k := bootTasks(t, []slot{{5, server}, {5, client}, {1, idle()}})
	require.NoError(t, k.RunSteps(8))

	require.True(t, done)
	assert.Equal(t, int32(42), got.RetVal())
	assert.Equal(t, int32(0), got.Source)
	assert.Equal(t, StateReceiving, k.State(0))
	assert.Equal(t, Any, k.RecvFilter(0))
	assert.Equal(t, StateReceiving, k.State(1))
	assert.Nil(t, k.Halted())
}

func TestContext_TaskPanicHalts(t *testing.T) {
	var seen *Fault
	calls := 0
	k := bootTasks(t, []slot{
		{5, TaskFunc(func(ctx *Context) { panic("boom") })},
		{1, idle()},
	}, OnHalt(func(f *Fault) {
		calls++
		seen = f
	}))

	err := k.RunSteps(3)
	f := requireFault(t, err, FaultTaskPanic)
	assert.Equal(t, ProcID(0), f.Proc)
	assert.Equal(t, "boom", f.Value)
	assert.NotEmpty(t, f.Stack)
	assert.Equal(t, 1, calls)
	assert.Same(t, f, seen)

	assert.Same(t, f, k.Step(), "a halted kernel keeps reporting the first fault")
	select {
	case <-k.Done():
	default:
		t.Fatal("Done not closed after halt")
	}
}

func TestContext_TaskReturnHalts(t *testing.T) {
	k := bootTasks(t, []slot{
		{5, TaskFunc(func(ctx *Context) {})},
		{1, idle()},
	})

	f := requireFault(t, k.RunSteps(2), FaultTaskExit)
	assert.Equal(t, ProcID(0), f.Proc)
}

func TestContext_DeadlockBetweenTasks(t *testing.T) {
	k := bootTasks(t, []slot{
		{5, TaskFunc(func(ctx *Context) {
			ctx.Send(1, &Message{Type: 1})
		})},
		{4, TaskFunc(func(ctx *Context) {
			ctx.Send(0, &Message{Type: 2})
		})},
		{1, idle()},
	})

	f := requireFault(t, k.RunSteps(4), FaultDeadlock)
	assert.Equal(t, []ProcID{1, 0, 1}, f.Chain)
	assert.Equal(t, []string{"P1", "P0", "P1"}, f.Names)
	assert.Contains(t, f.Error(), "P1->P0->P1")
}

func TestContext_PostInterruptWakesReceiver(t *testing.T) {
	var got []Message
	handler := TaskFunc(func(ctx *Context) {
		for {
			got = append(got, ctx.Receive(Interrupt))
		}
	})

	k := bootTasks(t, []slot{{5, handler}, {1, idle()}}, WithVirtualClock(true))
	require.NoError(t, k.RunSteps(2))
	require.Empty(t, got)

	k.PostInterrupt(0)
	require.NoError(t, k.RunSteps(4))

	require.Len(t, got, 1)
	assert.Equal(t, int32(Interrupt), got[0].Source)
	assert.Equal(t, HardInt, got[0].Type)
	assert.Equal(t, StateReceiving, k.State(0))
}

func TestContext_VirtualClockRoundRobin(t *testing.T) {
	var trace []string
	specs := []slot{{3, tracer(&trace)}, {1, tracer(&trace)}}
	k := bootTasks(t, specs, WithVirtualClock(true))

	require.NoError(t, k.RunSteps(8))
	got := strings.Join(trace, "")
	assert.Equal(t, "P0P0P0P1P0P0P0P1", got)
	assert.Equal(t, uint64(8), k.Uptime())
}

func TestContext_PostTickPreempts(t *testing.T) {
	var trace []string
	k := bootTasks(t, []slot{{1, tracer(&trace)}, {1, tracer(&trace)}})

	require.NoError(t, k.RunSteps(2))
	assert.Equal(t, []string{"P0", "P0"}, trace)

	k.PostTick()
	require.NoError(t, k.Step())
	assert.Equal(t, []string{"P0", "P0", "P1"}, trace)
	assert.Equal(t, uint64(1), k.Uptime())
}

func TestContext_LoadFromSenderSpace(t *testing.T) {
	payload := []byte("hello, world")
	var text string
	writer := TaskFunc(func(ctx *Context) {
		ctx.Store(ctx.Pid(), ctx.Scratch(), payload)
		m := Message{Type: 3, Ints: [4]int32{0, int32(len(payload))}, Ptrs: [2]uint32{ctx.Scratch()}}
		ctx.Send(1, &m)
		ctx.Receive(Interrupt)
	})
	reader := TaskFunc(func(ctx *Context) {
		m := ctx.Receive(Any)
		text = string(ctx.Load(ProcID(m.Source), m.Ptrs[0], uint32(m.Ints[1])))
		ctx.Receive(Interrupt)
	})

	k := bootTasks(t, []slot{{5, writer}, {4, reader}, {1, idle()}})
	require.NoError(t, k.RunSteps(4))
	assert.Equal(t, "hello, world", text)
}

func TestContext_LoadOutOfSpaceHalts(t *testing.T) {
	k := bootTasks(t, []slot{
		{5, TaskFunc(func(ctx *Context) {
			ctx.Load(ctx.Pid(), testRegion-4, 8)
		})},
		{1, idle()},
	})

	requireFault(t, k.RunSteps(2), FaultInvariant)
}

func TestContext_InvalidFunctionHalts(t *testing.T) {
	k := bootTasks(t, []slot{
		{5, TaskFunc(func(ctx *Context) {
			ctx.SendRec(Function(9), 1, &Message{})
		})},
		{1, idle()},
	})

	requireFault(t, k.RunSteps(2), FaultBadFunction)
}

func TestRun_StopsOnCancel(t *testing.T) {
	k := bootTasks(t, []slot{{1, idle()}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, k.Run(ctx), context.Canceled)
}

func TestRun_ReturnsFault(t *testing.T) {
	k := bootTasks(t, []slot{
		{5, TaskFunc(func(ctx *Context) { ctx.Send(0, &Message{}) })},
		{1, idle()},
	})
	requireFault(t, k.Run(context.Background()), FaultSelfSend)
}
