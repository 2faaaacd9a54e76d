package testproc

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procyon/hal"
	"procyon/internal/ktest"
	"procyon/kernel"
	syssvc "procyon/userland/services/sys"
	ttysvc "procyon/userland/services/tty"
	"procyon/userland/tasks/idle"
)

func TestTask_ReportsTicks(t *testing.T) {
	var out bytes.Buffer
	console := hal.New(hal.Config{Out: &out}).Console()

	k := ktest.Boot(t, []ktest.Slot{
		{Name: "TTY", Priority: 15, Task: ttysvc.New(console, nil)},
		{Name: "SYS", Priority: 15, Task: syssvc.New(nil)},
		{Name: "TestA", Priority: 5, Task: New(1, 0, 2, nil)},
		{Name: "idle", Priority: 1, Task: idle.New()},
	}, kernel.WithVirtualClock(true))

	require.NoError(t, k.RunSteps(60))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "TestA: ticks=0", lines[0])
	for _, l := range lines[1:] {
		assert.True(t, strings.HasPrefix(l, "TestA: ticks="), l)
	}
	assert.Nil(t, k.Halted())
}
