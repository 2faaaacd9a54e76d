package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PROCYON_TICK_HZ", "250")
	t.Setenv("PROCYON_VIRTUAL_CLOCK", "true")
	t.Setenv("PROCYON_IRQ_EVERY", "10")
	t.Setenv("PROCYON_METRICS_ADDR", ":9100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.TickHz)
	assert.True(t, cfg.VirtualClock)
	assert.Equal(t, uint64(10), cfg.IRQEvery)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
}

func TestLoad_RejectsBadRate(t *testing.T) {
	t.Setenv("PROCYON_TICK_HZ", "0")
	_, err := Load()
	assert.Error(t, err)

	assert.Equal(t, Default(), LoadOrDefault())
}

func TestDefaultManifest(t *testing.T) {
	m := DefaultManifest()
	require.NoError(t, m.Validate())
	require.Len(t, m.Slots, DefaultSlots)

	assert.Equal(t, "TTY", m.Slots[0].Name)
	assert.Equal(t, TaskPriority, m.Slots[0].Priority)
	assert.Equal(t, NativePriority, m.Slots[3].Priority)
	assert.Equal(t, KindFree, m.Slots[DefaultSlots-1].Kind)
	assert.Equal(t, map[int]int{1: 0}, m.Routes())
}

func TestParseManifest(t *testing.T) {
	data := []byte(`
slots:
  - name: SRV
    kind: task
    program: sys
    irq: [3]
  - name: app
    program: testproc
    memory: 1024
  - name: spare
    kind: free
`)
	m, err := ParseManifest(data)
	require.NoError(t, err)
	require.Len(t, m.Slots, 3)

	assert.Equal(t, TaskPriority, m.Slots[0].Priority)
	assert.Equal(t, uint32(DefaultMemory), m.Slots[0].Memory)
	assert.Equal(t, KindUser, m.Slots[1].Kind)
	assert.Equal(t, NativePriority, m.Slots[1].Priority)
	assert.True(t, m.Slots[0].Kind.Flat())
	assert.False(t, m.Slots[1].Kind.Flat())

	regions, total := m.Layout()
	assert.Equal(t, []Region{{0, DefaultMemory}, {DefaultMemory, 1024}, {}}, regions)
	assert.Equal(t, uint32(DefaultMemory+1024), total)
}

func TestParseManifest_RoundTrip(t *testing.T) {
	data, err := DefaultManifest().Marshal()
	require.NoError(t, err)
	m, err := ParseManifest(data)
	require.NoError(t, err)
	assert.Equal(t, DefaultManifest(), m)
}

func TestParseManifest_RejectsUnknownField(t *testing.T) {
	_, err := ParseManifest([]byte("slots:\n  - name: a\n    program: idle\n    prio: 3\n"))
	assert.Error(t, err)
}

func TestManifest_Validate(t *testing.T) {
	cases := map[string]struct {
		slots []Slot
		want  string
	}{
		"duplicate name": {
			slots: []Slot{
				{Name: "a", Kind: KindUser, Priority: 1, Memory: 512, Program: "idle"},
				{Name: "a", Kind: KindUser, Priority: 1, Memory: 512, Program: "idle"},
			},
			want: `name "a" already used`,
		},
		"negative priority": {
			slots: []Slot{{Name: "a", Kind: KindUser, Priority: -1, Memory: 512, Program: "idle"}},
			want:  "priority must be positive",
		},
		"unknown kind": {
			slots: []Slot{{Name: "a", Kind: "daemon", Priority: 1, Memory: 512, Program: "idle"}},
			want:  `unknown kind "daemon"`,
		},
		"small memory": {
			slots: []Slot{{Name: "a", Kind: KindUser, Priority: 1, Memory: 16, Program: "idle"}},
			want:  "below 512 bytes",
		},
		"shared irq": {
			slots: []Slot{
				{Name: "a", Kind: KindTask, Priority: 1, Memory: 512, Program: "tty", IRQ: []int{1}},
				{Name: "b", Kind: KindTask, Priority: 1, Memory: 512, Program: "tty", IRQ: []int{1}},
			},
			want: "irq 1 already routed to a",
		},
		"missing program": {
			slots: []Slot{{Name: "a", Kind: KindUser, Priority: 1, Memory: 64}},
			want:  "missing program",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := (&Manifest{Slots: tc.slots}).Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestManifest_NoLiveSlot(t *testing.T) {
	err := (&Manifest{Slots: []Slot{{Name: "x", Kind: KindFree}}}).Validate()
	assert.True(t, errors.Is(err, ErrNoLiveSlot))
}

func TestLoadManifest_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boot.yaml")
	data, err := DefaultManifest().Marshal()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Len(t, m.Slots, DefaultSlots)

	_, err = LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
