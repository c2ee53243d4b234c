package volume

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pc-volume-bridge/internal/domain"
)

// scriptedRunner records invocations and replies with canned output.
type scriptedRunner struct {
	calls  [][]string
	output string
	err    error
}

func (r *scriptedRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	return []byte(r.output), r.err
}

func (r *scriptedRunner) last() string {
	if len(r.calls) == 0 {
		return ""
	}
	return strings.Join(r.calls[len(r.calls)-1], " ")
}

func TestNewSelectsBackend(t *testing.T) {
	c, err := New(BackendAppleScript)
	require.NoError(t, err)
	assert.IsType(t, &AppleScriptController{}, c)

	c, err = New(BackendPulse)
	require.NoError(t, err)
	assert.IsType(t, &PulseController{}, c)

	c, err = New(BackendMemory)
	require.NoError(t, err)
	assert.IsType(t, &MemoryController{}, c)

	_, err = New("alsa")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	c, err = New("")
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestAppleScriptVolume(t *testing.T) {
	r := &scriptedRunner{output: "42\n"}
	c := &AppleScriptController{run: r.run}

	v, err := c.Volume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, "osascript -e output volume of (get volume settings)", r.last())

	require.NoError(t, c.SetVolume(context.Background(), 17))
	assert.Equal(t, "osascript -e set volume output volume 17", r.last())

	assert.Error(t, c.SetVolume(context.Background(), 101))
}

func TestAppleScriptMuted(t *testing.T) {
	r := &scriptedRunner{output: "true\n"}
	c := &AppleScriptController{run: r.run}

	m, err := c.Muted(context.Background())
	require.NoError(t, err)
	assert.True(t, m)

	r.output = "missing value"
	_, err = c.Muted(context.Background())
	assert.Error(t, err)

	require.NoError(t, c.SetMuted(context.Background(), false))
	assert.Equal(t, "osascript -e set volume output muted false", r.last())
}

func TestAppleScriptFailure(t *testing.T) {
	r := &scriptedRunner{output: "execution error", err: errors.New("exit status 1")}
	c := &AppleScriptController{run: r.run}

	_, err := c.Volume(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execution error")

	r.err, r.output = nil, "n/a"
	_, err = c.Volume(context.Background())
	assert.Error(t, err)
}

func TestPulseVolume(t *testing.T) {
	r := &scriptedRunner{output: "Volume: front-left: 42597 /  65% / -11.23 dB,   front-right: 42597 /  65% / -11.23 dB\n        balance 0.00\n"}
	c := &PulseController{run: r.run, sink: defaultSink}

	v, err := c.Volume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 65, v)
	assert.Equal(t, "pactl get-sink-volume @DEFAULT_SINK@", r.last())

	require.NoError(t, c.SetVolume(context.Background(), 30))
	assert.Equal(t, "pactl set-sink-volume @DEFAULT_SINK@ 30%", r.last())
}

func TestPulseMuted(t *testing.T) {
	r := &scriptedRunner{output: "Mute: yes\n"}
	c := &PulseController{run: r.run, sink: defaultSink}

	m, err := c.Muted(context.Background())
	require.NoError(t, err)
	assert.True(t, m)

	require.NoError(t, c.SetMuted(context.Background(), true))
	assert.Equal(t, "pactl set-sink-mute @DEFAULT_SINK@ 1", r.last())
	require.NoError(t, c.SetMuted(context.Background(), false))
	assert.Equal(t, "pactl set-sink-mute @DEFAULT_SINK@ 0", r.last())
}

func TestParsePulseOutput(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    int
		wantErr bool
	}{
		{name: "mono", out: "Volume: mono: 65536 / 100% / 0.00 dB", want: 100},
		{name: "boosted", out: "Volume: front-left: 98304 / 150% / 10.57 dB", want: 100},
		{name: "silent", out: "Volume: front-left: 0 /   0% / -inf dB", want: 0},
		{name: "garbage", out: "No such entity", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePulseVolume(tt.out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	m, err := parsePulseMute("Mute: no")
	require.NoError(t, err)
	assert.False(t, m)
	_, err = parsePulseMute("Mute: maybe")
	assert.Error(t, err)
	_, err = parsePulseMute("")
	assert.Error(t, err)
}

func TestMemoryController(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryController(50, false)

	require.NoError(t, c.SetVolume(ctx, 80))
	require.NoError(t, c.SetMuted(ctx, true))
	v, err := c.Volume(ctx)
	require.NoError(t, err)
	m, err := c.Muted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 80, v)
	assert.True(t, m)

	assert.Error(t, c.SetVolume(ctx, -1))
}
