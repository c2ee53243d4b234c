package volume

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"pc-volume-bridge/internal/domain"
)

const defaultSink = "@DEFAULT_SINK@"

var percentPattern = regexp.MustCompile(`(\d+)%`)

// PulseController implements domain.AudioController with pactl, which works
// against both PulseAudio and PipeWire.
type PulseController struct {
	run  Runner
	sink string
}

// NewPulseController creates a controller for the default sink.
func NewPulseController() *PulseController {
	return &PulseController{run: execRunner, sink: defaultSink}
}

func (p *PulseController) pactl(ctx context.Context, args ...string) (string, error) {
	output, err := p.run(ctx, "pactl", args...)
	if err != nil {
		return "", fmt.Errorf("pactl %s failed: %w, output: %s", args[0], err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// Volume returns the volume of the first channel of the sink.
func (p *PulseController) Volume(ctx context.Context) (int, error) {
	out, err := p.pactl(ctx, "get-sink-volume", p.sink)
	if err != nil {
		return 0, err
	}
	return parsePulseVolume(out)
}

// SetVolume sets all channels of the sink.
func (p *PulseController) SetVolume(ctx context.Context, volume int) error {
	if volume < 0 || volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", volume)
	}
	_, err := p.pactl(ctx, "set-sink-volume", p.sink, fmt.Sprintf("%d%%", volume))
	return err
}

// Muted reads the sink mute flag.
func (p *PulseController) Muted(ctx context.Context) (bool, error) {
	out, err := p.pactl(ctx, "get-sink-mute", p.sink)
	if err != nil {
		return false, err
	}
	return parsePulseMute(out)
}

// SetMuted sets the sink mute flag.
func (p *PulseController) SetMuted(ctx context.Context, muted bool) error {
	flag := "0"
	if muted {
		flag = "1"
	}
	_, err := p.pactl(ctx, "set-sink-mute", p.sink, flag)
	return err
}

// parsePulseVolume reads output such as
// "Volume: front-left: 42597 /  65% / -11.23 dB,   front-right: ...".
func parsePulseVolume(out string) (int, error) {
	m := percentPattern.FindStringSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("no volume percentage in pactl output %q", strings.TrimSpace(out))
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, err
	}
	// pactl allows boosting past 100%
	if v > 100 {
		v = 100
	}
	return v, nil
}

// parsePulseMute reads "Mute: yes" / "Mute: no".
func parsePulseMute(out string) (bool, error) {
	value, ok := strings.CutPrefix(strings.TrimSpace(out), "Mute:")
	if !ok {
		return false, fmt.Errorf("unexpected pactl mute output %q", strings.TrimSpace(out))
	}
	switch strings.TrimSpace(value) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	default:
		return false, fmt.Errorf("unexpected pactl mute value %q", strings.TrimSpace(value))
	}
}

var _ domain.AudioController = (*PulseController)(nil)
