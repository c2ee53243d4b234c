package volume

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"pc-volume-bridge/internal/domain"
)

// AppleScriptController implements domain.AudioController using macOS osascript.
// This is a secondary adapter.
type AppleScriptController struct {
	run Runner
}

// NewAppleScriptController creates a new AppleScript output volume controller.
func NewAppleScriptController() *AppleScriptController {
	return &AppleScriptController{run: execRunner}
}

func (a *AppleScriptController) script(ctx context.Context, script string) (string, error) {
	output, err := a.run(ctx, "osascript", "-e", script)
	if err != nil {
		return "", fmt.Errorf("osascript failed: %w, output: %s", err, strings.TrimSpace(string(output)))
	}
	return strings.TrimSpace(string(output)), nil
}

// Volume reads the output volume.
func (a *AppleScriptController) Volume(ctx context.Context) (int, error) {
	out, err := a.script(ctx, "output volume of (get volume settings)")
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("unexpected osascript volume %q: %w", out, err)
	}
	return v, nil
}

// SetVolume sets the output volume.
func (a *AppleScriptController) SetVolume(ctx context.Context, volume int) error {
	if volume < 0 || volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", volume)
	}
	_, err := a.script(ctx, fmt.Sprintf("set volume output volume %d", volume))
	return err
}

// Muted reads the output mute state.
func (a *AppleScriptController) Muted(ctx context.Context) (bool, error) {
	out, err := a.script(ctx, "output muted of (get volume settings)")
	if err != nil {
		return false, err
	}
	switch out {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("unexpected osascript muted value %q", out)
	}
}

// SetMuted sets the output mute state.
func (a *AppleScriptController) SetMuted(ctx context.Context, muted bool) error {
	_, err := a.script(ctx, fmt.Sprintf("set volume output muted %t", muted))
	return err
}

var _ domain.AudioController = (*AppleScriptController)(nil)
