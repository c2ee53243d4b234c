package volume

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"pc-volume-bridge/internal/domain"
)

// Backend names accepted by New.
const (
	BackendAppleScript = "osascript"
	BackendPulse       = "pactl"
	BackendMemory      = "memory"
)

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// DefaultBackend picks the backend for the current OS.
func DefaultBackend() string {
	switch runtime.GOOS {
	case "darwin":
		return BackendAppleScript
	case "linux":
		return BackendPulse
	default:
		return BackendMemory
	}
}

// New creates the controller for backend; an empty name selects DefaultBackend.
func New(backend string) (domain.AudioController, error) {
	if backend == "" {
		backend = DefaultBackend()
	}
	switch backend {
	case BackendAppleScript:
		return NewAppleScriptController(), nil
	case BackendPulse:
		return NewPulseController(), nil
	case BackendMemory:
		return NewMemoryController(50, false), nil
	default:
		return nil, fmt.Errorf("%w: unknown audio backend %q", domain.ErrInvalidConfig, backend)
	}
}
