package volume

import (
	"context"
	"fmt"
	"sync"

	"pc-volume-bridge/internal/domain"
)

// MemoryController implements domain.AudioController in memory.
// Useful for dry runs or non-macOS/Linux environments.
type MemoryController struct {
	mu     sync.Mutex
	volume int
	muted  bool
}

// NewMemoryController creates an in-memory controller starting at volume.
func NewMemoryController(volume int, muted bool) *MemoryController {
	return &MemoryController{volume: volume, muted: muted}
}

func (m *MemoryController) Volume(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume, nil
}

func (m *MemoryController) SetVolume(_ context.Context, volume int) error {
	if volume < 0 || volume > 100 {
		return fmt.Errorf("invalid volume %d", volume)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = volume
	return nil
}

func (m *MemoryController) Muted(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted, nil
}

func (m *MemoryController) SetMuted(_ context.Context, muted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
	return nil
}

var _ domain.AudioController = (*MemoryController)(nil)
