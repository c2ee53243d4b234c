package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"

	"pc-volume-bridge/internal/domain"
	"pc-volume-bridge/internal/logging"
)

// AudioGateway is the single entry point to the OS audio controller for one
// accessory. With caching enabled the system volume is read once at
// construction and afterwards served from memory; the cache keeps the exact
// value last written so logarithmic rounding does not accumulate.
type AudioGateway struct {
	controller domain.AudioController
	log        *logging.Logger
	cached     bool

	mu     sync.Mutex
	volume float64
}

// NewAudioGateway creates the gateway. When cached is set the cache is seeded
// from the controller; a failed read leaves it at 0 and is only logged.
func NewAudioGateway(ctx context.Context, controller domain.AudioController, cached bool, log *logging.Logger) *AudioGateway {
	g := &AudioGateway{
		controller: controller,
		log:        log,
		cached:     cached,
	}
	if cached {
		v, err := controller.Volume(ctx)
		if err != nil {
			log.Errorf("Failed to read system volume for cache: %v", err)
		} else {
			g.volume = float64(v)
			log.Debugf("Seeded volume cache with %d%%", v)
		}
	}
	return g
}

// Cached reports whether reads are served from the cache.
func (g *AudioGateway) Cached() bool {
	return g.cached
}

// Volume returns the system volume (0-100).
func (g *AudioGateway) Volume(ctx context.Context) (float64, error) {
	if g.cached {
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.volume, nil
	}

	g.log.Tracef("Getting volume")
	v, err := g.controller.Volume(ctx)
	if err != nil {
		g.log.Debugf("Failed to get volume: %v", err)
		return 0, fmt.Errorf("%w: get volume: %w", domain.ErrAudioIO, err)
	}
	g.log.Debugf("Got volume: %d%%", v)
	return float64(v), nil
}

// SetVolume clamps v, records it in the cache and forwards it rounded to the OS.
// Concurrent writers race; the last one wins.
func (g *AudioGateway) SetVolume(ctx context.Context, v float64) error {
	v = domain.Clamp(v)
	if g.cached {
		g.mu.Lock()
		g.volume = v
		g.mu.Unlock()
	}

	rounded := int(math.Round(v))
	g.log.Debugf("Setting volume to %d%%", rounded)
	if err := g.controller.SetVolume(ctx, rounded); err != nil {
		g.log.Errorf("Failed to set volume to %d%%: %v", rounded, err)
		return fmt.Errorf("%w: set volume %d: %w", domain.ErrAudioIO, rounded, err)
	}
	return nil
}

// Muted returns the system mute state.
func (g *AudioGateway) Muted(ctx context.Context) (bool, error) {
	g.log.Tracef("Getting muted status")
	m, err := g.controller.Muted(ctx)
	if err != nil {
		g.log.Debugf("Failed to get muted status: %v", err)
		return false, fmt.Errorf("%w: get muted: %w", domain.ErrAudioIO, err)
	}
	g.log.Debugf("Got muted status: %t", m)
	return m, nil
}

// SetMuted sets the system mute state.
func (g *AudioGateway) SetMuted(ctx context.Context, muted bool) error {
	g.log.Debugf("Setting muted status to %t", muted)
	if err := g.controller.SetMuted(ctx, muted); err != nil {
		g.log.Errorf("Failed to set muted status to %t: %v", muted, err)
		return fmt.Errorf("%w: set muted %t: %w", domain.ErrAudioIO, muted, err)
	}
	return nil
}
