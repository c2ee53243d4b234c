package usecase

import (
	"context"
	"fmt"

	"pc-volume-bridge/internal/domain"
	"pc-volume-bridge/internal/logging"
)

// ServiceBinding connects the characteristics of one service to the audio
// gateway. It knows nothing about sibling services; the accessory subscribes
// to successful writes through OnMutedSet and OnVolumeSet.
type ServiceBinding struct {
	service   domain.Service
	gateway   *AudioGateway
	algorithm domain.VolumeAlgorithm
	log       *logging.Logger

	bound map[domain.CharacteristicKind]bool

	muted  domain.BoolCharacteristic
	mode   domain.BindingMode
	volume domain.NumberCharacteristic

	onMutedSet  func(muted bool)
	onVolumeSet func(homeKit int)
}

// NewServiceBinding creates a binding for service.
func NewServiceBinding(service domain.Service, gateway *AudioGateway, algorithm domain.VolumeAlgorithm, log *logging.Logger) *ServiceBinding {
	return &ServiceBinding{
		service:   service,
		gateway:   gateway,
		algorithm: algorithm,
		log:       log.With(string(service.Kind())),
		bound:     make(map[domain.CharacteristicKind]bool),
	}
}

// Service returns the bound service.
func (b *ServiceBinding) Service() domain.Service {
	return b.service
}

// OnMutedSet registers fn to run after a remote write changed the mute state.
func (b *ServiceBinding) OnMutedSet(fn func(muted bool)) {
	b.onMutedSet = fn
}

// OnVolumeSet registers fn to run after a remote write changed the volume.
func (b *ServiceBinding) OnVolumeSet(fn func(homeKit int)) {
	b.onVolumeSet = fn
}

func (b *ServiceBinding) claim(kind domain.CharacteristicKind) error {
	if b.bound[kind] {
		return fmt.Errorf("%w: %s on %s", domain.ErrAlreadyBound, kind, b.service.Kind())
	}
	b.bound[kind] = true
	return nil
}

// BindBoolean attaches get and set to the boolean characteristic kind.
// Read failures reach the bridge as errors. Write failures are logged and
// acknowledged so the bridge never waits on a request.
func (b *ServiceBinding) BindBoolean(kind domain.CharacteristicKind, get func(context.Context) (bool, error), set func(context.Context, bool) error) (domain.BoolCharacteristic, error) {
	if err := b.claim(kind); err != nil {
		return nil, err
	}
	c, err := b.service.Bool(kind)
	if err != nil {
		delete(b.bound, kind)
		return nil, fmt.Errorf("bind %s: %w", kind, err)
	}

	c.HandleGet(func(ctx context.Context) (bool, error) {
		v, err := get(ctx)
		if err != nil {
			b.log.Errorf("Failed to read %s: %v", kind, err)
			return false, err
		}
		return v, nil
	})
	c.HandleSet(func(ctx context.Context, v bool) error {
		if err := set(ctx, v); err != nil {
			b.log.Errorf("Failed to write %s=%t: %v", kind, v, err)
		}
		return nil
	})
	return c, nil
}

// BindNumber attaches get and set to the percentage characteristic kind,
// with the same error policy as BindBoolean.
func (b *ServiceBinding) BindNumber(kind domain.CharacteristicKind, get func(context.Context) (int, error), set func(context.Context, int) error) (domain.NumberCharacteristic, error) {
	if err := b.claim(kind); err != nil {
		return nil, err
	}
	c, err := b.service.Number(kind)
	if err != nil {
		delete(b.bound, kind)
		return nil, fmt.Errorf("bind %s: %w", kind, err)
	}

	c.HandleGet(func(ctx context.Context) (int, error) {
		v, err := get(ctx)
		if err != nil {
			b.log.Errorf("Failed to read %s: %v", kind, err)
			return 0, err
		}
		return v, nil
	})
	c.HandleSet(func(ctx context.Context, v int) error {
		if err := set(ctx, v); err != nil {
			b.log.Errorf("Failed to write %s=%d: %v", kind, v, err)
		}
		return nil
	})
	return c, nil
}

// BindMuted binds kind to the system mute state. With BindInverted the
// characteristic reads true while audio is audible.
func (b *ServiceBinding) BindMuted(kind domain.CharacteristicKind, mode domain.BindingMode) error {
	c, err := b.BindBoolean(kind,
		func(ctx context.Context) (bool, error) {
			muted, err := b.gateway.Muted(ctx)
			if err != nil {
				return false, err
			}
			return mode.Apply(muted), nil
		},
		func(ctx context.Context, v bool) error {
			muted := mode.Apply(v)
			if mode == domain.BindInverted {
				b.log.Debugf("Flipping %s=%t to muted=%t", kind, v, muted)
			}
			if err := b.gateway.SetMuted(ctx, muted); err != nil {
				return err
			}
			if b.onMutedSet != nil {
				b.onMutedSet(muted)
			}
			return nil
		},
	)
	if err != nil {
		return err
	}
	b.muted, b.mode = c, mode
	return nil
}

// BindVolume binds kind to the system volume, converting with the accessory's algorithm.
func (b *ServiceBinding) BindVolume(kind domain.CharacteristicKind) error {
	c, err := b.BindNumber(kind,
		func(ctx context.Context) (int, error) {
			system, err := b.gateway.Volume(ctx)
			if err != nil {
				return 0, err
			}
			homeKit := b.algorithm.ToHomeKit(system)
			if b.algorithm == domain.AlgorithmLogarithmic {
				b.log.Debugf("Converted system volume %.2f%% to %d%%", system, homeKit)
			}
			return homeKit, nil
		},
		func(ctx context.Context, v int) error {
			system := b.algorithm.ToSystem(float64(v))
			if b.algorithm == domain.AlgorithmLogarithmic {
				b.log.Debugf("Converted requested volume %d%% to %.2f%%", v, system)
			}
			if err := b.gateway.SetVolume(ctx, system); err != nil {
				return err
			}
			if b.onVolumeSet != nil {
				b.onVolumeSet(v)
			}
			return nil
		},
	)
	if err != nil {
		return err
	}
	b.volume = c
	return nil
}

// ShowMuted displays muted on the bound mute-like characteristic, if any.
func (b *ServiceBinding) ShowMuted(muted bool) {
	if b.muted != nil {
		b.muted.UpdateValue(b.mode.Apply(muted))
	}
}

// ShowVolume displays a home-automation volume on the bound volume-like characteristic, if any.
func (b *ServiceBinding) ShowVolume(homeKit int) {
	if b.volume != nil {
		b.volume.UpdateValue(homeKit)
	}
}
