package usecase

import "context"

// VolumeUseCase is the primary port for operator-facing control of the
// accessory. Volumes are in the home-automation scale.
type VolumeUseCase interface {
	State(ctx context.Context) (volume int, muted bool, err error)
	SetVolume(ctx context.Context, volume int) error
	SetMuted(ctx context.Context, muted bool) error
	Adjust(ctx context.Context, delta int) (int, error)
}

var _ VolumeUseCase = (*Accessory)(nil)
