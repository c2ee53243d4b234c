package domain

import "context"

// AudioController is a secondary port for the OS output volume and mute state.
// Implementations do not clamp; callers pass values within 0-100.
type AudioController interface {
	Volume(ctx context.Context) (int, error)
	SetVolume(ctx context.Context, volume int) error
	Muted(ctx context.Context) (bool, error)
	SetMuted(ctx context.Context, muted bool) error
}

// BoolCharacteristic is a boolean characteristic owned by one service.
// HandleGet and HandleSet install the handlers for remote reads and writes;
// UpdateValue changes the displayed value without invoking HandleSet.
type BoolCharacteristic interface {
	HandleGet(fn func(ctx context.Context) (bool, error))
	HandleSet(fn func(ctx context.Context, v bool) error)
	UpdateValue(v bool)
	Value() bool
}

// NumberCharacteristic is a 0-100 percentage characteristic owned by one service.
type NumberCharacteristic interface {
	HandleGet(fn func(ctx context.Context) (int, error))
	HandleSet(fn func(ctx context.Context, v int) error)
	UpdateValue(v int)
	Value() int
}

// Service is one accessory service created by the bridge framework.
type Service interface {
	Kind() ServiceKind
	Name() string
	Bool(kind CharacteristicKind) (BoolCharacteristic, error)
	Number(kind CharacteristicKind) (NumberCharacteristic, error)
}

// ServiceFactory is a secondary port that creates services on the bridge.
type ServiceFactory interface {
	NewService(kind ServiceKind, name string) (Service, error)
}
