package domain

import (
	"fmt"
	"time"
)

// ServiceKind identifies one accessory service the bridge can expose.
type ServiceKind string

const (
	ServiceSpeaker        ServiceKind = "speaker"
	ServiceFan            ServiceKind = "fan"
	ServiceLightbulb      ServiceKind = "lightbulb"
	ServiceIncreaseButton ServiceKind = "increase-button"
	ServiceDecreaseButton ServiceKind = "decrease-button"
)

// ServiceOrder is the canonical order in which services are created and exposed.
var ServiceOrder = []ServiceKind{
	ServiceSpeaker,
	ServiceFan,
	ServiceLightbulb,
	ServiceIncreaseButton,
	ServiceDecreaseButton,
}

// ParseServiceKind accepts the configured service names, including the
// misspelled "lightbuld" written by early plugin versions.
func ParseServiceKind(s string) (ServiceKind, error) {
	switch s {
	case "speaker":
		return ServiceSpeaker, nil
	case "fan":
		return ServiceFan, nil
	case "lightbulb", "lightbuld":
		return ServiceLightbulb, nil
	case "increase-button", "increaseVolumeButton":
		return ServiceIncreaseButton, nil
	case "decrease-button", "decreaseVolumeButton":
		return ServiceDecreaseButton, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownService, s)
	}
}

// IsButton reports whether the service is a momentary nudge switch.
func (k ServiceKind) IsButton() bool {
	return k == ServiceIncreaseButton || k == ServiceDecreaseButton
}

// CharacteristicKind names a characteristic of an accessory service.
type CharacteristicKind string

const (
	CharacteristicMute          CharacteristicKind = "mute"
	CharacteristicOn            CharacteristicKind = "on"
	CharacteristicVolume        CharacteristicKind = "volume"
	CharacteristicRotationSpeed CharacteristicKind = "rotation-speed"
	CharacteristicBrightness    CharacteristicKind = "brightness"
)

// BindingMode tells how a boolean characteristic relates to the muted state.
type BindingMode int

const (
	// BindDirect: characteristic value == muted.
	BindDirect BindingMode = iota
	// BindInverted: characteristic value == !muted ("on" means audible).
	BindInverted
)

func (m BindingMode) String() string {
	switch m {
	case BindDirect:
		return "direct"
	case BindInverted:
		return "inverted"
	default:
		return "unknown"
	}
}

// Apply maps a muted state to the characteristic value, or back; the mapping is its own inverse.
func (m BindingMode) Apply(v bool) bool {
	if m == BindInverted {
		return !v
	}
	return v
}

// NudgeConfig governs the increase/decrease buttons.
type NudgeConfig struct {
	Delta int
	Delay time.Duration
}

// AccessoryConfig is the validated configuration of one accessory instance.
type AccessoryConfig struct {
	Name           string
	Services       []ServiceKind
	Algorithm      VolumeAlgorithm
	InitialVolume  *int
	InitiallyMuted *bool
	Nudge          NudgeConfig
	Cached         bool
	SyncInterval   time.Duration
}

const (
	DefaultDelta         = 5
	DefaultDelay         = 200 * time.Millisecond
	DefaultSettleDelay   = time.Second
	DefaultAccessoryName = "Computer Speakers"
)

// DefaultAccessoryConfig returns the configuration used when nothing is configured.
func DefaultAccessoryConfig() AccessoryConfig {
	return AccessoryConfig{
		Name:      DefaultAccessoryName,
		Services:  []ServiceKind{ServiceLightbulb},
		Algorithm: AlgorithmLinear,
		Nudge: NudgeConfig{
			Delta: DefaultDelta,
			Delay: DefaultDelay,
		},
	}
}

// Has reports whether kind was requested.
func (c AccessoryConfig) Has(kind ServiceKind) bool {
	for _, k := range c.Services {
		if k == kind {
			return true
		}
	}
	return false
}

// Validate checks the configuration values.
func (c AccessoryConfig) Validate() error {
	if c.Name == "" {
		return ErrMissingName
	}
	if len(c.Services) == 0 {
		return fmt.Errorf("%w: no services requested", ErrInvalidConfig)
	}
	for _, k := range c.Services {
		if _, err := ParseServiceKind(string(k)); err != nil {
			return err
		}
	}
	if c.InitialVolume != nil && (*c.InitialVolume < 0 || *c.InitialVolume > 100) {
		return ErrInvalidVolume
	}
	if c.Nudge.Delta <= 0 || c.Nudge.Delta > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidDelta, c.Nudge.Delta)
	}
	if c.Nudge.Delay < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDelay, c.Nudge.Delay)
	}
	if c.SyncInterval < 0 {
		return fmt.Errorf("%w: syncInterval must not be negative", ErrInvalidConfig)
	}
	return nil
}
