package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAccessoryConfigIsValid(t *testing.T) {
	cfg := DefaultAccessoryConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []ServiceKind{ServiceLightbulb}, cfg.Services)
	assert.Equal(t, 200*time.Millisecond, cfg.Nudge.Delay)
	assert.Equal(t, 5, cfg.Nudge.Delta)
}

func TestAccessoryConfigValidate(t *testing.T) {
	vol := func(v int) *int { return &v }
	tests := []struct {
		name    string
		mutate  func(*AccessoryConfig)
		wantErr error
	}{
		{"missing name", func(c *AccessoryConfig) { c.Name = "" }, ErrMissingName},
		{"no services", func(c *AccessoryConfig) { c.Services = nil }, ErrInvalidConfig},
		{"unknown service", func(c *AccessoryConfig) { c.Services = []ServiceKind{"toaster"} }, ErrUnknownService},
		{"zero delta", func(c *AccessoryConfig) { c.Nudge.Delta = 0 }, ErrInvalidDelta},
		{"negative delay", func(c *AccessoryConfig) { c.Nudge.Delay = -time.Millisecond }, ErrInvalidDelay},
		{"initial volume too high", func(c *AccessoryConfig) { c.InitialVolume = vol(101) }, ErrInvalidVolume},
		{"initial volume ok", func(c *AccessoryConfig) { c.InitialVolume = vol(100) }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAccessoryConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParseServiceKind(t *testing.T) {
	k, err := ParseServiceKind("lightbuld")
	require.NoError(t, err)
	assert.Equal(t, ServiceLightbulb, k)

	k, err = ParseServiceKind("decrease-button")
	require.NoError(t, err)
	assert.True(t, k.IsButton())

	_, err = ParseServiceKind("television")
	assert.ErrorIs(t, err, ErrUnknownService)
}

func TestBindingModeApply(t *testing.T) {
	assert.True(t, BindDirect.Apply(true))
	assert.False(t, BindInverted.Apply(true))
	assert.True(t, BindInverted.Apply(false))
}
