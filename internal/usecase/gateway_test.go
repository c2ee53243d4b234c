package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pc-volume-bridge/internal/domain"
	"pc-volume-bridge/internal/logging"
)

func TestGatewayPassThrough(t *testing.T) {
	ctx := context.Background()
	audio := new(mockAudio)
	audio.On("Volume", mock.Anything).Return(40, nil).Twice()
	audio.On("SetVolume", mock.Anything, 43).Return(nil).Once()
	audio.On("Muted", mock.Anything).Return(true, nil).Once()
	audio.On("SetMuted", mock.Anything, false).Return(nil).Once()

	g := NewAudioGateway(ctx, audio, false, logging.New("test"))
	assert.False(t, g.Cached())

	for i := 0; i < 2; i++ {
		v, err := g.Volume(ctx)
		require.NoError(t, err)
		assert.Equal(t, 40.0, v)
	}
	require.NoError(t, g.SetVolume(ctx, 42.6))

	muted, err := g.Muted(ctx)
	require.NoError(t, err)
	assert.True(t, muted)
	require.NoError(t, g.SetMuted(ctx, false))

	audio.AssertExpectations(t)
}

func TestGatewayClampsBeforeWriting(t *testing.T) {
	ctx := context.Background()
	audio := newFakeAudio(50, false)
	g := NewAudioGateway(ctx, audio, false, nil)

	require.NoError(t, g.SetVolume(ctx, 104))
	require.NoError(t, g.SetVolume(ctx, -3))
	assert.Equal(t, []int{100, 0}, audio.volumeWrites)
}

func TestGatewayCacheReadsOnce(t *testing.T) {
	ctx := context.Background()
	audio := new(mockAudio)
	audio.On("Volume", mock.Anything).Return(70, nil).Once()

	g := NewAudioGateway(ctx, audio, true, nil)
	for i := 0; i < 3; i++ {
		v, err := g.Volume(ctx)
		require.NoError(t, err)
		assert.Equal(t, 70.0, v)
	}
	audio.AssertNumberOfCalls(t, "Volume", 1)
}

func TestGatewayCacheKeepsExactValue(t *testing.T) {
	ctx := context.Background()
	audio := newFakeAudio(10, false)
	g := NewAudioGateway(ctx, audio, true, nil)

	require.NoError(t, g.SetVolume(ctx, 95.218))
	v, err := g.Volume(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 95.218, v, 1e-9)
	assert.Equal(t, 95, audio.currentVolume())
	assert.Equal(t, 1, audio.reads())
}

func TestGatewayCacheSeedFailureLeavesZero(t *testing.T) {
	ctx := context.Background()
	audio := newFakeAudio(60, false)
	audio.failGetVolume = errOffline

	g := NewAudioGateway(ctx, audio, true, nil)
	v, err := g.Volume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestGatewayWrapsFailures(t *testing.T) {
	ctx := context.Background()
	audio := newFakeAudio(60, false)
	audio.failGetVolume = errOffline
	audio.failSetMuted = errOffline
	g := NewAudioGateway(ctx, audio, false, nil)

	_, err := g.Volume(ctx)
	assert.ErrorIs(t, err, domain.ErrAudioIO)
	assert.ErrorIs(t, err, errOffline)

	err = g.SetMuted(ctx, true)
	assert.ErrorIs(t, err, domain.ErrAudioIO)
}
