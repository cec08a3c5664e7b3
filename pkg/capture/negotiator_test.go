package capture

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/wavrecorder/internal/devicetest"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
)

func TestNegotiateLayouts(t *testing.T) {
	ctx := context.Background()
	device := &devicetest.Device{}

	for channels := uint(1); channels <= 16; channels++ {
		cfg := DefaultAudioConfig()
		cfg.ChannelCount = channels

		plan, err := Negotiate(ctx, cfg, device)
		require.NoError(t, err, "channels: %d", channels)
		switch channels {
		case 1:
			require.Equal(t, types.ChannelLayoutMono, plan.Layout)
		case 2:
			require.Equal(t, types.ChannelLayoutStereo, plan.Layout)
		default:
			require.Equal(t, types.ChannelLayout(1<<channels-1), plan.Layout, "channels: %d", channels)
		}
		require.Equal(t, channels*2, plan.BlockAlign)
	}
}

func TestNegotiateRejects(t *testing.T) {
	ctx := context.Background()
	device := &devicetest.Device{}

	for _, tc := range []struct {
		name   string
		modify func(*AudioConfig)
	}{
		{"rate_too_low", func(cfg *AudioConfig) { cfg.SampleRate = 7999 }},
		{"rate_too_high", func(cfg *AudioConfig) { cfg.SampleRate = 192001 }},
		{"no_channels", func(cfg *AudioConfig) { cfg.ChannelCount = 0 }},
		{"too_many_channels", func(cfg *AudioConfig) { cfg.ChannelCount = 17 }},
		{"bits_12", func(cfg *AudioConfig) { cfg.BitDepth = 12 }},
		{"bits_64", func(cfg *AudioConfig) { cfg.BitDepth = 64 }},
		{"zero_multiplier", func(cfg *AudioConfig) { cfg.BufferMultiplier = 0 }},
		{"negative_floor", func(cfg *AudioConfig) { cfg.MinBufferSize = -1 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultAudioConfig()
			tc.modify(&cfg)
			_, err := Negotiate(ctx, cfg, device)
			require.ErrorIs(t, err, ErrUnsupportedParameter)
			require.ErrorIs(t, ValidateConfig(cfg), ErrUnsupportedParameter)
		})
	}

	t.Run("sample_rate_bounds_are_inclusive", func(t *testing.T) {
		for _, rate := range []uint32{8000, 192000} {
			cfg := DefaultAudioConfig()
			cfg.SampleRate = rate
			_, err := Negotiate(ctx, cfg, device)
			require.NoError(t, err)
		}
	})

	t.Run("device_reports_non_positive", func(t *testing.T) {
		for _, size := range []int{0, -2} {
			device := &devicetest.Device{
				MinBufferSizeFunc: func(types.SampleRate, types.Channel, types.ChannelLayout, types.PCMFormat) (int, error) {
					return size, nil
				},
			}
			_, err := Negotiate(ctx, DefaultAudioConfig(), device)
			require.ErrorIs(t, err, ErrDeviceRejectedParameters)
		}
	})

	t.Run("device_reports_error", func(t *testing.T) {
		device := &devicetest.Device{
			MinBufferSizeFunc: func(types.SampleRate, types.Channel, types.ChannelLayout, types.PCMFormat) (int, error) {
				return 0, fmt.Errorf("unsupported")
			},
		}
		_, err := Negotiate(ctx, DefaultAudioConfig(), device)
		require.ErrorIs(t, err, ErrDeviceRejectedParameters)
	})
}

func TestNegotiateBufferSizes(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name          string
		minBuf        int
		multiplier    int
		floor         int
		channels      uint
		bits          uint
		wantEffective uint
		wantChunk     uint
	}{
		{"multiplied", 3840, 4, 960, 2, 16, 15360, 4096},
		{"floor_wins", 100, 2, 960, 2, 16, 960, 960},
		{"default_floor", 100, 2, 0, 2, 16, 960, 960},
		{"chunk_for_8ch", 10000, 4, 960, 8, 16, 40000, 6144},
		{"chunk_for_12ch", 10000, 4, 960, 12, 16, 40000, 8184},
		{"chunk_rounded_to_frames", 10000, 4, 960, 3, 24, 40000, 4095},
		{"floor_rounded_to_frames", 1, 1, 960, 7, 24, 960, 945},
		{"floor_smaller_than_frame", 1, 1, 1, 16, 32, 64, 64},
	} {
		t.Run(tc.name, func(t *testing.T) {
			device := &devicetest.Device{
				MinBufferSizeFunc: func(types.SampleRate, types.Channel, types.ChannelLayout, types.PCMFormat) (int, error) {
					return tc.minBuf, nil
				},
			}
			cfg := DefaultAudioConfig()
			cfg.BufferMultiplier = tc.multiplier
			cfg.MinBufferSize = tc.floor
			cfg.ChannelCount = tc.channels
			cfg.BitDepth = tc.bits

			plan, err := Negotiate(ctx, cfg, device)
			require.NoError(t, err)
			require.Equal(t, uint(tc.minBuf), plan.MinDeviceBufferBytes)
			require.Equal(t, tc.wantEffective, plan.EffectiveBufferBytes)
			require.Equal(t, tc.wantChunk, plan.ReadChunkBytes)
			require.LessOrEqual(t, plan.ReadChunkBytes, plan.EffectiveBufferBytes)
			require.Zero(t, plan.ReadChunkBytes%plan.BlockAlign)
		})
	}
}

func TestReadChunkSize(t *testing.T) {
	for channels, want := range map[uint]uint{
		1: 4096, 2: 4096, 5: 4096, 6: 4096, 7: 4096,
		8: 6144, 11: 6144, 12: 8192, 16: 8192,
	} {
		require.Equal(t, want, ReadChunkSize(channels), "channels: %d", channels)
	}
}
