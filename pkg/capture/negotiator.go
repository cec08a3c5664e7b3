package capture

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
)

// Plan is the result of negotiating an AudioConfig with a device.
type Plan struct {
	Layout     types.ChannelLayout
	PCMFormat  types.PCMFormat
	BlockAlign uint

	MinDeviceBufferBytes uint
	EffectiveBufferBytes uint

	// ReadChunkBytes is the size of a single read; it is a whole number of
	// frames and never exceeds EffectiveBufferBytes.
	ReadChunkBytes uint
}

// ReadChunkSize returns the preferred read size for the given channel count;
// wider captures use larger reads to amortize the per-read overhead.
func ReadChunkSize(channels uint) uint {
	switch {
	case channels >= 12:
		return 8192
	case channels >= 8:
		return 6144
	default:
		return 4096
	}
}

// Negotiate validates cfg and derives the buffer sizes using the minimal
// buffer size reported by the device.
func Negotiate(
	ctx context.Context,
	cfg AudioConfig,
	device types.CaptureDevice,
) (_ Plan, _err error) {
	logger.Debugf(ctx, "Negotiate(%s)", cfg)
	defer func() { logger.Debugf(ctx, "/Negotiate(%s): %v", cfg, _err) }()

	if err := ValidateConfig(cfg); err != nil {
		return Plan{}, err
	}

	channels := types.Channel(cfg.ChannelCount)
	layout, err := types.ChannelLayoutForCount(channels)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: %w", ErrUnsupportedParameter, err)
	}
	format, err := types.PCMFormatFromBitDepth(cfg.BitDepth)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: %w", ErrUnsupportedParameter, err)
	}

	logger.Tracef(ctx, "MinBufferSize")
	minBuf, err := device.MinBufferSize(ctx, types.SampleRate(cfg.SampleRate), channels, layout, format)
	logger.Tracef(ctx, "/MinBufferSize: %d %v", minBuf, err)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: %w", ErrDeviceRejectedParameters, err)
	}
	if minBuf <= 0 {
		return Plan{}, fmt.Errorf("%w: minimal buffer size for %s/%dHz/%s is %d", ErrDeviceRejectedParameters, format, cfg.SampleRate, layout, minBuf)
	}

	floor := uint(cfg.MinBufferSize)
	if floor == 0 {
		floor = DefaultMinBufferSize
	}
	blockAlign := cfg.ChannelCount * format.Size()
	effective := max(uint(minBuf)*uint(cfg.BufferMultiplier), floor, blockAlign)

	chunk := min(ReadChunkSize(cfg.ChannelCount), effective)
	chunk -= chunk % blockAlign

	return Plan{
		Layout:               layout,
		PCMFormat:            format,
		BlockAlign:           blockAlign,
		MinDeviceBufferBytes: uint(minBuf),
		EffectiveBufferBytes: effective,
		ReadChunkBytes:       chunk,
	}, nil
}
