package capture

import (
	"fmt"

	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
)

const (
	MinSampleRate = 8000
	MaxSampleRate = 192000

	DefaultSampleRate       = 48000
	DefaultChannelCount     = 2
	DefaultBitDepth         = 16
	DefaultBufferMultiplier = 4
	DefaultMinBufferSize    = 960
	DefaultDescription      = "Default recording configuration"
)

// AudioConfig describes one recording setup. It is handled by value: a
// session copies it on Configure and never mutates it.
type AudioConfig struct {
	Source           types.Source
	SampleRate       uint32
	ChannelCount     uint
	BitDepth         uint
	BufferMultiplier int

	// MinBufferSize is the lower bound of the effective buffer size in bytes.
	MinBufferSize int

	// OutputPath is the file to write; empty means a generated name in the
	// output directory of the session.
	OutputPath string

	// Device is a backend-specific device name; empty means the default one.
	Device string

	Description string
}

func DefaultAudioConfig() AudioConfig {
	return AudioConfig{
		Source:           types.SourceMic,
		SampleRate:       DefaultSampleRate,
		ChannelCount:     DefaultChannelCount,
		BitDepth:         DefaultBitDepth,
		BufferMultiplier: DefaultBufferMultiplier,
		MinBufferSize:    DefaultMinBufferSize,
		Description:      DefaultDescription,
	}
}

func (cfg AudioConfig) String() string {
	return fmt.Sprintf("%s %dHz %dch %dbit (%s)", cfg.Source, cfg.SampleRate, cfg.ChannelCount, cfg.BitDepth, cfg.Description)
}

// ValidateConfig checks the parameters which do not depend on the device.
func ValidateConfig(cfg AudioConfig) error {
	if cfg.SampleRate < MinSampleRate || cfg.SampleRate > MaxSampleRate {
		return fmt.Errorf("%w: sample rate %d is outside of [%d, %d]", ErrUnsupportedParameter, cfg.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if cfg.ChannelCount < 1 || cfg.ChannelCount > uint(types.MaxChannels) {
		return fmt.Errorf("%w: channel count %d is outside of [1, %d]", ErrUnsupportedParameter, cfg.ChannelCount, types.MaxChannels)
	}
	if _, err := types.PCMFormatFromBitDepth(cfg.BitDepth); err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedParameter, err)
	}
	if cfg.BufferMultiplier <= 0 {
		return fmt.Errorf("%w: buffer multiplier %d is not positive", ErrUnsupportedParameter, cfg.BufferMultiplier)
	}
	if cfg.MinBufferSize < 0 {
		return fmt.Errorf("%w: minimal buffer size %d is negative", ErrUnsupportedParameter, cfg.MinBufferSize)
	}
	return nil
}
