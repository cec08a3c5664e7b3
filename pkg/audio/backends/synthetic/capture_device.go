// Package synthetic is a capture backend which generates a sine tone instead
// of reading a real device. It is useful on headless machines.
package synthetic

import (
	"context"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
)

const (
	DefaultFrequency = 440
	DefaultAmplitude = 0.5
	DefaultPeriod    = 10 * time.Millisecond
)

type CaptureDevice struct {
	Config Config
}

var _ types.CaptureDevice = (*CaptureDevice)(nil)

type Config struct {
	Frequency float64
	Amplitude float64
	Period    time.Duration

	// Duration limits the length of a capture; zero means endless.
	Duration time.Duration
	Realtime bool
}

type Option func(*Config)

func OptionFrequency(hz float64) Option {
	return func(cfg *Config) { cfg.Frequency = hz }
}

func OptionAmplitude(amplitude float64) Option {
	return func(cfg *Config) { cfg.Amplitude = amplitude }
}

func OptionDuration(d time.Duration) Option {
	return func(cfg *Config) { cfg.Duration = d }
}

// OptionRealtime makes Read pace the output to the sample rate (default) or
// return data as fast as it is consumed.
func OptionRealtime(realtime bool) Option {
	return func(cfg *Config) { cfg.Realtime = realtime }
}

func NewCaptureDevice(opts ...Option) *CaptureDevice {
	cfg := Config{
		Frequency: DefaultFrequency,
		Amplitude: DefaultAmplitude,
		Period:    DefaultPeriod,
		Realtime:  true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &CaptureDevice{Config: cfg}
}

func (*CaptureDevice) Close() error {
	return nil
}

func (*CaptureDevice) Ping(context.Context) error {
	return nil
}

func (d *CaptureDevice) periodFrames(sampleRate types.SampleRate) int {
	frames := int(d.Config.Period.Seconds() * float64(sampleRate))
	if frames < 1 {
		frames = 1
	}
	return frames
}

func (d *CaptureDevice) MinBufferSize(
	ctx context.Context,
	sampleRate types.SampleRate,
	channels types.Channel,
	layout types.ChannelLayout,
	format types.PCMFormat,
) (int, error) {
	if format.Size() == 0 || channels == 0 || channels > types.MaxChannels || sampleRate == 0 {
		return 0, nil
	}
	return d.periodFrames(sampleRate) * int(channels) * int(format.Size()), nil
}

func (d *CaptureDevice) OpenCapture(
	ctx context.Context,
	params types.CaptureParams,
) (types.CaptureStream, error) {
	logger.Debugf(ctx, "OpenCapture(%#+v)", params)
	return newCaptureStream(d.Config, params, d.periodFrames(params.SampleRate)), nil
}
