package portaudio

import (
	"context"
	"fmt"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/gordonklaus/portaudio"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
)

type CaptureDevice struct{}

var _ types.CaptureDevice = (*CaptureDevice)(nil)

func NewCaptureDevice() (*CaptureDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return &CaptureDevice{}, nil
}

func (*CaptureDevice) Close() error {
	return portaudio.Terminate()
}

func (*CaptureDevice) Ping(
	ctx context.Context,
) error {
	info, err := portaudio.DefaultInputDevice()
	if err != nil {
		return err
	}
	logger.Debugf(ctx, "device info: %#+v", info)

	if devices, err := portaudio.Devices(); err == nil {
		for idx, device := range devices {
			logger.Tracef(ctx, "devices[%d]: %#+v", idx, device)
		}
	}
	return nil
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		return portaudio.DefaultInputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("unable to list devices: %w", err)
	}
	for _, device := range devices {
		if device.Name == name && device.MaxInputChannels > 0 {
			return device, nil
		}
	}
	return nil, fmt.Errorf("input device '%s' not found", name)
}

func streamParameters(
	device *portaudio.DeviceInfo,
	sampleRate types.SampleRate,
	channels types.Channel,
	framesPerBuffer int,
) portaudio.StreamParameters {
	return portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: int(channels),
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: framesPerBuffer,
	}
}

func sampleBuffer(format types.PCMFormat, samples int) (any, error) {
	switch format {
	case types.PCMFormatU8:
		return make([]uint8, samples), nil
	case types.PCMFormatS16LE:
		return make([]int16, samples), nil
	case types.PCMFormatS24LE:
		return make([]portaudio.Int24, samples), nil
	case types.PCMFormatS32LE:
		return make([]int32, samples), nil
	default:
		return nil, fmt.Errorf("do not know how to capture PCM format %s", format)
	}
}

func (*CaptureDevice) MinBufferSize(
	ctx context.Context,
	sampleRate types.SampleRate,
	channels types.Channel,
	layout types.ChannelLayout,
	format types.PCMFormat,
) (int, error) {
	device, err := portaudio.DefaultInputDevice()
	if err != nil {
		return 0, fmt.Errorf("unable to get the default input device: %w", err)
	}
	if int(channels) > device.MaxInputChannels {
		logger.Debugf(ctx, "device '%s' supports up to %d input channels, requested %d", device.Name, device.MaxInputChannels, channels)
		return 0, nil
	}

	latency := device.DefaultLowInputLatency
	if latency <= 0 {
		latency = 10 * time.Millisecond
	}
	frames := int(latency.Seconds() * float64(sampleRate))
	if frames < 1 {
		frames = 1
	}

	buf, err := sampleBuffer(format, frames*int(channels))
	if err != nil {
		return 0, nil
	}
	params := streamParameters(device, sampleRate, channels, frames)
	if err := portaudio.IsFormatSupported(params, buf); err != nil {
		logger.Debugf(ctx, "format %s/%dHz/%dch is not supported by '%s': %v", format, sampleRate, channels, device.Name, err)
		return 0, nil
	}

	return frames * int(channels) * int(format.Size()), nil
}

func (*CaptureDevice) OpenCapture(
	ctx context.Context,
	params types.CaptureParams,
) (_ types.CaptureStream, _err error) {
	logger.Debugf(ctx, "OpenCapture(%#+v)", params)
	defer func() { logger.Debugf(ctx, "/OpenCapture(%#+v): %v", params, _err) }()

	device, err := findInputDevice(params.DeviceName)
	if err != nil {
		return nil, err
	}

	frameSize := params.FrameSize()
	if frameSize == 0 {
		return nil, fmt.Errorf("invalid frame size for %#+v", params)
	}
	framesPerBuffer := int(params.BufferSize / frameSize)
	if framesPerBuffer < 1 {
		framesPerBuffer = 1
	}

	var s *CaptureStream
	switch params.PCMFormat {
	case types.PCMFormatU8:
		s, err = newCaptureStream[uint8](ctx, device, params, framesPerBuffer)
	case types.PCMFormatS16LE:
		s, err = newCaptureStream[int16](ctx, device, params, framesPerBuffer)
	case types.PCMFormatS24LE:
		s, err = newCaptureStream[portaudio.Int24](ctx, device, params, framesPerBuffer)
	case types.PCMFormatS32LE:
		s, err = newCaptureStream[int32](ctx, device, params, framesPerBuffer)
	default:
		return nil, fmt.Errorf("do not know how to start a stream for PCM format %s", params.PCMFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to open the stream: %w", err)
	}
	return s, nil
}
