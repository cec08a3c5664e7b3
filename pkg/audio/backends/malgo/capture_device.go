// Package malgo is a capture backend on top of miniaudio, which covers ALSA,
// PulseAudio, JACK, CoreAudio and WASAPI.
package malgo

import (
	"context"
	"fmt"
	"strings"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/gen2brain/malgo"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/ringbuffer"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
)

const (
	// PeriodsPerSecond defines the period size requested from miniaudio, 10ms.
	PeriodsPerSecond = 100
)

type CaptureDevice struct {
	MalgoContext *malgo.AllocatedContext
}

var _ types.CaptureDevice = (*CaptureDevice)(nil)

func NewCaptureDevice() (*CaptureDevice, error) {
	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize a malgo context: %w", err)
	}
	return &CaptureDevice{
		MalgoContext: malgoCtx,
	}, nil
}

func (d *CaptureDevice) Close() error {
	err := d.MalgoContext.Uninit()
	d.MalgoContext.Free()
	return err
}

func (d *CaptureDevice) Ping(ctx context.Context) error {
	infos, err := d.MalgoContext.Devices(malgo.Capture)
	if err != nil {
		return fmt.Errorf("unable to enumerate capture devices: %w", err)
	}
	if len(infos) == 0 {
		return fmt.Errorf("no capture devices found")
	}
	for idx, info := range infos {
		logger.Tracef(ctx, "devices[%d]: %s (default: %v)", idx, info.Name(), info.IsDefault > 0)
	}
	return nil
}

func malgoFormat(format types.PCMFormat) (malgo.FormatType, error) {
	switch format {
	case types.PCMFormatU8:
		return malgo.FormatU8, nil
	case types.PCMFormatS16LE:
		return malgo.FormatS16, nil
	case types.PCMFormatS24LE:
		return malgo.FormatS24, nil
	case types.PCMFormatS32LE:
		return malgo.FormatS32, nil
	default:
		return malgo.FormatUnknown, fmt.Errorf("received an unexpected format: %v", format)
	}
}

func (d *CaptureDevice) findDevice(name string) (*malgo.DeviceInfo, error) {
	infos, err := d.MalgoContext.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("unable to enumerate capture devices: %w", err)
	}
	searchName := strings.ToLower(name)
	for idx := range infos {
		if strings.Contains(strings.ToLower(infos[idx].Name()), searchName) {
			return &infos[idx], nil
		}
	}
	return nil, fmt.Errorf("no capture device found matching name: %s", name)
}

func (d *CaptureDevice) MinBufferSize(
	ctx context.Context,
	sampleRate types.SampleRate,
	channels types.Channel,
	layout types.ChannelLayout,
	format types.PCMFormat,
) (int, error) {
	if _, err := malgoFormat(format); err != nil {
		logger.Debugf(ctx, "%v", err)
		return 0, nil
	}
	if channels == 0 || channels > types.MaxChannels {
		return 0, nil
	}
	frames := int(sampleRate) / PeriodsPerSecond
	if frames < 1 {
		frames = 1
	}
	return frames * int(channels) * int(format.Size()), nil
}

func (d *CaptureDevice) OpenCapture(
	ctx context.Context,
	params types.CaptureParams,
) (_ types.CaptureStream, _err error) {
	logger.Debugf(ctx, "OpenCapture(%#+v)", params)
	defer func() { logger.Debugf(ctx, "/OpenCapture(%#+v): %v", params, _err) }()

	format, err := malgoFormat(params.PCMFormat)
	if err != nil {
		return nil, err
	}
	frameSize := params.FrameSize()
	if frameSize == 0 {
		return nil, fmt.Errorf("invalid frame size for %#+v", params)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = format
	deviceConfig.Capture.Channels = uint32(params.Channels)
	deviceConfig.SampleRate = uint32(params.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(params.BufferSize / frameSize)
	if params.DeviceName != "" {
		info, err := d.findDevice(params.DeviceName)
		if err != nil {
			return nil, err
		}
		deviceConfig.Capture.DeviceID = info.ID.Pointer()
	}

	buffer := ringbuffer.New(params.BufferSize*4, ringbuffer.OptionOverflowHandler(
		func(droppedBytes int, totalChunks uint64, totalBytes uint64) {
			logger.Warnf(ctx, "the reader does not keep up, dropped %d bytes of audio (%d bytes in %d chunks in total)", droppedBytes, totalBytes, totalChunks)
		},
	))
	s := &CaptureStream{
		Buffer: buffer,
	}
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, pInputSamples []byte, _ uint32) {
			_, _ = buffer.Write(pInputSamples)
		},
		Stop: s.onDeviceStopped,
	}

	device, err := malgo.InitDevice(d.MalgoContext.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize the device: %w", err)
	}
	s.Device = device
	return s, nil
}
