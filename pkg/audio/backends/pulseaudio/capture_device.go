package pulseaudio

import (
	"context"
	"fmt"
	"io"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/ringbuffer"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
)

const (
	// FragmentsPerSecond defines the fragment size the server is asked for,
	// 20ms.
	FragmentsPerSecond = 50
)

type CaptureDevice struct {
	PulseClient *pulse.Client
}

var _ types.CaptureDevice = (*CaptureDevice)(nil)

func NewCaptureDevice() (*CaptureDevice, error) {
	c, err := pulse.NewClient()
	if err != nil {
		return nil, fmt.Errorf("unable to open a client to Pulse: %w", err)
	}
	return &CaptureDevice{
		PulseClient: c,
	}, nil
}

func (d *CaptureDevice) Close() error {
	d.PulseClient.Close()
	return nil
}

func (d *CaptureDevice) Ping(ctx context.Context) error {
	source, err := d.PulseClient.DefaultSource()
	if err != nil {
		return err
	}
	logger.Debugf(ctx, "default source: %s (%s)", source.ID(), source.Name())
	return nil
}

func pulseFormat(format types.PCMFormat) (byte, error) {
	switch format {
	case types.PCMFormatU8:
		return proto.FormatUint8, nil
	case types.PCMFormatS16LE:
		return proto.FormatInt16LE, nil
	case types.PCMFormatS24LE:
		return proto.FormatInt24LE, nil
	case types.PCMFormatS32LE:
		return proto.FormatInt32LE, nil
	default:
		return 0, fmt.Errorf("received an unexpected format: %v", format)
	}
}

func channelMap(channels types.Channel) (proto.ChannelMap, error) {
	switch {
	case channels == 1:
		return proto.ChannelMap{proto.ChannelMono}, nil
	case channels == 2:
		return proto.ChannelMap{proto.ChannelLeft, proto.ChannelRight}, nil
	case channels > 2 && channels <= types.MaxChannels:
		aux := proto.ChannelMap{proto.ChannelAux0}
		position := aux[0]
		chanMap := make(proto.ChannelMap, 0, channels)
		for i := types.Channel(0); i < channels; i++ {
			chanMap = append(chanMap, position)
			position++
		}
		return chanMap, nil
	default:
		return nil, fmt.Errorf("do not know how to configure %d channels", channels)
	}
}

func (d *CaptureDevice) MinBufferSize(
	ctx context.Context,
	sampleRate types.SampleRate,
	channels types.Channel,
	layout types.ChannelLayout,
	format types.PCMFormat,
) (int, error) {
	if _, err := pulseFormat(format); err != nil {
		logger.Debugf(ctx, "%v", err)
		return 0, nil
	}
	if _, err := channelMap(channels); err != nil {
		logger.Debugf(ctx, "%v", err)
		return 0, nil
	}
	frames := int(sampleRate) / FragmentsPerSecond
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

	format, err := pulseFormat(params.PCMFormat)
	if err != nil {
		return nil, err
	}
	chanMap, err := channelMap(params.Channels)
	if err != nil {
		return nil, err
	}

	client, err := pulse.NewClient(pulse.ClientApplicationName("wavrecorder"))
	if err != nil {
		return nil, fmt.Errorf("unable to open a client to Pulse: %w", err)
	}

	opts := []pulse.RecordOption{
		pulse.RecordSampleRate(int(params.SampleRate)),
		pulse.RecordChannels(chanMap),
		pulse.RecordBufferFragmentSize(uint32(params.BufferSize)),
		pulse.RecordMediaName(params.Source.String()),
	}
	if params.DeviceName != "" {
		source, err := client.SourceByID(params.DeviceName)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("unable to find source '%s': %w", params.DeviceName, err)
		}
		opts = append(opts, pulse.RecordSource(source))
	}

	// the queue holds a few device buffers, so a slow consumer loses whole
	// fragments instead of stalling the Pulse client
	buffer := ringbuffer.New(params.BufferSize*4, ringbuffer.OptionOverflowHandler(overflowLogger(ctx)))
	stream, err := client.NewRecord(newPulseWriter(format, buffer), opts...)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to initialize a record stream: %w", err)
	}

	return newCaptureStream(ctx, client, stream, buffer), nil
}

func overflowLogger(ctx context.Context) ringbuffer.OverflowHandler {
	return func(droppedBytes int, totalChunks uint64, totalBytes uint64) {
		logger.Warnf(ctx, "the reader does not keep up, dropped %d bytes of audio (%d bytes in %d chunks in total)", droppedBytes, totalBytes, totalChunks)
	}
}

type pulseWriter struct {
	pulseFormat byte
	io.Writer
}

func newPulseWriter(pulseFormat byte, writer io.Writer) *pulseWriter {
	return &pulseWriter{
		pulseFormat: pulseFormat,
		Writer:      writer,
	}
}

var _ pulse.Writer = (*pulseWriter)(nil)

func (w pulseWriter) Format() byte {
	return w.pulseFormat
}
