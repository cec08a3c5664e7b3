package audio

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
)

var ErrNoCaptureBackend = fmt.Errorf("no capture backend is available")

type CaptureDeviceDummy struct{}

var _ types.CaptureDevice = CaptureDeviceDummy{}

func (CaptureDeviceDummy) Close() error {
	return nil
}

func (CaptureDeviceDummy) Ping(context.Context) error {
	return nil
}

func (CaptureDeviceDummy) MinBufferSize(
	context.Context,
	types.SampleRate,
	types.Channel,
	types.ChannelLayout,
	types.PCMFormat,
) (int, error) {
	return 0, ErrNoCaptureBackend
}

func (CaptureDeviceDummy) OpenCapture(
	context.Context,
	types.CaptureParams,
) (types.CaptureStream, error) {
	return nil, ErrNoCaptureBackend
}
