package audio_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/wavrecorder/pkg/audio"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/backends/synthetic"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/registry"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
)

type brokenFactory struct{}

func (brokenFactory) Name() string {
	return "broken"
}

func (brokenFactory) NewCaptureDevice() (types.CaptureDevice, error) {
	return nil, fmt.Errorf("no such hardware")
}

func init() {
	registry.RegisterCaptureFactory(1000, brokenFactory{})
}

func TestNewCaptureDeviceAuto(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		device := audio.NewCaptureDeviceAuto(ctx)
		require.Equal(t, synthetic.Name, device.BackendName)
		require.NoError(t, device.Close())
	}
}

func TestNewCaptureDeviceByName(t *testing.T) {
	ctx := context.Background()

	device, err := audio.NewCaptureDeviceByName(ctx, synthetic.Name)
	require.NoError(t, err)
	defer device.Close()
	require.Equal(t, synthetic.Name, device.BackendName)

	size, err := device.MinBufferSize(ctx, 48000, 2, types.ChannelLayoutStereo, types.PCMFormatS16LE)
	require.NoError(t, err)
	require.Positive(t, size)

	upper, err := audio.NewCaptureDeviceByName(ctx, "SYNTHETIC")
	require.NoError(t, err)
	require.Equal(t, synthetic.Name, upper.BackendName)
	require.NoError(t, upper.Close())

	_, err = audio.NewCaptureDeviceByName(ctx, "broken")
	require.Error(t, err)

	_, err = audio.NewCaptureDeviceByName(ctx, "no-such-backend")
	require.Error(t, err)
}

func TestProbeBackends(t *testing.T) {
	statuses := audio.ProbeBackends(context.Background())
	require.Len(t, statuses, 2)
	require.Equal(t, "broken", statuses[0].Name)
	require.Error(t, statuses[0].Error)
	require.Equal(t, synthetic.Name, statuses[1].Name)
	require.NoError(t, statuses[1].Error)
}

func TestCaptureDeviceDummy(t *testing.T) {
	ctx := context.Background()
	var device audio.CaptureDeviceDummy

	require.NoError(t, device.Ping(ctx))
	_, err := device.MinBufferSize(ctx, 48000, 2, types.ChannelLayoutStereo, types.PCMFormatS16LE)
	require.ErrorIs(t, err, audio.ErrNoCaptureBackend)
	_, err = device.OpenCapture(ctx, types.CaptureParams{})
	require.ErrorIs(t, err, audio.ErrNoCaptureBackend)
}
