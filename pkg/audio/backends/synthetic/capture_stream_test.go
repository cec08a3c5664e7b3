package synthetic

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
)

func TestCaptureStream(t *testing.T) {
	ctx := context.Background()

	t.Run("duration_limits_output", func(t *testing.T) {
		d := NewCaptureDevice(OptionDuration(100*time.Millisecond), OptionRealtime(false))
		params := types.CaptureParams{
			SampleRate: 8000,
			Channels:   2,
			PCMFormat:  types.PCMFormatS16LE,
			BufferSize: 320,
		}
		s, err := d.OpenCapture(ctx, params)
		require.NoError(t, err)
		defer s.Close()
		require.NoError(t, s.Start(ctx))

		data, err := io.ReadAll(s)
		require.NoError(t, err)
		require.Len(t, data, 800*2*2)
	})

	t.Run("tone_is_not_silent", func(t *testing.T) {
		d := NewCaptureDevice(OptionRealtime(false), OptionAmplitude(1))
		s, err := d.OpenCapture(ctx, types.CaptureParams{
			SampleRate: 48000,
			Channels:   1,
			PCMFormat:  types.PCMFormatS16LE,
		})
		require.NoError(t, err)
		defer s.Close()
		require.NoError(t, s.Start(ctx))

		buf := make([]byte, 960)
		n, err := io.ReadFull(s, buf)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)

		var peak float64
		for i := 0; i < n; i += 2 {
			v := types.PCMFormatS16LE.DecodeSample(buf[i : i+2])
			if v > peak {
				peak = v
			}
		}
		require.Greater(t, peak, 0.9)
	})

	t.Run("close_unblocks_read_before_start", func(t *testing.T) {
		d := NewCaptureDevice()
		s, err := d.OpenCapture(ctx, types.CaptureParams{
			SampleRate: 8000,
			Channels:   1,
			PCMFormat:  types.PCMFormatU8,
		})
		require.NoError(t, err)

		errCh := make(chan error, 1)
		go func() {
			_, err := s.Read(make([]byte, 16))
			errCh <- err
		}()
		require.NoError(t, s.Close())
		select {
		case err := <-errCh:
			require.ErrorIs(t, err, io.EOF)
		case <-time.After(time.Second):
			t.Fatal("Read was not unblocked by Close")
		}
	})

	t.Run("min_buffer_size_rejects_unsupported", func(t *testing.T) {
		d := NewCaptureDevice()
		size, err := d.MinBufferSize(ctx, 48000, 17, 0, types.PCMFormatS16LE)
		require.NoError(t, err)
		require.LessOrEqual(t, size, 0)

		size, err = d.MinBufferSize(ctx, 48000, 2, types.ChannelLayoutStereo, types.PCMFormatS16LE)
		require.NoError(t, err)
		require.Equal(t, 480*2*2, size)
	})
}
