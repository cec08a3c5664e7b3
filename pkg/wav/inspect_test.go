package wav

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
)

func TestInspect(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "inspect.wav")

	w, err := Create(ctx, path, 8000, 2, 16)
	require.NoError(t, err)

	// 0.5 seconds, left channel at half scale, right channel silent
	frame := []byte{0x00, 0x40, 0x00, 0x00}
	for i := 0; i < 4000; i++ {
		_, err := w.Write(frame)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	info, err := Inspect(path)
	require.NoError(t, err, spew.Sdump(info))
	require.Equal(t, uint32(8000), info.SampleRate, spew.Sdump(info))
	require.Equal(t, uint16(2), info.Channels)
	require.Equal(t, uint16(16), info.BitsPerSample)
	require.Equal(t, uint16(1), info.AudioFormat)
	require.Equal(t, int64(16000), info.DataLength)
	require.Equal(t, 500*time.Millisecond, info.Duration)
	require.InDelta(t, 0.5, info.Peak, 0.001)
}

func TestInspectEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	w, err := Create(context.Background(), path, 48000, 1, 16)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	info, err := Inspect(path)
	require.NoError(t, err)
	require.Equal(t, int64(0), info.DataLength)
	require.Equal(t, time.Duration(0), info.Duration)
}

func TestInspectNotWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a RIFF file, just text"), 0644))
	_, err := Inspect(path)
	require.Error(t, err)
}
