package wav

import (
	"bytes"
	"context"
	"encoding/binary"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func readFile(t *testing.T, path string) []byte {
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

func TestWriterHeader(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "header.wav")

	w, err := Create(ctx, path, 44100, 3, 24)
	require.NoError(t, err)
	require.True(t, w.IsOpen())

	h := readFile(t, path)
	require.Len(t, h, HeaderSize)
	require.Equal(t, "RIFF", string(h[0:4]))
	require.Equal(t, uint32(0), binary.LittleEndian.Uint32(h[4:8]))
	require.Equal(t, "WAVE", string(h[8:12]))
	require.Equal(t, "fmt ", string(h[12:16]))
	require.Equal(t, uint32(16), binary.LittleEndian.Uint32(h[16:20]))
	require.Equal(t, uint16(1), binary.LittleEndian.Uint16(h[20:22]))
	require.Equal(t, uint16(3), binary.LittleEndian.Uint16(h[22:24]))
	require.Equal(t, uint32(44100), binary.LittleEndian.Uint32(h[24:28]))
	require.Equal(t, uint32(44100*3*3), binary.LittleEndian.Uint32(h[28:32]))
	require.Equal(t, uint16(9), binary.LittleEndian.Uint16(h[32:34]))
	require.Equal(t, uint16(24), binary.LittleEndian.Uint16(h[34:36]))
	require.Equal(t, "data", string(h[36:40]))
	require.Equal(t, uint32(0), binary.LittleEndian.Uint32(h[40:44]))

	require.NoError(t, w.Close())
	require.False(t, w.IsOpen())

	h = readFile(t, path)
	require.Len(t, h, HeaderSize)
	require.Equal(t, uint32(36), binary.LittleEndian.Uint32(h[4:8]))
	require.Equal(t, uint32(0), binary.LittleEndian.Uint32(h[40:44]))
}

func TestWriterRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, size := range []int{0, 1, 4096, 100003} {
		payload := make([]byte, size)
		rand.New(rand.NewSource(int64(size))).Read(payload)

		path := filepath.Join(t.TempDir(), "roundtrip.wav")
		w, err := Create(ctx, path, 16000, 1, 8)
		require.NoError(t, err)
		require.NoError(t, w.WriteAudioData(payload, 0, len(payload)))
		require.Equal(t, uint32(size), w.DataLength())
		require.NoError(t, w.Close())

		b := readFile(t, path)
		require.Len(t, b, size+HeaderSize)
		require.Equal(t, uint32(size), binary.LittleEndian.Uint32(b[40:44]))
		require.Equal(t, uint32(size+36), binary.LittleEndian.Uint32(b[4:8]))
		require.Equal(t, payload, b[HeaderSize:])
	}
}

func TestWriterTwoChunks(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chunks.wav")

	w, err := Create(ctx, path, 48000, 2, 16)
	require.NoError(t, err)
	require.NoError(t, w.WriteAudioData(make([]byte, 4096), 0, 4096))
	require.NoError(t, w.WriteAudioData(make([]byte, 2048), 0, 2048))
	require.NoError(t, w.Close())

	b := readFile(t, path)
	require.Equal(t, uint32(6144), binary.LittleEndian.Uint32(b[40:44]))
	require.Equal(t, uint32(6180), binary.LittleEndian.Uint32(b[4:8]))
}

func TestWriterCloseIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	payload := bytes.Repeat([]byte{1, 2, 3, 4}, 100)

	write := func(name string, closeCount int) []byte {
		path := filepath.Join(dir, name)
		w, err := Create(ctx, path, 8000, 2, 16)
		require.NoError(t, err)
		_, err = w.Write(payload)
		require.NoError(t, err)
		for i := 0; i < closeCount; i++ {
			require.NoError(t, w.Close())
		}
		return readFile(t, path)
	}

	require.Equal(t, write("once.wav", 1), write("twice.wav", 2))
}

func TestWriterRejects(t *testing.T) {
	ctx := context.Background()

	t.Run("out_of_range", func(t *testing.T) {
		w, err := Create(ctx, filepath.Join(t.TempDir(), "range.wav"), 8000, 1, 16)
		require.NoError(t, err)
		defer w.Close()

		buf := make([]byte, 10)
		for _, c := range [][2]int{{5, 6}, {-1, 2}, {0, -1}, {11, 0}} {
			err := w.WriteAudioData(buf, c[0], c[1])
			require.ErrorIs(t, err, ErrInvalidRange, "offset %d length %d", c[0], c[1])
		}
		require.Equal(t, uint32(0), w.DataLength())

		require.NoError(t, w.WriteAudioData(buf, 4, 6))
		require.Equal(t, uint32(6), w.DataLength())
	})

	t.Run("not_open", func(t *testing.T) {
		w, err := Create(ctx, filepath.Join(t.TempDir(), "closed.wav"), 8000, 1, 16)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		require.ErrorIs(t, w.WriteAudioData([]byte{1, 2}, 0, 2), ErrNotOpen)
		require.Equal(t, uint32(0), w.DataLength())
	})

	t.Run("invalid_bits", func(t *testing.T) {
		for _, bits := range []uint16{0, 4, 12, 20, 64} {
			path := filepath.Join(t.TempDir(), "bits.wav")
			w, err := Create(ctx, path, 48000, 2, bits)
			require.ErrorIs(t, err, ErrInvalidParameters)
			require.Nil(t, w)
			_, err = os.Stat(path)
			require.True(t, os.IsNotExist(err))
		}
	})

	t.Run("invalid_channels", func(t *testing.T) {
		for _, channels := range []uint16{0, 17} {
			_, err := Create(ctx, filepath.Join(t.TempDir(), "ch.wav"), 48000, channels, 16)
			require.ErrorIs(t, err, ErrInvalidParameters)
		}
	})

	t.Run("unusual_sample_rate_is_accepted", func(t *testing.T) {
		w, err := Create(ctx, filepath.Join(t.TempDir(), "rate.wav"), 4000, 1, 16)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	})

	t.Run("uncreatable_path", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0644))
		_, err := Create(ctx, filepath.Join(blocker, "x.wav"), 48000, 2, 16)
		require.Error(t, err)
	})
}

func TestWriterCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c.wav")
	w, err := Create(context.Background(), path, 48000, 2, 16)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.Len(t, readFile(t, path), HeaderSize)
}
