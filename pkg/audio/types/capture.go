package types

import (
	"context"
	"io"
)

type CaptureParams struct {
	Source     Source
	DeviceName string
	SampleRate SampleRate
	Channels   Channel
	Layout     ChannelLayout
	PCMFormat  PCMFormat

	// BufferSize is the size of the device-side buffer in bytes.
	BufferSize uint
}

func (p CaptureParams) FrameSize() uint {
	return uint(p.Channels) * p.PCMFormat.Size()
}

// CaptureDevice is an audio backend able to open capture streams.
type CaptureDevice interface {
	io.Closer

	Ping(context.Context) error

	// MinBufferSize returns the smallest device buffer (in bytes) the backend
	// accepts for the given parameters. A non-positive value means the
	// combination is not supported.
	MinBufferSize(
		ctx context.Context,
		sampleRate SampleRate,
		channels Channel,
		layout ChannelLayout,
		format PCMFormat,
	) (int, error)

	OpenCapture(ctx context.Context, params CaptureParams) (CaptureStream, error)
}

// CaptureStream is an opened capture handle.
//
// Read blocks until data is available. It returns io.EOF (or 0, nil) when the
// stream ended, and any other error on a device failure. Close releases the
// handle and unblocks a pending Read.
type CaptureStream interface {
	io.Reader
	io.Closer

	Start(context.Context) error
	Stop() error
}
