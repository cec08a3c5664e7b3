// Package devicetest provides a scriptable capture device for tests.
package devicetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/xaionaro-go/wavrecorder/pkg/audio/ringbuffer"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
)

const (
	DefaultMinBufferSize = 1024
	streamBufferSize     = 1024 * 1024
)

type Device struct {
	// MinBufferSizeFunc overrides the reported minimal buffer size;
	// DefaultMinBufferSize is reported if nil.
	MinBufferSizeFunc func(types.SampleRate, types.Channel, types.ChannelLayout, types.PCMFormat) (int, error)

	OpenError  error
	StartError error

	// Chunks are queued into every opened stream.
	Chunks [][]byte

	// EndAfterChunks makes the stream end once Chunks are consumed. EndError
	// is returned then; nil means io.EOF.
	EndAfterChunks bool
	EndError       error

	// IgnoreStop makes Stop and Close leave a pending Read blocked until
	// Unblock is called.
	IgnoreStop bool

	locker  sync.Mutex
	streams []*Stream
	closed  atomic.Bool
}

var _ types.CaptureDevice = (*Device)(nil)

func (d *Device) Close() error {
	d.closed.Store(true)
	return nil
}

func (d *Device) Ping(context.Context) error {
	if d.closed.Load() {
		return fmt.Errorf("the device is closed")
	}
	return nil
}

func (d *Device) MinBufferSize(
	_ context.Context,
	sampleRate types.SampleRate,
	channels types.Channel,
	layout types.ChannelLayout,
	format types.PCMFormat,
) (int, error) {
	if d.MinBufferSizeFunc != nil {
		return d.MinBufferSizeFunc(sampleRate, channels, layout, format)
	}
	return DefaultMinBufferSize, nil
}

func (d *Device) OpenCapture(
	_ context.Context,
	params types.CaptureParams,
) (types.CaptureStream, error) {
	if d.OpenError != nil {
		return nil, d.OpenError
	}
	s := &Stream{
		Params:     params,
		buffer:     ringbuffer.New(streamBufferSize),
		startErr:   d.StartError,
		ignoreStop: d.IgnoreStop,
		unblockCh:  make(chan struct{}),
	}
	for _, chunk := range d.Chunks {
		s.Feed(chunk)
	}
	if d.EndAfterChunks {
		s.End(d.EndError)
	}

	d.locker.Lock()
	defer d.locker.Unlock()
	d.streams = append(d.streams, s)
	return s, nil
}

// Streams returns every stream opened so far.
func (d *Device) Streams() []*Stream {
	d.locker.Lock()
	defer d.locker.Unlock()
	return append([]*Stream{}, d.streams...)
}

func (d *Device) LastStream() *Stream {
	d.locker.Lock()
	defer d.locker.Unlock()
	if len(d.streams) == 0 {
		return nil
	}
	return d.streams[len(d.streams)-1]
}

type Stream struct {
	Params types.CaptureParams

	buffer     *ringbuffer.RingBuffer
	startErr   error
	ignoreStop bool
	unblockCh  chan struct{}
	unblock    sync.Once

	started atomic.Bool
	stopped atomic.Bool
	closed  atomic.Bool
	reads   atomic.Uint64
}

var _ types.CaptureStream = (*Stream)(nil)

func (s *Stream) Start(context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.started.Store(true)
	return nil
}

func (s *Stream) Stop() error {
	s.stopped.Store(true)
	if !s.ignoreStop {
		s.buffer.Close()
	}
	return nil
}

func (s *Stream) Close() error {
	s.closed.Store(true)
	if !s.ignoreStop {
		s.buffer.Close()
	}
	return nil
}

func (s *Stream) Read(p []byte) (int, error) {
	s.reads.Add(1)
	if s.ignoreStop {
		<-s.unblockCh
	}
	return s.buffer.Read(p)
}

// Feed queues data to be returned by Read.
func (s *Stream) Feed(data []byte) {
	_, _ = s.buffer.Write(data)
}

// End makes Read return err (or io.EOF if nil) after the queued data.
func (s *Stream) End(err error) {
	if err == nil {
		s.buffer.Close()
		return
	}
	s.buffer.CloseWithError(err)
}

// Unblock releases the reads held by IgnoreStop; they then see io.EOF.
func (s *Stream) Unblock() {
	s.unblock.Do(func() {
		s.buffer.Close()
		close(s.unblockCh)
	})
}

func (s *Stream) Started() bool { return s.started.Load() }
func (s *Stream) Stopped() bool { return s.stopped.Load() }
func (s *Stream) Closed() bool  { return s.closed.Load() }

// Reads returns how many times Read was called.
func (s *Stream) Reads() uint64 { return s.reads.Load() }
