package portaudio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/gordonklaus/portaudio"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
)

type CaptureStream struct {
	PortAudioStream *portaudio.Stream
	InputBuffer     []byte

	pending    []byte
	readLocker sync.Mutex
	stopped    atomic.Bool
	closed     atomic.Bool
	closeOnce  sync.Once
	closeErr   error
	logCtx     context.Context
}

var _ types.CaptureStream = (*CaptureStream)(nil)

func newCaptureStream[T any](
	ctx context.Context,
	device *portaudio.DeviceInfo,
	params types.CaptureParams,
	framesPerBuffer int,
) (*CaptureStream, error) {
	var sample T
	buf := make([]T, framesPerBuffer*int(params.Channels))
	logger.Debugf(ctx, "newCaptureStream: %T, %d, %d, %d", sample, params.SampleRate, params.Channels, framesPerBuffer)

	stream, err := portaudio.OpenStream(
		streamParameters(device, params.SampleRate, params.Channels, framesPerBuffer),
		buf,
	)
	if err != nil {
		return nil, err
	}

	ptr := unsafe.SliceData(buf)
	bytesBuf := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), len(buf)*int(unsafe.Sizeof(sample)))
	logger.Debugf(ctx, "input bytes buffer size: %d", len(bytesBuf))

	return &CaptureStream{
		PortAudioStream: stream,
		InputBuffer:     bytesBuf,
		logCtx:          ctx,
	}, nil
}

func (s *CaptureStream) Start(context.Context) error {
	if err := s.PortAudioStream.Start(); err != nil {
		return fmt.Errorf("unable to start the stream: %w", err)
	}
	return nil
}

func (s *CaptureStream) Stop() error {
	if s.closed.Load() || s.stopped.Swap(true) {
		return nil
	}
	return s.PortAudioStream.Stop()
}

func (s *CaptureStream) Read(p []byte) (int, error) {
	s.readLocker.Lock()
	defer s.readLocker.Unlock()

	if len(s.pending) == 0 {
		if s.closed.Load() || s.stopped.Load() {
			return 0, io.EOF
		}
		logger.Tracef(s.logCtx, "Read")
		err := s.PortAudioStream.Read()
		logger.Tracef(s.logCtx, "/Read: %v", err)
		switch {
		case s.closed.Load(), s.stopped.Load():
			return 0, io.EOF
		case errors.Is(err, portaudio.InputOverflowed):
			logger.Warnf(s.logCtx, "input overflowed, some frames were lost")
		case err != nil:
			return 0, fmt.Errorf("unable to read: %w", err)
		}
		s.pending = s.InputBuffer
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *CaptureStream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		abortErr := s.PortAudioStream.Abort()
		s.readLocker.Lock()
		defer s.readLocker.Unlock()
		s.closeErr = s.PortAudioStream.Close()
		if s.closeErr == nil && abortErr != nil && !errors.Is(abortErr, portaudio.StreamIsStopped) {
			s.closeErr = abortErr
		}
	})
	return s.closeErr
}
