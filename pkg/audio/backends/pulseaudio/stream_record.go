package pulseaudio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/jfreymuth/pulse"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/ringbuffer"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
)

const (
	errorPollInterval = 100 * time.Millisecond
)

type CaptureStream struct {
	*pulse.Client
	*pulse.RecordStream
	Buffer *ringbuffer.RingBuffer

	cancelFunc context.CancelFunc
	closeOnce  sync.Once
	closeErr   error
}

var _ types.CaptureStream = (*CaptureStream)(nil)

func newCaptureStream(
	ctx context.Context,
	client *pulse.Client,
	pulseStream *pulse.RecordStream,
	buffer *ringbuffer.RingBuffer,
) *CaptureStream {
	s := &CaptureStream{
		Client:       client,
		RecordStream: pulseStream,
		Buffer:       buffer,
	}
	ctx, s.cancelFunc = context.WithCancel(ctx)
	observability.Go(ctx, func(ctx context.Context) {
		s.watchErrors(ctx)
	})
	return s
}

func (s *CaptureStream) watchErrors(ctx context.Context) {
	t := time.NewTicker(errorPollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		if err := s.RecordStream.Error(); err != nil {
			logger.Errorf(ctx, "the record stream failed: %v", err)
			s.Buffer.CloseWithError(fmt.Errorf("an error occurred during recording: %w", err))
			return
		}
	}
}

func (s *CaptureStream) Start(context.Context) error {
	s.RecordStream.Start()
	if err := s.RecordStream.Error(); err != nil {
		return fmt.Errorf("an error occurred during recording: %w", err)
	}
	return nil
}

// Stop stops the recording. The data already buffered is still returned by
// Read, followed by io.EOF.
func (s *CaptureStream) Stop() error {
	s.RecordStream.Stop()
	s.Buffer.Close()
	return nil
}

func (s *CaptureStream) Read(p []byte) (int, error) {
	return s.Buffer.Read(p)
}

func (s *CaptureStream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.close()
	})
	return s.closeErr
}

func (s *CaptureStream) close() (err error) {
	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("got a panic: %v", r)
		}
	}()
	s.cancelFunc()
	s.Buffer.Close()
	s.RecordStream.Stop()
	s.RecordStream.Close()
	s.Client.Close()
	return
}
