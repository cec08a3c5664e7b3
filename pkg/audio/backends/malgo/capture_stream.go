package malgo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/ringbuffer"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
)

type CaptureStream struct {
	Device *malgo.Device
	Buffer *ringbuffer.RingBuffer

	stopping  atomic.Bool
	closeOnce sync.Once
}

var _ types.CaptureStream = (*CaptureStream)(nil)

func (s *CaptureStream) Start(context.Context) error {
	if err := s.Device.Start(); err != nil {
		return fmt.Errorf("unable to start the device: %w", err)
	}
	return nil
}

func (s *CaptureStream) Stop() error {
	s.stopping.Store(true)
	if err := s.Device.Stop(); err != nil {
		return fmt.Errorf("unable to stop the device: %w", err)
	}
	return nil
}

// onDeviceStopped is called by miniaudio whenever the device stops, including
// when it was unplugged or otherwise lost.
func (s *CaptureStream) onDeviceStopped() {
	if s.stopping.Load() {
		s.Buffer.Close()
		return
	}
	s.Buffer.CloseWithError(fmt.Errorf("the capture device stopped unexpectedly"))
}

func (s *CaptureStream) Read(p []byte) (int, error) {
	return s.Buffer.Read(p)
}

func (s *CaptureStream) Close() error {
	s.closeOnce.Do(func() {
		s.stopping.Store(true)
		s.Device.Uninit()
		s.Buffer.Close()
	})
	return nil
}
