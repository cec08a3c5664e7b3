package synthetic

import (
	"context"
	"io"
	"math"
	"sync"
	"time"

	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
)

type CaptureStream struct {
	config       Config
	params       types.CaptureParams
	periodFrames int

	locker      sync.Mutex
	started     bool
	startedAt   time.Time
	framesTotal uint64
	frameLimit  uint64
	pending     []byte
	closeOnce   sync.Once
	closeCh     chan struct{}
	startedCh   chan struct{}
}

var _ types.CaptureStream = (*CaptureStream)(nil)

func newCaptureStream(
	cfg Config,
	params types.CaptureParams,
	periodFrames int,
) *CaptureStream {
	s := &CaptureStream{
		config:       cfg,
		params:       params,
		periodFrames: periodFrames,
		closeCh:      make(chan struct{}),
		startedCh:    make(chan struct{}),
	}
	if cfg.Duration > 0 {
		s.frameLimit = uint64(cfg.Duration.Seconds() * float64(params.SampleRate))
	}
	return s
}

func (s *CaptureStream) Start(context.Context) error {
	s.locker.Lock()
	defer s.locker.Unlock()
	if s.started {
		return nil
	}
	s.started = true
	s.startedAt = time.Now()
	close(s.startedCh)
	return nil
}

func (s *CaptureStream) Stop() error {
	return s.Close()
}

func (s *CaptureStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.closeCh)
	})
	return nil
}

func (s *CaptureStream) Read(p []byte) (int, error) {
	select {
	case <-s.startedCh:
	case <-s.closeCh:
		return 0, io.EOF
	}

	s.locker.Lock()
	defer s.locker.Unlock()

	if len(s.pending) == 0 {
		if s.frameLimit > 0 && s.framesTotal >= s.frameLimit {
			return 0, io.EOF
		}
		if !s.waitForPeriod() {
			return 0, io.EOF
		}
		s.pending = s.generatePeriod()
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// waitForPeriod sleeps until the next period is due. It returns false if the
// stream was closed meanwhile.
func (s *CaptureStream) waitForPeriod() bool {
	if !s.config.Realtime {
		select {
		case <-s.closeCh:
			return false
		default:
			return true
		}
	}

	due := s.startedAt.Add(time.Duration(float64(s.framesTotal) / float64(s.params.SampleRate) * float64(time.Second)))
	wait := time.Until(due)
	if wait <= 0 {
		select {
		case <-s.closeCh:
			return false
		default:
			return true
		}
	}

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-s.closeCh:
		return false
	case <-t.C:
		return true
	}
}

func (s *CaptureStream) generatePeriod() []byte {
	frames := uint64(s.periodFrames)
	if s.frameLimit > 0 && s.framesTotal+frames > s.frameLimit {
		frames = s.frameLimit - s.framesTotal
	}

	sampleSize := int(s.params.PCMFormat.Size())
	channels := int(s.params.Channels)
	buf := make([]byte, int(frames)*channels*sampleSize)
	step := 2 * math.Pi * s.config.Frequency / float64(s.params.SampleRate)
	for frame := 0; frame < int(frames); frame++ {
		v := s.config.Amplitude * math.Sin(step*float64(s.framesTotal+uint64(frame)))
		for ch := 0; ch < channels; ch++ {
			offset := (frame*channels + ch) * sampleSize
			s.params.PCMFormat.EncodeSample(buf[offset:offset+sampleSize], v)
		}
	}
	s.framesTotal += frames
	return buf
}
