package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/datacounter"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
	"github.com/xaionaro-go/wavrecorder/pkg/permission"
	"github.com/xaionaro-go/wavrecorder/pkg/wav"
)

// Session records audio from a device into WAV files, one file per
// Start/Stop cycle. All the methods are safe for concurrent use.
type Session struct {
	device           types.CaptureDevice
	permission       PermissionChecker
	outputDir        string
	stopTimeout      time.Duration
	clock            func() time.Time
	progressInterval uint64
	events           *eventBus

	// locker serializes the public operations.
	locker   sync.Mutex
	released bool

	// stateLocker protects the fields below; it is also taken by the
	// capture loop, so it is never held while waiting.
	stateLocker    sync.Mutex
	state          State
	config         AudioConfig
	recording      *recording
	lastOutputPath string
	lastBytes      uint64
}

type recording struct {
	config      AudioConfig
	plan        Plan
	outputPath  string
	container   *wav.Writer
	stream      types.CaptureStream
	counter     *datacounter.WriterCounter
	keepRunning atomic.Bool
	done        chan struct{}
	finalize    sync.Once
}

func New(
	device types.CaptureDevice,
	opts ...Option,
) *Session {
	cfg := Options{
		Permission:       permission.AlwaysGranted{},
		StopTimeout:      DefaultStopTimeout,
		Clock:            time.Now,
		InitialConfig:    DefaultAudioConfig(),
		ProgressInterval: DefaultProgressInterval,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir()
	}

	return &Session{
		device:           device,
		permission:       cfg.Permission,
		outputDir:        cfg.OutputDir,
		stopTimeout:      cfg.StopTimeout,
		clock:            cfg.Clock,
		progressInterval: cfg.ProgressInterval,
		events:           newEventBus(),
		config:           cfg.InitialConfig,
	}
}

func (s *Session) State() State {
	s.stateLocker.Lock()
	defer s.stateLocker.Unlock()
	return s.state
}

func (s *Session) Config() AudioConfig {
	s.stateLocker.Lock()
	defer s.stateLocker.Unlock()
	return s.config
}

// OutputPath returns the file of the current or the last recording.
func (s *Session) OutputPath() string {
	s.stateLocker.Lock()
	defer s.stateLocker.Unlock()
	return s.lastOutputPath
}

// BytesWritten returns the amount of PCM bytes of the current or the last
// recording.
func (s *Session) BytesWritten() uint64 {
	s.stateLocker.Lock()
	defer s.stateLocker.Unlock()
	if s.recording != nil {
		return s.recording.counter.Count()
	}
	return s.lastBytes
}

// Subscribe returns a channel of the session events. The channel is closed
// when ctx is cancelled or the session is released.
func (s *Session) Subscribe(ctx context.Context) <-chan Event {
	return s.events.Subscribe(ctx)
}

// Configure replaces the configuration used by the next Start.
func (s *Session) Configure(ctx context.Context, cfg AudioConfig) error {
	s.locker.Lock()
	defer s.locker.Unlock()

	s.stateLocker.Lock()
	defer s.stateLocker.Unlock()
	if s.state == StateRecording {
		logger.Warnf(ctx, "ignoring the configuration '%s': %v", cfg.Description, ErrConfigLocked)
		return ErrConfigLocked
	}
	logger.Debugf(ctx, "configured: %s", cfg)
	s.config = cfg
	return nil
}

func (s *Session) currentRecording() *recording {
	s.stateLocker.Lock()
	defer s.stateLocker.Unlock()
	return s.recording
}

// Start begins a new recording. An active recording is stopped first. On
// error nothing stays open and the session is Idle, even if it was in the
// Error state before.
func (s *Session) Start(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Start")
	defer func() { logger.Debugf(ctx, "/Start: %v", _err) }()

	s.locker.Lock()
	defer s.locker.Unlock()
	defer func() {
		if _err != nil {
			s.setIdleIfNotRecording()
		}
	}()

	if s.released {
		return ErrReleased
	}
	if !s.permission.IsGranted(ctx) {
		return ErrPermissionDenied
	}

	if s.currentRecording() != nil {
		logger.Infof(ctx, "already recording, restarting")
		if err := s.stopLocked(ctx); err != nil {
			logger.Warnf(ctx, "unable to cleanly stop the previous recording: %v", err)
		}
	}

	cfg := s.Config()
	if err := ValidateConfig(cfg); err != nil {
		return err
	}

	outputPath := cfg.OutputPath
	if outputPath == "" {
		outputPath = filepath.Join(s.outputDir, RecordingFileName(cfg, s.clock()))
	}

	container, err := wav.Create(ctx, outputPath, cfg.SampleRate, uint16(cfg.ChannelCount), uint16(cfg.BitDepth))
	if err != nil {
		if errors.Is(err, wav.ErrInvalidParameters) {
			return fmt.Errorf("%w: %w", ErrUnsupportedParameter, err)
		}
		return fmt.Errorf("%w: %w", ErrOutputFile, err)
	}

	plan, err := Negotiate(ctx, cfg, s.device)
	if err != nil {
		discardContainer(ctx, container)
		return err
	}

	params := types.CaptureParams{
		Source:     cfg.Source,
		DeviceName: cfg.Device,
		SampleRate: types.SampleRate(cfg.SampleRate),
		Channels:   types.Channel(cfg.ChannelCount),
		Layout:     plan.Layout,
		PCMFormat:  plan.PCMFormat,
		BufferSize: plan.EffectiveBufferBytes,
	}
	logger.Tracef(ctx, "OpenCapture")
	stream, err := s.device.OpenCapture(ctx, params)
	logger.Tracef(ctx, "/OpenCapture: %v", err)
	if err != nil {
		discardContainer(ctx, container)
		return fmt.Errorf("%w: %w", ErrDeviceInit, err)
	}

	logger.Tracef(ctx, "stream.Start")
	err = stream.Start(ctx)
	logger.Tracef(ctx, "/stream.Start: %v", err)
	if err != nil {
		if closeErr := stream.Close(); closeErr != nil {
			logger.Warnf(ctx, "unable to close the stream: %v", closeErr)
		}
		discardContainer(ctx, container)
		return fmt.Errorf("%w: %w", ErrDeviceInit, err)
	}

	rec := &recording{
		config:     cfg,
		plan:       plan,
		outputPath: outputPath,
		container:  container,
		stream:     stream,
		counter:    datacounter.NewWriterCounter(container),
		done:       make(chan struct{}),
	}
	rec.keepRunning.Store(true)

	s.stateLocker.Lock()
	s.state = StateRecording
	s.recording = rec
	s.lastOutputPath = outputPath
	s.lastBytes = 0
	s.stateLocker.Unlock()

	logger.Infof(ctx, "recording %s into '%s' (buffer: %d bytes, read chunk: %d bytes)", cfg, outputPath, plan.EffectiveBufferBytes, plan.ReadChunkBytes)
	s.events.Publish(Event{
		Type:       EventStarted,
		Time:       s.clock(),
		OutputPath: outputPath,
		Message:    fmt.Sprintf("recording into %s", outputPath),
	})

	observability.Go(context.WithoutCancel(ctx), func(ctx context.Context) {
		s.captureLoop(ctx, rec)
	})
	return nil
}

func (s *Session) setIdleIfNotRecording() {
	s.stateLocker.Lock()
	defer s.stateLocker.Unlock()
	if s.recording == nil {
		s.state = StateIdle
	}
}

// discardContainer closes and removes a file which never got any audio.
func discardContainer(ctx context.Context, container *wav.Writer) {
	if err := container.Close(); err != nil {
		logger.Warnf(ctx, "unable to close '%s': %v", container.Path(), err)
	}
	if err := os.Remove(container.Path()); err != nil {
		logger.Warnf(ctx, "unable to remove '%s': %v", container.Path(), err)
	}
}

// Stop ends the current recording and finalizes the file. It is a no-op if
// nothing is being recorded.
func (s *Session) Stop(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Stop")
	defer func() { logger.Debugf(ctx, "/Stop: %v", _err) }()

	s.locker.Lock()
	defer s.locker.Unlock()
	return s.stopLocked(ctx)
}

func (s *Session) stopLocked(ctx context.Context) error {
	rec := s.currentRecording()
	if rec == nil {
		return nil
	}

	rec.keepRunning.Store(false)
	logger.Tracef(ctx, "stream.Stop")
	err := rec.stream.Stop()
	logger.Tracef(ctx, "/stream.Stop: %v", err)
	if err != nil {
		logger.Warnf(ctx, "unable to stop the stream: %v", err)
	}

	t := time.NewTimer(s.stopTimeout)
	defer t.Stop()
	select {
	case <-rec.done:
	case <-t.C:
		logger.Warnf(ctx, "the capture loop did not finish within %s, releasing the resources forcibly", s.stopTimeout)
	}

	return s.finalize(ctx, rec, nil)
}

// finalize releases the resources of rec and publishes the terminal event.
// Only the first call per recording has an effect.
func (s *Session) finalize(
	ctx context.Context,
	rec *recording,
	cause error,
) error {
	var result error
	rec.finalize.Do(func() {
		var mErr *multierror.Error
		if err := rec.stream.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to close the capture stream: %w", err))
		}
		if err := rec.container.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("%w: %w", ErrOutputFile, err))
		}
		result = mErr.ErrorOrNil()
		if result != nil {
			logger.Errorf(ctx, "unable to release the recording resources: %v", result)
		}

		bytesWritten := rec.counter.Count()
		ev := Event{
			Time:         s.clock(),
			OutputPath:   rec.outputPath,
			BytesWritten: bytesWritten,
		}
		if cause != nil {
			ev.Type = EventError
			ev.Err = cause
			ev.Message = cause.Error()
			logger.Errorf(ctx, "recording into '%s' failed: %v", rec.outputPath, cause)
		} else {
			ev.Type = EventStopped
			ev.Message = fmt.Sprintf("recorded %d bytes into %s", bytesWritten, rec.outputPath)
			logger.Infof(ctx, "%s", ev.Message)
		}

		// the event is queued before the recording is detached, so Release
		// cannot close the bus in between
		s.stateLocker.Lock()
		defer s.stateLocker.Unlock()
		if s.recording == rec {
			s.recording = nil
			s.lastBytes = bytesWritten
			if cause != nil {
				s.state = StateError
			} else {
				s.state = StateIdle
			}
		}
		s.events.Publish(ev)
	})
	return result
}

// Release stops the recording (if any) and closes the event subscriptions.
// It is idempotent; Start after Release returns ErrReleased.
func (s *Session) Release(ctx context.Context) error {
	s.locker.Lock()
	defer s.locker.Unlock()
	if s.released {
		return nil
	}
	s.released = true

	var mErr *multierror.Error
	if err := s.stopLocked(ctx); err != nil {
		mErr = multierror.Append(mErr, err)
	}
	s.events.Close()
	return mErr.ErrorOrNil()
}
