package capture

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// captureLoop moves the data from the stream to the container until the
// recording is stopped or the stream ends. Reads and writes happen in
// lockstep, so the device buffer is the only queue.
func (s *Session) captureLoop(
	ctx context.Context,
	rec *recording,
) {
	logger.Debugf(ctx, "captureLoop")
	defer func() { logger.Debugf(ctx, "/captureLoop") }()
	defer close(rec.done)

	buf := make([]byte, rec.plan.ReadChunkBytes)
	nextProgressReport := s.progressInterval
	for rec.keepRunning.Load() {
		logger.Tracef(ctx, "Read")
		n, err := rec.stream.Read(buf)
		logger.Tracef(ctx, "/Read: %d %v", n, err)

		if n > 0 {
			if _, writeErr := rec.counter.Write(buf[:n]); writeErr != nil {
				if !rec.keepRunning.Load() {
					return
				}
				s.finalize(ctx, rec, fmt.Errorf("%w: %w", ErrOutputFile, writeErr))
				return
			}
			if s.progressInterval > 0 {
				if count := rec.counter.Count(); count >= nextProgressReport {
					logger.Infof(ctx, "recorded %.1f MiB into '%s'", float64(count)/(1024*1024), rec.outputPath)
					for nextProgressReport <= count {
						nextProgressReport += s.progressInterval
					}
				}
			}
		}

		switch {
		case err == nil && n > 0:
			continue
		case err == nil, errors.Is(err, io.EOF):
			if !rec.keepRunning.Load() {
				return
			}
			logger.Debugf(ctx, "the capture stream ended")
			s.finalize(ctx, rec, nil)
			return
		default:
			if !rec.keepRunning.Load() {
				logger.Debugf(ctx, "read error after a stop request: %v", err)
				return
			}
			s.finalize(ctx, rec, fmt.Errorf("%w: %w", ErrDeviceRead, err))
			return
		}
	}
}
