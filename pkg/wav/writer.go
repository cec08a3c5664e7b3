// Package wav writes canonical 44-byte-header PCM WAV files whose size fields
// are patched once the amount of data is known.
package wav

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
)

const (
	MinSampleRate = 8000
	MaxSampleRate = 192000
	MaxChannels   = 16
)

// Writer is a single-use WAV container: Create opens it, Close finalizes it.
type Writer struct {
	locker     sync.Mutex
	logger     logger.Logger
	path       string
	format     Format
	file       *os.File
	dataLength uint32
}

func ValidateParameters(sampleRate uint32, channels uint16, bitsPerSample uint16) error {
	switch bitsPerSample {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("%w: bits per sample %d is not one of 8, 16, 24, 32", ErrInvalidParameters, bitsPerSample)
	}
	if channels < 1 || channels > MaxChannels {
		return fmt.Errorf("%w: channel count %d is outside of [1, %d]", ErrInvalidParameters, channels, MaxChannels)
	}
	if sampleRate == 0 {
		return fmt.Errorf("%w: sample rate is zero", ErrInvalidParameters)
	}
	return nil
}

// Create creates (or truncates) the file at path, creating the parent
// directories as needed, and writes a header with zero size fields.
func Create(
	ctx context.Context,
	path string,
	sampleRate uint32,
	channels uint16,
	bitsPerSample uint16,
) (_ *Writer, _err error) {
	logger.Debugf(ctx, "Create(%s, %d, %d, %d)", path, sampleRate, channels, bitsPerSample)
	defer func() { logger.Debugf(ctx, "/Create(%s, %d, %d, %d): %v", path, sampleRate, channels, bitsPerSample, _err) }()

	if err := ValidateParameters(sampleRate, channels, bitsPerSample); err != nil {
		return nil, err
	}
	if sampleRate < MinSampleRate || sampleRate > MaxSampleRate {
		logger.Warnf(ctx, "unusual sample rate %d, expected [%d, %d]", sampleRate, MinSampleRate, MaxSampleRate)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("unable to create directory '%s': %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to create file '%s': %w", path, err)
	}

	format := Format{
		SampleRate:    sampleRate,
		Channels:      channels,
		BitsPerSample: bitsPerSample,
	}
	if _, err := f.Write(placeholderHeader(format)); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("unable to write the header to '%s': %w", path, err)
	}

	return &Writer{
		logger: logger.FromCtx(ctx),
		path:   path,
		format: format,
		file:   f,
	}, nil
}

func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) Format() Format {
	return w.format
}

func (w *Writer) IsOpen() bool {
	w.locker.Lock()
	defer w.locker.Unlock()
	return w.file != nil
}

// DataLength returns the amount of PCM bytes written so far.
func (w *Writer) DataLength() uint32 {
	w.locker.Lock()
	defer w.locker.Unlock()
	return w.dataLength
}

// WriteAudioData appends buf[offset:offset+length].
func (w *Writer) WriteAudioData(buf []byte, offset, length int) error {
	if offset < 0 || length < 0 || offset+length > len(buf) {
		return fmt.Errorf("%w: offset %d, length %d, buffer size %d", ErrInvalidRange, offset, length, len(buf))
	}
	_, err := w.write(buf[offset : offset+length])
	return err
}

func (w *Writer) Write(p []byte) (int, error) {
	return w.write(p)
}

func (w *Writer) write(p []byte) (int, error) {
	w.locker.Lock()
	defer w.locker.Unlock()
	if w.file == nil {
		return 0, ErrNotOpen
	}
	if uint64(w.dataLength)+uint64(len(p)) > math.MaxUint32-HeaderSize {
		return 0, fmt.Errorf("the data chunk would exceed the 4GiB limit of WAV")
	}

	n, err := w.file.Write(p)
	w.dataLength += uint32(n)
	if err != nil {
		w.logger.Errorf("unable to write to '%s', closing: %v", w.path, err)
		if closeErr := w.closeLocked(); closeErr != nil {
			err = multierror.Append(err, closeErr)
		}
		return n, fmt.Errorf("unable to write to '%s': %w", w.path, err)
	}
	return n, nil
}

// Close closes the file and patches the RIFF and data size fields. Closing an
// already closed Writer is a no-op.
func (w *Writer) Close() error {
	w.locker.Lock()
	defer w.locker.Unlock()
	return w.closeLocked()
}

func (w *Writer) closeLocked() error {
	if w.file == nil {
		return nil
	}
	f := w.file
	w.file = nil

	if err := f.Close(); err != nil {
		return fmt.Errorf("unable to close '%s': %w", w.path, err)
	}
	if err := patchSizes(w.path, w.dataLength); err != nil {
		return fmt.Errorf("unable to finalize the header of '%s': %w", w.path, err)
	}
	w.logger.Debugf("finalized '%s': %d bytes of data", w.path, w.dataLength)
	return nil
}

func patchSizes(path string, dataLength uint32) (_err error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil && _err == nil {
			_err = err
		}
	}()

	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], riffSize(dataLength))
	if _, err := f.WriteAt(buf[:], riffSizeOffset); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(buf[:], dataLength)
	if _, err := f.WriteAt(buf[:], dataSizeOffset); err != nil {
		return err
	}
	return nil
}
