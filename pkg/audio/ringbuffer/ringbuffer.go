// Package ringbuffer turns push-style (callback driven) audio backends into
// a blocking io.Reader.
package ringbuffer

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/iamcalledrob/circular"
)

// RingBuffer is a fixed-size byte queue: writers never block (a chunk that
// does not fit is dropped, counted and reported to the overflow handler),
// readers block until data arrives or the buffer is closed.
type RingBuffer struct {
	locker          sync.Mutex
	buffer          *circular.Buffer
	closed          bool
	closeErr        error
	overflowCount   uint64
	overflowBytes   uint64
	onOverflow      OverflowHandler
	writeProgressCh chan struct{}
}

var _ io.ReadWriteCloser = (*RingBuffer)(nil)

// OverflowHandler is called (outside of the buffer lock) every time a chunk
// is dropped; totalChunks and totalBytes include the dropped chunk.
type OverflowHandler func(droppedBytes int, totalChunks uint64, totalBytes uint64)

type Option func(*RingBuffer)

func OptionOverflowHandler(handler OverflowHandler) Option {
	return func(b *RingBuffer) {
		b.onOverflow = handler
	}
}

func New(size uint, opts ...Option) *RingBuffer {
	b := &RingBuffer{
		buffer:          circular.NewBuffer(int(size)),
		writeProgressCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Write never blocks. If p does not fit, it is dropped as a whole and the
// overflow handler is notified; the call still succeeds so a device
// callback keeps running.
func (b *RingBuffer) Write(p []byte) (int, error) {
	b.locker.Lock()
	if b.closed {
		b.locker.Unlock()
		return 0, io.ErrClosedPipe
	}
	if len(p) == 0 {
		b.locker.Unlock()
		return 0, nil
	}

	w, err := b.buffer.Write(p)
	switch {
	case errors.Is(err, circular.ErrNoSpace):
		b.overflowCount++
		b.overflowBytes += uint64(len(p))
		chunks, bytes, handler := b.overflowCount, b.overflowBytes, b.onOverflow
		b.locker.Unlock()
		if handler != nil {
			handler(len(p), chunks, bytes)
		}
		return len(p), nil
	case err != nil:
		b.locker.Unlock()
		return w, fmt.Errorf("unable to write to the circular buffer: %w", err)
	}
	defer b.locker.Unlock()

	var oldCh chan struct{}
	oldCh, b.writeProgressCh = b.writeProgressCh, make(chan struct{})
	close(oldCh)
	return w, nil
}

// Read blocks until at least one byte is available. After Close the
// remaining bytes are still returned, then io.EOF (or the error passed to
// CloseWithError).
func (b *RingBuffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	b.locker.Lock()
	defer b.locker.Unlock()
	for {
		n, err := b.buffer.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("unable to read from the circular buffer: %w", err)
		}
		if b.closed {
			if b.closeErr != nil {
				return 0, b.closeErr
			}
			return 0, io.EOF
		}
		b.waitForWrite()
	}
}

func (b *RingBuffer) waitForWrite() {
	ch := b.writeProgressCh
	b.locker.Unlock()
	defer b.locker.Lock()
	<-ch
}

func (b *RingBuffer) Close() error {
	return b.CloseWithError(nil)
}

// CloseWithError closes the buffer; pending and future reads return err once
// the buffered bytes are drained. The first close wins.
func (b *RingBuffer) CloseWithError(err error) error {
	b.locker.Lock()
	defer b.locker.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.closeErr = err
	close(b.writeProgressCh)
	return nil
}

// Overflows returns how many chunks (and bytes) were dropped because the
// reader did not keep up.
func (b *RingBuffer) Overflows() (chunks uint64, bytes uint64) {
	b.locker.Lock()
	defer b.locker.Unlock()
	return b.overflowCount, b.overflowBytes
}
