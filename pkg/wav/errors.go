package wav

import (
	"errors"
)

var (
	ErrInvalidParameters = errors.New("invalid WAV parameters")
	ErrNotOpen           = errors.New("the WAV writer is not open")
	ErrInvalidRange      = errors.New("the requested range is outside of the buffer")
)
