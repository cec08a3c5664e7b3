package types

import (
	"fmt"
)

type PCMFormat uint

const (
	PCMFormatUndefined = PCMFormat(iota)
	PCMFormatU8
	PCMFormatS16LE
	PCMFormatS24LE
	PCMFormatS32LE
	EndOfPCMFormat
)

func (f PCMFormat) String() string {
	switch f {
	case PCMFormatUndefined:
		return "undefined"
	case PCMFormatU8:
		return "u8"
	case PCMFormatS16LE:
		return "s16le"
	case PCMFormatS24LE:
		return "s24le"
	case PCMFormatS32LE:
		return "s32le"
	default:
		return fmt.Sprintf("unknown_format_%d", uint(f))
	}
}

// Size returns the size of a single sample of a single channel in bytes.
func (f PCMFormat) Size() uint {
	switch f {
	case PCMFormatU8:
		return 1
	case PCMFormatS16LE:
		return 2
	case PCMFormatS24LE:
		return 3
	case PCMFormatS32LE:
		return 4
	default:
		return 0
	}
}

func (f PCMFormat) BitDepth() uint {
	return f.Size() * 8
}

// PCMFormatFromBitDepth returns the integer PCM format used by WAV files for
// the given bit depth (8-bit WAV samples are unsigned, the rest are signed
// little-endian).
func PCMFormatFromBitDepth(bits uint) (PCMFormat, error) {
	switch bits {
	case 8:
		return PCMFormatU8, nil
	case 16:
		return PCMFormatS16LE, nil
	case 24:
		return PCMFormatS24LE, nil
	case 32:
		return PCMFormatS32LE, nil
	default:
		return PCMFormatUndefined, fmt.Errorf("bit depth %d is not one of 8, 16, 24, 32", bits)
	}
}
