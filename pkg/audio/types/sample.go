package types

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DecodeSample converts one sample in format f to a value in [-1, 1].
func (f PCMFormat) DecodeSample(p []byte) float64 {
	switch f {
	case PCMFormatU8:
		return (float64(p[0]) - 128) / 128
	case PCMFormatS16LE:
		return float64(int16(binary.LittleEndian.Uint16(p))) / 32768
	case PCMFormatS24LE:
		val := int32(uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16)
		if val&0x800000 != 0 {
			val |= -16777216
		}
		return float64(val) / 8388608
	case PCMFormatS32LE:
		return float64(int32(binary.LittleEndian.Uint32(p))) / 2147483648
	default:
		panic(fmt.Sprintf("unknown format: %v", f))
	}
}

// EncodeSample writes v (expected to be in [-1, 1]) as one sample in format f.
// Out-of-range values are clipped.
func (f PCMFormat) EncodeSample(p []byte, v float64) {
	v = math.Max(-1, math.Min(1, v))
	switch f {
	case PCMFormatU8:
		p[0] = byte(math.Min(255, math.Round(v*128+128)))
	case PCMFormatS16LE:
		binary.LittleEndian.PutUint16(p, uint16(int16(math.Min(math.MaxInt16, math.Round(v*32768)))))
	case PCMFormatS24LE:
		val := int32(math.Round(v * 8388608))
		if val > 8388607 {
			val = 8388607
		}
		if val < -8388608 {
			val = -8388608
		}
		p[0] = byte(val)
		p[1] = byte(val >> 8)
		p[2] = byte(val >> 16)
	case PCMFormatS32LE:
		binary.LittleEndian.PutUint32(p, uint32(int32(math.Min(math.MaxInt32, math.Round(v*2147483648)))))
	default:
		panic(fmt.Sprintf("unknown format: %v", f))
	}
}
