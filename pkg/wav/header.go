package wav

import (
	"encoding/binary"
)

const (
	HeaderSize = 44

	riffSizeOffset = 4
	dataSizeOffset = 40

	fmtChunkSize = 16
	formatPCM    = 1
)

// Format is the part of a canonical PCM WAV header which does not depend on
// the amount of data.
type Format struct {
	SampleRate    uint32
	Channels      uint16
	BitsPerSample uint16
}

func (f Format) BlockAlign() uint16 {
	return f.Channels * (f.BitsPerSample / 8)
}

func (f Format) ByteRate() uint32 {
	return f.SampleRate * uint32(f.BlockAlign())
}

// Header renders the 44-byte header for dataLength bytes of PCM payload.
func (f Format) Header(dataLength uint32) []byte {
	h := make([]byte, HeaderSize)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[riffSizeOffset:], riffSize(dataLength))
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], fmtChunkSize)
	binary.LittleEndian.PutUint16(h[20:22], formatPCM)
	binary.LittleEndian.PutUint16(h[22:24], f.Channels)
	binary.LittleEndian.PutUint32(h[24:28], f.SampleRate)
	binary.LittleEndian.PutUint32(h[28:32], f.ByteRate())
	binary.LittleEndian.PutUint16(h[32:34], f.BlockAlign())
	binary.LittleEndian.PutUint16(h[34:36], f.BitsPerSample)
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[dataSizeOffset:], dataLength)
	return h
}

// placeholderHeader is the header written before any data: both size fields
// are zero until Close patches them.
func placeholderHeader(f Format) []byte {
	h := f.Header(0)
	binary.LittleEndian.PutUint32(h[riffSizeOffset:], 0)
	return h
}

func riffSize(dataLength uint32) uint32 {
	return dataLength + HeaderSize - 8
}
