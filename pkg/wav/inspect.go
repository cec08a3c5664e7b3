package wav

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
)

type Info struct {
	Format
	AudioFormat uint16
	DataLength  int64
	Duration    time.Duration

	// Peak is the highest absolute sample value normalized to [0, 1].
	Peak float64
}

// Inspect parses a WAV file with an independent decoder, which makes it
// suitable to verify files produced by Writer.
func Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("unable to open '%s': %w", path, err)
	}
	defer f.Close()

	d := gowav.NewDecoder(f)
	d.ReadInfo()
	if err := d.Err(); err != nil {
		return Info{}, fmt.Errorf("'%s' is not a valid WAV file: %w", path, err)
	}
	if d.NumChans == 0 || d.BitDepth == 0 {
		return Info{}, fmt.Errorf("'%s' has no valid format chunk", path)
	}
	if err := d.FwdToPCM(); err != nil {
		return Info{}, fmt.Errorf("unable to find the data chunk of '%s': %w", path, err)
	}

	info := Info{
		Format: Format{
			SampleRate:    d.SampleRate,
			Channels:      d.NumChans,
			BitsPerSample: d.BitDepth,
		},
		AudioFormat: d.WavAudioFormat,
		DataLength:  d.PCMLen(),
	}
	if byteRate := info.Format.ByteRate(); byteRate > 0 {
		info.Duration = time.Duration(float64(info.DataLength) / float64(byteRate) * float64(time.Second))
	}

	if info.DataLength == 0 {
		return info, nil
	}

	peak, err := peakLevel(d)
	if err != nil {
		return info, fmt.Errorf("unable to read samples of '%s': %w", path, err)
	}
	info.Peak = peak
	return info, nil
}

func peakLevel(d *gowav.Decoder) (float64, error) {
	fullScale := math.Exp2(float64(d.BitDepth) - 1)
	buf := &audio.IntBuffer{
		Data:           make([]int, 4096),
		Format:         d.Format(),
		SourceBitDepth: int(d.BitDepth),
	}

	var peak int
	for {
		n, err := d.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		if n == 0 {
			break
		}
		for _, v := range buf.Data[:n] {
			if d.BitDepth == 8 {
				v -= 128
			}
			if v < 0 {
				v = -v
			}
			if v > peak {
				peak = v
			}
		}
	}
	return math.Min(1, float64(peak)/fullScale), nil
}
