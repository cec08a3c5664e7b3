package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	recordingTimestampLayout = "20060102_150405"
)

// DefaultOutputDir returns $XDG_DATA_HOME/wavrecorder/recordings, falling back
// to ~/.local/share and then to the temporary directory.
func DefaultOutputDir() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		if home, err := os.UserHomeDir(); err == nil {
			base = filepath.Join(home, ".local", "share")
		}
	}
	if base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, "wavrecorder", "recordings")
}

// RecordingFileName generates a name like
// "recording_48000Hz_2ch_16bit_20240131_235959.wav".
func RecordingFileName(cfg AudioConfig, now time.Time) string {
	return fmt.Sprintf(
		"recording_%dHz_%dch_%dbit_%s.wav",
		cfg.SampleRate, cfg.ChannelCount, cfg.BitDepth,
		now.Format(recordingTimestampLayout),
	)
}
