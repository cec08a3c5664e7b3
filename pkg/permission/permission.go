// Package permission answers whether the process may capture audio.
package permission

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/facebookincubator/go-belt/tool/logger"
	"golang.org/x/sys/unix"
)

type AlwaysGranted struct{}

func (AlwaysGranted) IsGranted(context.Context) bool {
	return true
}

type Denied struct{}

func (Denied) IsGranted(context.Context) bool {
	return false
}

const (
	DefaultSoundDevicesDir = "/dev/snd"
)

// DeviceNodes grants the permission if at least one capture node of the sound
// devices directory is both readable and writable by the process. The check
// is repeated on every call.
type DeviceNodes struct {
	Dir string
}

func (p DeviceNodes) IsGranted(ctx context.Context) bool {
	dir := p.Dir
	if dir == "" {
		dir = DefaultSoundDevicesDir
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Debugf(ctx, "unable to list '%s': %v", dir, err)
		return false
	}

	for _, entry := range entries {
		if !isCaptureNode(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		err := unix.Access(path, unix.R_OK|unix.W_OK)
		logger.Tracef(ctx, "access(%s): %v", path, err)
		if err == nil {
			return true
		}
	}
	logger.Debugf(ctx, "no accessible capture device nodes in '%s'", dir)
	return false
}

// isCaptureNode matches ALSA PCM capture nodes, e.g. "pcmC0D0c".
func isCaptureNode(name string) bool {
	return strings.HasPrefix(name, "pcmC") && strings.HasSuffix(name, "c")
}
