package capture

import (
	"context"
	"time"
)

const (
	DefaultStopTimeout      = time.Second
	DefaultProgressInterval = 10 * 1024 * 1024
)

// PermissionChecker reports whether audio capture is allowed right now.
type PermissionChecker interface {
	IsGranted(ctx context.Context) bool
}

type Options struct {
	Permission       PermissionChecker
	OutputDir        string
	StopTimeout      time.Duration
	Clock            func() time.Time
	InitialConfig    AudioConfig
	ProgressInterval uint64
}

type Option func(*Options)

func OptionPermission(checker PermissionChecker) Option {
	return func(opts *Options) { opts.Permission = checker }
}

// OptionOutputDir sets the directory for recordings without an explicit
// output path.
func OptionOutputDir(dir string) Option {
	return func(opts *Options) { opts.OutputDir = dir }
}

// OptionStopTimeout limits how long Stop waits for the capture loop before
// releasing the resources forcibly.
func OptionStopTimeout(timeout time.Duration) Option {
	return func(opts *Options) { opts.StopTimeout = timeout }
}

func OptionClock(clock func() time.Time) Option {
	return func(opts *Options) { opts.Clock = clock }
}

func OptionInitialConfig(cfg AudioConfig) Option {
	return func(opts *Options) { opts.InitialConfig = cfg }
}

// OptionProgressInterval sets how many bytes are recorded between progress
// log messages.
func OptionProgressInterval(bytes uint64) Option {
	return func(opts *Options) { opts.ProgressInterval = bytes }
}
