package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/wavrecorder/pkg/audio"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
	"github.com/xaionaro-go/wavrecorder/pkg/capture"
	"github.com/xaionaro-go/wavrecorder/pkg/config"
	"github.com/xaionaro-go/wavrecorder/pkg/permission"
	"github.com/xaionaro-go/wavrecorder/pkg/wav"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record until interrupted, the duration elapses or the stream ends",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return v.BindPFlags(cmd.Flags())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return record(cmd.Context())
	},
}

func init() {
	addRecordFlags(recordCmd.Flags())
}

func addRecordFlags(flags *pflag.FlagSet) {
	flags.String("profile", "", "profile description or 1-based index (default is the first profile)")
	flags.String("backend", "", "capture backend: pulseaudio, malgo, portaudio, synthetic (default is auto-detection)")
	flags.String("device", "", "backend-specific capture device name")
	flags.String("source", "", "audio source, e.g. MIC, VOICE_RECOGNITION, UNPROCESSED")
	flags.Uint32("sample-rate", 0, "sample rate in Hz")
	flags.Uint("channels", 0, "channel count (1-16)")
	flags.Uint("bits", 0, "bits per sample: 8, 16, 24 or 32")
	flags.Int("buffer-multiplier", 0, "multiplier of the device minimal buffer size")
	flags.StringP("output", "o", "", "output file (default is a generated name in --output-dir)")
	flags.String("output-dir", "", "directory for generated file names (default is $XDG_DATA_HOME/wavrecorder/recordings)")
	flags.Duration("duration", 0, "stop after this duration (default is until interrupted)")
	flags.Bool("check-permission", false, "require read/write access to a /dev/snd capture node")
}

func selectedConfig(ctx context.Context) (capture.AudioConfig, error) {
	configs, source, err := config.LoadWithFallback(ctx, cfgFile)
	if err != nil {
		return capture.AudioConfig{}, fmt.Errorf("unable to load profiles: %w", err)
	}
	if len(configs) == 0 {
		return capture.AudioConfig{}, fmt.Errorf("no valid profiles in %s", source)
	}
	logger.Debugf(ctx, "loaded %d profiles from %s", len(configs), source)

	cfg := configs[0]
	if name := v.GetString("profile"); name != "" {
		var ok bool
		cfg, ok = config.Find(configs, name)
		if !ok {
			return capture.AudioConfig{}, fmt.Errorf("profile '%s' not found in %s", name, source)
		}
	}

	if v.IsSet("source") {
		src, err := types.ParseSource(v.GetString("source"))
		if err != nil {
			return capture.AudioConfig{}, err
		}
		cfg.Source = src
	}
	if v.IsSet("sample-rate") {
		cfg.SampleRate = v.GetUint32("sample-rate")
	}
	if v.IsSet("channels") {
		cfg.ChannelCount = v.GetUint("channels")
	}
	if v.IsSet("bits") {
		cfg.BitDepth = v.GetUint("bits")
	}
	if v.IsSet("buffer-multiplier") {
		cfg.BufferMultiplier = v.GetInt("buffer-multiplier")
	}
	if v.IsSet("device") {
		cfg.Device = v.GetString("device")
	}
	if v.IsSet("output") {
		cfg.OutputPath = v.GetString("output")
	}
	return cfg, nil
}

func captureDevice(ctx context.Context) (*audio.CaptureDevice, error) {
	if name := v.GetString("backend"); name != "" {
		return audio.NewCaptureDeviceByName(ctx, name)
	}
	return audio.NewCaptureDeviceAuto(ctx), nil
}

func record(ctx context.Context) (_err error) {
	cfg, err := selectedConfig(ctx)
	if err != nil {
		return err
	}

	device, err := captureDevice(ctx)
	if err != nil {
		return err
	}
	defer device.Close()
	logger.Infof(ctx, "using the '%s' capture backend", device.BackendName)

	opts := []capture.Option{
		capture.OptionInitialConfig(cfg),
	}
	if dir := v.GetString("output-dir"); dir != "" {
		opts = append(opts, capture.OptionOutputDir(dir))
	}
	if v.GetBool("check-permission") {
		opts = append(opts, capture.OptionPermission(permission.DeviceNodes{}))
	}
	session := capture.New(device, opts...)
	defer func() {
		if err := session.Release(ctx); err != nil {
			_err = multierror.Append(_err, err).ErrorOrNil()
		}
	}()

	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()
	events := session.Subscribe(ctx)

	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("unable to start recording: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var timeoutCh <-chan time.Time
	if d := v.GetDuration("duration"); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		timeoutCh = t.C
	}

	observability.Go(ctx, func(ctx context.Context) {
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				logger.Debugf(ctx, "written: %d", session.BytesWritten())
			}
		}
	})

	var recordErr error
loop:
	for {
		select {
		case <-sigCh:
			logger.Infof(ctx, "interrupted, stopping")
			break loop
		case <-timeoutCh:
			break loop
		case ev, ok := <-events:
			if !ok {
				break loop
			}
			logger.Debugf(ctx, "event: %s", ev)
			switch ev.Type {
			case capture.EventStopped:
				break loop
			case capture.EventError:
				recordErr = ev.Err
				break loop
			}
		}
	}

	if err := session.Stop(ctx); err != nil {
		recordErr = multierror.Append(recordErr, err).ErrorOrNil()
	}

	path := session.OutputPath()
	if info, err := wav.Inspect(path); err == nil {
		fmt.Printf("%s: %d Hz, %d ch, %d bit, %s, %d bytes\n",
			path, info.SampleRate, info.Channels, info.BitsPerSample,
			info.Duration.Round(time.Millisecond), info.DataLength)
	} else {
		logger.Warnf(ctx, "unable to inspect '%s': %v", path, err)
	}
	return recordErr
}
