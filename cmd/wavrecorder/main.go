package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	_ "github.com/xaionaro-go/wavrecorder/pkg/audio/backends/malgo"
	_ "github.com/xaionaro-go/wavrecorder/pkg/audio/backends/portaudio"
	_ "github.com/xaionaro-go/wavrecorder/pkg/audio/backends/pulseaudio"
	_ "github.com/xaionaro-go/wavrecorder/pkg/audio/backends/synthetic"
)

var (
	loggerLevel = logger.LevelInfo
	cfgFile     string
	v           = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "wavrecorder",
	Short: "Record audio from a capture device into WAV files",
	Long: `wavrecorder captures PCM audio from PulseAudio, PortAudio, miniaudio or
a synthetic tone generator and writes it into WAV files. Recording
parameters come from profiles (JSON or YAML) which can be overridden by
flags or WAVRECORDER_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		l := logrus.Default().WithLevel(loggerLevel)
		ctx := logger.CtxWithLogger(cmd.Context(), l)
		logger.Default = func() logger.Logger {
			return l
		}
		cmd.SetContext(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().Var(&loggerLevel, "log-level", "Log level")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "profiles file (default is $XDG_CONFIG_HOME/wavrecorder/configs.{yaml,json}, then the built-in profiles)")

	v.SetEnvPrefix("WAVRECORDER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(configsCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(devicesCmd)
}

func main() {
	ctx := context.Background()
	err := rootCmd.ExecuteContext(ctx)
	belt.Flush(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
