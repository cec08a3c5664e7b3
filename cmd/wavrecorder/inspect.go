package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xaionaro-go/wavrecorder/pkg/wav"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.wav>...",
	Short: "Print the format, length and peak level of WAV files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			info, err := wav.Inspect(path)
			if err != nil {
				return err
			}
			fmt.Printf("%s:\n", path)
			fmt.Printf("  format:      %d (PCM is 1)\n", info.AudioFormat)
			fmt.Printf("  sample rate: %d Hz\n", info.SampleRate)
			fmt.Printf("  channels:    %d\n", info.Channels)
			fmt.Printf("  bits:        %d\n", info.BitsPerSample)
			fmt.Printf("  data:        %d bytes\n", info.DataLength)
			fmt.Printf("  duration:    %s\n", info.Duration)
			fmt.Printf("  peak:        %.3f\n", info.Peak)
		}
		return nil
	},
}
