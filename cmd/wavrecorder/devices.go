package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xaionaro-go/wavrecorder/pkg/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the capture backends in the order of preference and whether they work here",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, status := range audio.ProbeBackends(cmd.Context()) {
			if status.Error != nil {
				fmt.Printf("%-12s unavailable: %v\n", status.Name, status.Error)
				continue
			}
			fmt.Printf("%-12s ok\n", status.Name)
		}
		return nil
	},
}
