package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/xaionaro-go/wavrecorder/pkg/config"
)

var configsCmd = &cobra.Command{
	Use:   "configs",
	Short: "Manage recording profiles",
}

var configsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configs, source, err := config.LoadWithFallback(cmd.Context(), cfgFile)
		if err != nil {
			return err
		}
		fmt.Printf("profiles from %s:\n", source)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tDESCRIPTION\tSOURCE\tRATE\tCH\tBITS\tMULT")
		for idx, cfg := range configs {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%d\n",
				idx+1, cfg.Description, cfg.Source, cfg.SampleRate,
				cfg.ChannelCount, cfg.BitDepth, cfg.BufferMultiplier)
		}
		return w.Flush()
	},
}

var configsSaveCmd = &cobra.Command{
	Use:   "save <path>",
	Short: "Save the available profiles as YAML, e.g. to start customizing them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configs, _, err := config.LoadWithFallback(cmd.Context(), cfgFile)
		if err != nil {
			return err
		}
		return config.Save(args[0], configs)
	},
}

func init() {
	configsCmd.AddCommand(configsListCmd)
	configsCmd.AddCommand(configsSaveCmd)
}
