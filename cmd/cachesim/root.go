package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/timing/hierarchy"
)

var (
	opts     options
	logLevel string
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "cachesim",
	Short: "Multi-level cache hierarchy simulator",
}

var runCmd = &cobra.Command{
	Use:   "run <trace>",
	Short: "Replay a memory access trace through the cache hierarchy",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		opts.tracePath = args[0]

		res, err := simulate(opts)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		writeReport(cmd.OutOrStdout(), res)
		logrus.Info("Simulation complete.")
	},
}

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the default hierarchy configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := hierarchy.DefaultConfig().Marshal()
		if err != nil {
			return err
		}

		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().StringVar(&opts.configPath, "config", "", "Path to hierarchy configuration YAML file")
	runCmd.Flags().StringVar(&opts.timingPath, "timing", "", "Path to timing configuration JSON file")
	runCmd.Flags().StringVar(&opts.logPath, "access-log", hierarchy.DefaultLogPath, "Access log file; empty disables it")
	runCmd.Flags().StringVar(&opts.imagePath, "image", "", "AArch64 ELF image to preload into memory")
	runCmd.Flags().StringVar(&opts.rawImagePath, "raw-image", "", "Flat binary to preload into memory at --base")
	runCmd.Flags().Uint64Var(&opts.base, "base", 0, "Load address of --raw-image")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.MarkFlagsMutuallyExclusive("image", "raw-image")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(defaultsCmd)
}
