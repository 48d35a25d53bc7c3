package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	baseDir    string
	verbose    bool
	rootCmd    = &cobra.Command{
		Use:   "resultdir",
		Short: "Manage timestamped result directories",
		Long: `resultdir creates, lists and prunes <prefix>-<YYYY-MM-DD_HH-MM-SS>
directories under a base directory. Without a subcommand it creates a
test-run directory and prints the most recent workflow directories.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runSelfTest,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", "", "base directory (default from config, \"results\")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
