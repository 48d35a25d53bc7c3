package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	rootCmd    = &cobra.Command{
		Use:   "result-committer",
		Short: "Commit workflow results with a JSON summary",
		Long: `result-committer writes workflow_summary.json into a result directory,
listing every file it contains, then stages the directory and commits it
with a message naming the workflow run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCommit,
	}
)

// exitError ends the process with code after the command already reported
// the failure on stdout
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
