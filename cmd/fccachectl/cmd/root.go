// Package cmd contains the fccachectl command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const flagPid = "pid"
const flagOnce = "once"

var (
	pid  int
	once bool
)

var rootCmd = &cobra.Command{
	Use:   "fccachectl",
	Short: "fccachectl reads live stats from a running fccached over its UNIX stats socket",
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&pid, flagPid, "p", 0, "fccached process id to query")
	rootCmd.PersistentFlags().BoolVarP(&once, flagOnce, "1", false, "print stats once and exit")
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newDumpCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// Execute runs the fccachectl root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("fccachectl: %w", err)
	}
	return nil
}
