// Package cmd defines and implements the CLI commands for the xcollector executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xcollector",
		Short: "A term-driven X/Twitter mirror collector with media enrichment.",
		Long: `xcollector continuously searches a Nitter-style mirror for a configured
set of terms, downloads each new post's media, enriches images with OCR
and videos with transcription, and commits fully enriched records to a
local JSON sink. A dedup ledger guarantees each post is collected once.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches env XCOLLECTOR_*)")

	cmd.AddCommand(newRunCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "command failed: %v\n", err)
		os.Exit(1)
	}
}
