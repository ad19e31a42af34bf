// Biocat is a command-line client for Watercryst BIOCAT water
// treatment devices.
//
// It talks to the Watercryst cloud API, validates API keys during
// setup, shows device state and sensor readings, and drives the
// device's leakage protection controls. API keys are stored in a local
// registry file and only ever displayed in masked form.
//
// Usage:
//
//	biocat [command] [flags]
//
// Start with 'biocat setup' to register a device.
// See 'biocat --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/biocat/internal/logging"
	"github.com/muurk/biocat/internal/version"
)

func main() {
	logging.InitializeFromEnv()
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "biocat",
	Short: "Watercryst BIOCAT device client",
	Long: `A command-line client for Watercryst BIOCAT water treatment devices.

Talks to the Watercryst cloud API to show device state, sensor readings
and water consumption, and to control leakage protection, absence mode
and the water supply.

Start with 'biocat setup' to register a device API key.`,
	Version:       version.Full(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("biocat %s\n", version.Full())
	},
}
