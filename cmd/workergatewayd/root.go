package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set during build with -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "workergatewayd",
	Short: "Standalone demo host for the gateway and supervisor cores",
	Long: `workergatewayd runs the gateway and supervisor cores outside of any
larger host application, for local development and manual testing.

It reads a single config.yaml describing both the gateway's bind address
and the worker process the supervisor should keep alive, then wires the
two together exactly as a real host runtime would.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(`{{printf "workergatewayd version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
