// Command thresholdcli drives the threshold ML-DSA library end to end
// in a single process: trusted-dealer keygen, DKG, threshold signing,
// and verification, simulating every party locally the way the
// teacher's threshold-cli drives multiple parties over test.Network.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configDir string
	verbose   bool

	rootCmd = &cobra.Command{
		Use:   "thresholdcli",
		Short: "Drive threshold ML-DSA keygen, DKG, signing, and verification",
		Long: `thresholdcli simulates an N-party threshold ML-DSA group in one
process: keygen (trusted dealer or DKG), threshold signing across an
active subset, and standard FIPS 204 verification of the result.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "d", "./thresholdcli-data", "directory for party config files")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose structured logging")

	rootCmd.AddCommand(keygenCmd, dkgCmd, signCmd, verifyCmd, benchCmd)
}

// verbosity maps the --verbose flag to xlog's verbosity scale.
func verbosity() int {
	if verbose {
		return 1
	}
	return 0
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
