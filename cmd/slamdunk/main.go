// slamdunk is the command-line companion of the table server.
//
// Usage:
//
//	slamdunk simulate --dx 0.2 --dz 0   - Run one shot on a simulated host and print the result
//	slamdunk rack --balls 10            - Print the rack layout
//	slamdunk migrate                    - Apply database migrations
//
// Global flags:
//
//	--log-level <level>  - debug, info, warn or error (default: warn)
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var flagLogLevel string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "slamdunk",
	Short: "Billiards table engine tools",
	Long: `slamdunk drives the collision and motion-resolution engine from the
command line: simulate shots without a renderer, inspect rack layouts and
prepare the history database.

Examples:
  slamdunk simulate --dx 0.2
  slamdunk simulate --dx 0.1 --dz 0.1 --rotation 1.57 --profile legacy
  slamdunk rack --balls 15
  slamdunk migrate`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		godotenv.Load()
		level, err := log.ParseLevel(flagLogLevel)
		if err != nil {
			return fmt.Errorf("invalid --log-level %q", flagLogLevel)
		}
		logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "slamdunk", Level: level})
		log.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(rackCmd)
	rootCmd.AddCommand(migrateCmd)
}
