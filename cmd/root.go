package cmd

import (
	"fmt"
	"os"

	"einvoice/internal/logger"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "einvoice",
	Short: "E-Invoice console - browse, filter and issue electronic invoices",
	Long: `einvoice is a command-line console for the e-invoice backend.

It lists ERP invoices with the same filters as the web console, runs the
interactive grid (status sidebar, debounced filter row, paginated selectable
table) and issues, merges, reverses and exports e-invoices.

Configuration is read from the environment or a .env file:
  EINVOICE_API_BASE_URL - Backend base URL (default http://localhost:8088/e-invoice/api)
  EINVOICE_API_TOKEN    - Bearer token
  EINVOICE_SUBMITTED_BY - Default submitter for actions`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("E-Invoice console executed")

		fmt.Println("Welcome to the E-Invoice console!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
