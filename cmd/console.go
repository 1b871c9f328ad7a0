package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"einvoice/internal/api"
	"einvoice/internal/config"
	"einvoice/internal/console"
	"einvoice/internal/datasource"
	"einvoice/internal/grid"
	"einvoice/internal/logger"
	"einvoice/internal/metrics"
	"einvoice/internal/render"
	"einvoice/internal/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const appConfigTimeout = 5 * time.Second

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run the interactive invoice grid",
	Long: `Open the interactive e-invoice console: a status sidebar with per-status
counts, a debounced filter row, and a paginated table with row selection.
Selected invoices can be submitted, merged, reversed with a red note or exported.

Filter flags seed the grid; the first page is loaded with them applied.`,
	Example: `  # Open the console on the error queue
  einvoice console --status error

  # Expose fetch metrics while the console runs
  einvoice console --metrics-addr :9090`,
	Args: cobra.NoArgs,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)

	addFilterFlags(consoleCmd)
	consoleCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	consoleCmd.Flags().String("export-dir", ".", "Directory for spreadsheet exports")
}

func runConsole(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("console")

	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	exportDir, _ := cmd.Flags().GetString("export-dir")

	seed, err := patchFromFlags(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Log lines written to the terminal would tear the alternate screen.
	if logsToTerminal(cfg) {
		log.Info().Str("output", cfg.LogOutput).Msg("Silencing terminal logging while the console runs")
		logger.Silence()
	}

	client, err := newAPIClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := createContext(0, log)
	defer cancel()

	th, title := consoleTheme(ctx, client, cfg, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	fetchMetrics := metrics.NewFetchMetrics(reg)

	if metricsAddr != "" {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Str("addr", metricsAddr).Msg("Metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", metricsAddr).Msg("Serving metrics")
	}

	g := grid.New(datasource.NewSource(client), grid.Config{
		PageSize: cfg.PageSize,
		Debounce: cfg.Debounce(),
		Metrics:  fetchMetrics,
	})
	defer g.Close()

	model := console.New(ctx, g, console.Options{
		Actions:     client,
		Renderer:    render.New(th),
		SubmittedBy: cfg.SubmittedBy,
		ExportDir:   exportDir,
		Title:       title,
		Seed:        seed,
	})
	defer model.Close()

	log.Info().
		Str("base_url", client.BaseURL()).
		Int("page_size", cfg.PageSize).
		Int("filters", len(seed)).
		Msg("Starting console")

	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("console failed: %w", err)
	}
	return nil
}

func logsToTerminal(cfg *config.Config) bool {
	return cfg.LogOutput == "" || cfg.LogOutput == "stdout" || cfg.LogOutput == "stderr"
}

// consoleTheme loads the backend app config for the title and primary
// colour. EINVOICE_PRIMARY_COLOR wins when set; a failed lookup only costs
// the branding.
func consoleTheme(ctx context.Context, client *api.Client, cfg *config.Config, log zerolog.Logger) (theme.Theme, string) {
	title := "E-Invoice Console"
	primary := cfg.PrimaryColor

	lookupCtx, cancel := context.WithTimeout(ctx, appConfigTimeout)
	defer cancel()

	appCfg, err := client.FetchAppConfig(lookupCtx, cfg.AppCode)
	if err != nil {
		log.Warn().
			Err(err).
			Str("app_code", cfg.AppCode).
			Msg("Failed to load app config, using defaults")
	} else {
		if appCfg.AppName != "" {
			title = appCfg.AppName
		}
		if primary == "" {
			primary = appCfg.PrimaryColor
		}
	}
	return theme.Derive(primary), title
}
