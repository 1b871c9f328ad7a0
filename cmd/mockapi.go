package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"einvoice/internal/logger"
	"einvoice/internal/mockapi"
	"einvoice/internal/theme"

	"github.com/spf13/cobra"
)

var mockAPICmd = &cobra.Command{
	Use:   "mock-api",
	Short: "Serve an in-memory e-invoice backend for local development",
	Long: `Start a mock e-invoice backend with a generated data set. It serves the
invoice query, submit, merge, red note, export and app-config endpoints under
` + mockapi.BasePath + `, so list and console can run without the real service.

Rows are returned grouped (one item per invoice), flat (one item per line) or
mixed, to exercise both response layouts.`,
	Example: `  # Serve 120 invoices on :8088
  einvoice mock-api

  # Flat rows, custom branding, token required
  einvoice mock-api --shape flat --app-name "Acme E-Invoice" --primary-color "#6750a4" --token secret`,
	Args: cobra.NoArgs,
	RunE: runMockAPI,
}

func init() {
	rootCmd.AddCommand(mockAPICmd)

	mockAPICmd.Flags().String("addr", ":8088", "Listen address")
	mockAPICmd.Flags().Int("seed", 120, "Number of generated invoices")
	mockAPICmd.Flags().String("shape", string(mockapi.ShapeMixed), "Row layout: mixed, grouped or flat")
	mockAPICmd.Flags().String("token", "", "Required bearer token (default: EINVOICE_API_TOKEN)")
	mockAPICmd.Flags().String("app-code", "", "App code served by app-config (default: EINVOICE_APP_CODE)")
	mockAPICmd.Flags().String("app-name", "E-Invoice Console", "App name served by app-config")
	mockAPICmd.Flags().String("primary-color", theme.Default.Primary, "Primary colour served by app-config")
}

func runMockAPI(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("mock-api")

	addr, _ := cmd.Flags().GetString("addr")
	seed, _ := cmd.Flags().GetInt("seed")
	shape, _ := cmd.Flags().GetString("shape")
	token, _ := cmd.Flags().GetString("token")
	appCode, _ := cmd.Flags().GetString("app-code")
	appName, _ := cmd.Flags().GetString("app-name")
	primary, _ := cmd.Flags().GetString("primary-color")

	switch mockapi.Shape(shape) {
	case mockapi.ShapeMixed, mockapi.ShapeGrouped, mockapi.ShapeFlat:
	default:
		return fmt.Errorf("invalid shape %q: use mixed, grouped or flat", shape)
	}
	if seed < 0 {
		return fmt.Errorf("--seed must not be negative")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("token") {
		token = cfg.APIToken
	}
	if appCode == "" {
		appCode = cfg.AppCode
	}

	srv := mockapi.New(mockapi.Seed(seed, time.Now()),
		mockapi.WithToken(token),
		mockapi.WithShape(mockapi.Shape(shape)),
		mockapi.WithAppConfig(mockapi.AppConfig{
			AppCode:      appCode,
			AppName:      appName,
			PrimaryColor: primary,
		}),
	)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := createContext(0, log)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	log.Info().
		Str("addr", addr).
		Str("base_path", mockapi.BasePath).
		Int("invoices", seed).
		Str("shape", shape).
		Bool("auth", token != "").
		Msg("Mock API listening")
	fmt.Printf("Mock e-invoice API on http://localhost%s%s\n", addr, mockapi.BasePath)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("mock API server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down mock API: %w", err)
	}
	log.Info().Msg("Mock API stopped")
	return nil
}
