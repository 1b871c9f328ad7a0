package cmd

import (
	"fmt"

	"einvoice/internal/logger"
	"einvoice/internal/sheets"

	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Append a filtered page of invoices to a Google Sheet",
	Long: `Fetch one page of invoices matching the filter flags and append it to a
Google Sheets worksheet. The worksheet is created with a header row if it
does not exist.

Requires GOOGLE_APPLICATION_CREDENTIALS (path to a service account key) or
GOOGLE_CREDENTIALS (the key JSON itself), and the sheet shared with the
service account.`,
	Example: `  # Publish this month's issued invoices
  einvoice publish --status submitted --einvoice-date 2024-03-01..2024-03-31 --limit 200

  # Publish to a specific worksheet
  einvoice publish --status error --worksheet "Errors"`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)

	addFilterFlags(publishCmd)
	publishCmd.Flags().Int("page", 1, "Page number")
	publishCmd.Flags().Int("limit", 0, "Page size (default: EINVOICE_PAGE_SIZE)")
	publishCmd.Flags().String("sheet-url", "", "Google Sheet URL (default: GOOGLE_SHEET_URL)")
	publishCmd.Flags().String("worksheet", "", "Worksheet name (default: GOOGLE_SHEET_WORKSHEET)")
	publishCmd.Flags().Bool("dry-run", false, "Fetch and count the rows without writing to the sheet")
}

func runPublish(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("publish")

	page, _ := cmd.Flags().GetInt("page")
	limit, _ := cmd.Flags().GetInt("limit")
	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	worksheet, _ := cmd.Flags().GetString("worksheet")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	seed, err := patchFromFlags(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if limit < 1 {
		limit = cfg.PageSize
	}
	if sheetURL == "" {
		sheetURL = cfg.GoogleSheetURL
	}
	if worksheet == "" {
		worksheet = cfg.GoogleSheetWorksheet
	}
	if sheetURL == "" && !dryRun {
		return fmt.Errorf("GOOGLE_SHEET_URL environment variable or --sheet-url is required")
	}

	client, err := newAPIClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := createContext(cfg.Timeout()*4, log)
	defer cancel()

	snap, err := fetchPage(ctx, client, nil, seed, page, limit)
	if err != nil {
		return fmt.Errorf("failed to fetch invoices: %w", err)
	}
	invoices := snap.Rows.Invoices

	fmt.Printf("Fetched %d invoices (page %d of %d, %d total)\n",
		len(invoices), snap.Page, snap.PageCount(), snap.Rows.Total)

	if dryRun || len(invoices) == 0 {
		log.Info().
			Int("invoices", len(invoices)).
			Bool("dry_run", dryRun).
			Msg("Nothing published")
		return nil
	}

	sheetsService, err := sheets.NewSheetsService(ctx, sheetURL)
	if err != nil {
		return fmt.Errorf("failed to create Google Sheets service: %w", err)
	}

	written, err := sheetsService.PublishInvoices(ctx, invoices, worksheet)
	if err != nil {
		return fmt.Errorf("failed to write to Google Sheet: %w", err)
	}

	fmt.Printf("Sheet: %s\n", worksheet)
	fmt.Printf("Rows added: %d\n", written)
	fmt.Printf("URL: %s\n", sheetURL)
	return nil
}
