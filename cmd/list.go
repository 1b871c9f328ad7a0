package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"einvoice/internal/grid"
	"einvoice/internal/logger"
	"einvoice/internal/render"
	"einvoice/internal/theme"
	"einvoice/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List one page of invoices matching the filters",
	Long: `Query the e-invoice backend for one page of invoices and print it as a table
or as JSON. Filters use the same rules as the console filter row: empty values
are ignored, date ranges are inclusive and statuses are case-insensitive.`,
	Example: `  # Pending invoices of one customer
  einvoice list --status pending --customer "ACME Trading"

  # Third page of March postings, 20 per page, as JSON
  einvoice list --post-date 2024-03-01..2024-03-31 --page 3 --limit 20 --json

  # Show the line items of each invoice
  einvoice list --id 10001 --lines`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// ListOutput is the JSON shape printed by list --json.
type ListOutput struct {
	Page      int             `json:"page"`
	PageCount int             `json:"page_count"`
	Total     int             `json:"total"`
	Totals    map[string]int  `json:"totals,omitempty"`
	Invoices  []InvoiceOutput `json:"invoices"`
}

// InvoiceOutput is one invoice in JSON output.
type InvoiceOutput struct {
	ID           string          `json:"id"`
	OrderNum     string          `json:"order_num,omitempty"`
	PostDate     string          `json:"post_date,omitempty"`
	Type         string          `json:"type,omitempty"`
	CustomerName string          `json:"customer_name,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Comment      string          `json:"comment,omitempty"`
	Status       models.Status   `json:"status"`
	EInvoiceID   string          `json:"einvoice_id,omitempty"`
	EInvoiceDate string          `json:"einvoice_date,omitempty"`
	SubmittedBy  string          `json:"submitted_by,omitempty"`
	PDFURL       string          `json:"pdf_url,omitempty"`
	Lines        []LineOutput    `json:"lines,omitempty"`
}

// LineOutput is one invoice line in JSON output.
type LineOutput struct {
	LineNo      int             `json:"line_no"`
	PartNo      string          `json:"part_no,omitempty"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UOM         string          `json:"uom,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxTotal    decimal.Decimal `json:"tax_total"`
}

func init() {
	rootCmd.AddCommand(listCmd)

	addFilterFlags(listCmd)
	listCmd.Flags().Int("page", 1, "Page number")
	listCmd.Flags().Int("limit", 0, "Page size (default: EINVOICE_PAGE_SIZE)")
	listCmd.Flags().Bool("json", false, "Output as JSON")
	listCmd.Flags().Bool("lines", false, "Show line items")
}

func runList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("list")

	page, _ := cmd.Flags().GetInt("page")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	showLines, _ := cmd.Flags().GetBool("lines")

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

	client, err := newAPIClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := createContext(cfg.Timeout()*2, log)
	defer cancel()

	log.Debug().
		Int("page", page).
		Int("limit", limit).
		Int("filters", len(seed)).
		Msg("Listing invoices")

	snap, err := fetchPage(ctx, client, nil, seed, page, limit)
	if err != nil {
		return fmt.Errorf("failed to list invoices: %w", err)
	}

	if jsonOutput {
		return writeJSON(toListOutput(snap, showLines))
	}

	r := render.New(theme.Default)
	fmt.Println(r.Filters(snap.Committed, snap.Committed))
	fmt.Println(r.Page(snap.Rows, -1, nil))
	if showLines {
		for _, inv := range snap.Rows.Invoices {
			fmt.Println(r.Lines(inv))
		}
	}
	fmt.Println(r.Footer(snap.Page, snap.PageCount(), snap.Rows.Total, 0))
	return nil
}

func toListOutput(snap grid.Snapshot, withLines bool) ListOutput {
	out := ListOutput{
		Page:      snap.Page,
		PageCount: snap.PageCount(),
		Total:     snap.Rows.Total,
		Invoices:  make([]InvoiceOutput, 0, len(snap.Rows.Invoices)),
	}
	if len(snap.Rows.Totals) > 0 {
		out.Totals = make(map[string]int, len(snap.Rows.Totals))
		for s, n := range snap.Rows.Totals {
			out.Totals[string(s)] = n
		}
	}
	for _, inv := range snap.Rows.Invoices {
		o := InvoiceOutput{
			ID:           inv.ID,
			OrderNum:     inv.OrderNum,
			PostDate:     inv.PostDate,
			Type:         inv.Type,
			CustomerName: inv.CustomerName,
			Amount:       inv.Amount,
			Comment:      inv.Comment,
			Status:       inv.Status,
			EInvoiceID:   inv.EInvoiceID,
			EInvoiceDate: inv.EInvoiceDate,
			SubmittedBy:  inv.SubmittedBy,
			PDFURL:       inv.PDFURL,
		}
		if withLines {
			for _, li := range inv.LineItems {
				o.Lines = append(o.Lines, LineOutput(li))
			}
		}
		out.Invoices = append(out.Invoices, o)
	}
	return out
}

func writeJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	if _, err := os.Stdout.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Println()
	return nil
}
