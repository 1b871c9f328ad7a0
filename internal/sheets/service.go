package sheets

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"time"

	"einvoice/internal/logger"
	"einvoice/pkg/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Service handles Google Sheets operations
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	log           zerolog.Logger
	now           func() time.Time
}

// Row represents an invoice row to be written to the sheet
type Row struct {
	InvoiceID    string
	PostDate     string
	Type         string
	Customer     string
	Amount       decimal.Decimal
	Comment      string
	Status       string
	EInvoiceID   string
	EInvoiceDate string
	SubmittedBy  string
	PDF          string
	OrderNum     string
	Lines        int
	PublishedAt  string
}

var headers = []interface{}{
	"Invoice", "Post Date", "Type", "Customer", "Amount", "Comment", "Status",
	"E-Invoice", "E-Invoice Date", "Submitted By", "PDF", "Order", "Lines", "Published At",
}

const lastColumn = "N"

// NewSheetsService creates a new Google Sheets service
func NewSheetsService(ctx context.Context, sheetURL string) (*Service, error) {
	const op = "NewSheetsService"

	// Get Google credentials
	var creds []byte
	var err error
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err = os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read credentials file: %w", op, err)
		}
	} else if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		creds = []byte(credsJSON)
	} else {
		return nil, fmt.Errorf("%s: neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set", op)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	return NewWithOptions(ctx, sheetURL, option.WithHTTPClient(config.Client(ctx)))
}

// NewWithOptions creates the service with explicit client options, e.g. a
// custom endpoint and HTTP client.
func NewWithOptions(ctx context.Context, sheetURL string, opts ...option.ClientOption) (*Service, error) {
	const op = "NewWithOptions"

	log := logger.WithComponent("sheets")

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}
	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Extracted spreadsheet ID")

	sheetsService, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return &Service{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		log:           log,
		now:           time.Now,
	}, nil
}

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// extractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func extractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Google Sheets URL format")
	}
	return matches[1], nil
}

// PublishInvoices appends the invoices to the given worksheet, creating it
// with a header row when missing. It returns the number of rows written.
func (s *Service) PublishInvoices(ctx context.Context, invoices []models.Invoice, sheetName string) (int, error) {
	const op = "PublishInvoices"

	if len(invoices) == 0 {
		return 0, nil
	}

	s.log.Info().
		Str("sheet", sheetName).
		Int("rows", len(invoices)).
		Msg("Publishing invoices to Google Sheet")

	if err := s.ensureSheetWithHeaders(ctx, sheetName); err != nil {
		return 0, fmt.Errorf("%s: failed to ensure sheet exists: %w", op, err)
	}

	rows := ToRows(invoices, s.now())
	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		values = append(values, row.values())
	}

	_, err := s.sheetsService.Spreadsheets.Values.Append(
		s.spreadsheetID,
		sheetName+"!A:"+lastColumn,
		&sheets.ValueRange{Values: values},
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to append values to sheet: %w", op, err)
	}

	s.log.Info().
		Int("rows_written", len(values)).
		Msg("Successfully published invoices to Google Sheet")

	return len(values), nil
}

// ToRows converts invoices to sheet rows stamped with publishedAt.
func ToRows(invoices []models.Invoice, publishedAt time.Time) []Row {
	stamp := publishedAt.Format("2006-01-02 15:04:05")
	rows := make([]Row, 0, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		pdf := inv.PDFURL
		if pdf == "" && inv.HasPDF() {
			pdf = "yes"
		}
		rows = append(rows, Row{
			InvoiceID:    inv.ID,
			PostDate:     inv.PostDate,
			Type:         inv.Type,
			Customer:     inv.CustomerName,
			Amount:       inv.Amount,
			Comment:      inv.Comment,
			Status:       string(inv.Status),
			EInvoiceID:   inv.EInvoiceID,
			EInvoiceDate: inv.EInvoiceDate,
			SubmittedBy:  inv.SubmittedBy,
			PDF:          pdf,
			OrderNum:     inv.OrderNum,
			Lines:        len(inv.LineItems),
			PublishedAt:  stamp,
		})
	}
	return rows
}

// values lays the row out in sheet column order. Amounts go out as numbers
// so the sheet can sum them.
func (r Row) values() []interface{} {
	return []interface{}{
		r.InvoiceID,               // A
		r.PostDate,                // B
		r.Type,                    // C
		r.Customer,                // D
		r.Amount.InexactFloat64(), // E
		r.Comment,                 // F
		r.Status,                  // G
		r.EInvoiceID,              // H
		r.EInvoiceDate,            // I
		r.SubmittedBy,             // J
		r.PDF,                     // K
		r.OrderNum,                // L
		r.Lines,                   // M
		r.PublishedAt,             // N
	}
}

// ensureSheetWithHeaders ensures the sheet exists and has proper headers
func (s *Service) ensureSheetWithHeaders(ctx context.Context, sheetName string) error {
	const op = "ensureSheetWithHeaders"

	spreadsheet, err := s.sheetsService.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	var sheetExists bool
	var sheetID int64
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == sheetName {
			sheetExists = true
			sheetID = sheet.Properties.SheetId
			break
		}
	}

	if !sheetExists {
		s.log.Info().Str("sheet", sheetName).Msg("Creating new sheet")

		resp, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: sheetName}}},
			},
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create sheet: %w", op, err)
		}
		if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil {
			sheetID = resp.Replies[0].AddSheet.Properties.SheetId
		}
	}

	headerRange := fmt.Sprintf("%s!A1:%s1", sheetName, lastColumn)
	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get headers: %w", op, err)
	}

	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		s.log.Info().Str("sheet", sheetName).Msg("Adding headers to sheet")

		_, err = s.sheetsService.Spreadsheets.Values.Update(
			s.spreadsheetID,
			headerRange,
			&sheets.ValueRange{Values: [][]interface{}{headers}},
		).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to add headers: %w", op, err)
		}

		if err := s.formatHeaders(ctx, sheetID); err != nil {
			s.log.Warn().Err(err).Msg("Failed to format headers, continuing anyway")
		}
	}

	return nil
}

// formatHeaders makes the header row bold and resizes the columns
func (s *Service) formatHeaders(ctx context.Context, sheetID int64) error {
	const op = "formatHeaders"

	columns := int64(len(headers))
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat:      &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   columns,
				},
			},
		},
	}

	_, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to format headers: %w", op, err)
	}
	return nil
}
